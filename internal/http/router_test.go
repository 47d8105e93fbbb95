package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Izzudinalqassam/techops-dashboard/internal/config"
	"github.com/Izzudinalqassam/techops-dashboard/internal/domain"
	"github.com/Izzudinalqassam/techops-dashboard/internal/http/middleware"
	"github.com/Izzudinalqassam/techops-dashboard/internal/repo"
	"github.com/Izzudinalqassam/techops-dashboard/internal/services"
)

// newTestDB opens a migrated temp-file SQLite database with two users.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "router.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Logger = logger.Default.LogMode(logger.Silent)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	users := []domain.User{
		{ID: 1, Name: "Alice Admin", Email: "alice@example.com", Role: "admin"},
		{ID: 2, Name: "Bob Engineer", Email: "bob@example.com", Role: "engineer"},
	}
	if err := db.Create(&users).Error; err != nil {
		t.Fatalf("seed users: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:    "/api/v1",
		RateRPS:        100,
		RateBurst:      50,
		CORS:           config.CORSConfig{AllowedOrigins: nil},
		Security:       config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
		IdempotencyTTL: 24 * time.Hour,
	}
}

func newTestServer(t *testing.T, cfg config.Config) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	svc := services.NewRequestService(db, &services.NumberGenerator{Sequence: services.StoreSequence{}}, nil)
	r := gin.New()
	RegisterRoutes(r, db, svc, cfg)
	return r, db
}

func call(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var asAlice = map[string]string{middleware.HeaderUserID: "1", middleware.HeaderUserRole: "admin"}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r, _ := newTestServer(t, testConfig())

	w := call(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" || w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("baseline headers missing: %v", w.Header())
	}

	w = call(r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "maintenance_requests_created_total") {
		t.Fatalf("GET /metrics bad: code=%d", w.Code)
	}

	if w = call(r, http.MethodGet, "/nope", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}
	if w = call(r, http.MethodPost, "/health", "", nil); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
	if w = call(r, http.MethodGet, "/swagger/index.html", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("swagger should be off by default, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r, _ := newTestServer(t, cfg)

	w := call(r, http.MethodGet, "/health", "", map[string]string{"Origin": "http://example.com"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
	w = call(r, http.MethodGet, "/health", "", map[string]string{"Origin": "http://evil.test"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got == "http://evil.test" {
		t.Fatalf("unlisted origin must not be echoed")
	}
}

func TestRegisterRoutes_SwaggerEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.SwaggerEnabled = true
	r, _ := newTestServer(t, cfg)

	w := call(r, http.MethodGet, "/swagger/doc.json", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "createRequest") {
		t.Fatalf("GET /swagger/doc.json = %d", w.Code)
	}
}

func TestAPI_RequiresIdentity(t *testing.T) {
	r, _ := newTestServer(t, testConfig())
	if w := call(r, http.MethodGet, "/api/v1/requests", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without X-User-ID, got %d", w.Code)
	}
}

func TestAPI_Lifecycle_EndToEnd(t *testing.T) {
	r, db := newTestServer(t, testConfig())

	body := `{"client_name":"Acme Corp","client_email":"ops@acme.test","title":"Core switch","description":"Port errors","priority":"High","category":"Network"}`
	w := call(r, http.MethodPost, "/api/v1/requests", body, asAlice)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var created domain.MaintenanceRequest
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.HasPrefix(created.RequestNumber, "MR-ACX-") || !strings.HasSuffix(created.RequestNumber, "-001") {
		t.Fatalf("unexpected number %q", created.RequestNumber)
	}
	id := created.ID
	base := "/api/v1/requests/" + uintStr(id)

	w = call(r, http.MethodPost, base+"/status", `{"status":"In Progress","reason":"Engineer assigned"}`, asAlice)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"In Progress"`) {
		t.Fatalf("transition: %d %s", w.Code, w.Body.String())
	}
	w = call(r, http.MethodPost, base+"/status", `{"status":"Archived"}`, asAlice)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "invalid_status") {
		t.Fatalf("bad status: %d %s", w.Code, w.Body.String())
	}

	w = call(r, http.MethodPost, base+"/work-logs", `{"description":"Replaced SFP","hours_spent":1.5}`,
		map[string]string{middleware.HeaderUserID: "2"})
	if w.Code != http.StatusCreated {
		t.Fatalf("work log: %d %s", w.Code, w.Body.String())
	}

	w = call(r, http.MethodGet, base, "", asAlice)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d", w.Code)
	}
	var detail struct {
		Status        string                      `json:"status"`
		WorkLogs      []domain.WorkLogEntry       `json:"work_logs"`
		StatusHistory []domain.StatusHistoryEntry `json:"status_history"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("json: %v", err)
	}
	if detail.Status != "In Progress" || len(detail.WorkLogs) != 1 || len(detail.StatusHistory) != 2 {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	if h := detail.StatusHistory[1]; h.OldStatus == nil || *h.OldStatus != domain.StatusPending || h.ChangeReason == nil || *h.ChangeReason != "Engineer assigned" {
		t.Fatalf("unexpected history row: %+v", h)
	}

	w = call(r, http.MethodGet, "/api/v1/requests?status=Pending&sortBy=bogus_column&page=1&limit=10", "", asAlice)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"total":0`) {
		t.Fatalf("list pending: %d %s", w.Code, w.Body.String())
	}

	w = call(r, http.MethodGet, "/api/v1/requests/by-number/"+strings.ToLower(created.RequestNumber), "", asAlice)
	if w.Code != http.StatusOK {
		t.Fatalf("by-number: %d", w.Code)
	}

	if w = call(r, http.MethodDelete, base, "", asAlice); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	if w = call(r, http.MethodPost, base+"/work-logs", `{"description":"late"}`, asAlice); w.Code != http.StatusNotFound {
		t.Fatalf("work log on deleted request: %d", w.Code)
	}
	var n int64
	db.Model(&domain.StatusHistoryEntry{}).Where("request_id = ?", id).Count(&n)
	if n != 0 {
		t.Fatalf("history should be gone, %d rows left", n)
	}
}

func TestAPI_IdempotentCreate(t *testing.T) {
	r, db := newTestServer(t, testConfig())
	body := `{"client_name":"Initech","client_email":"it@initech.test","title":"Printer","description":"Jammed","priority":"Low"}`
	hdr := map[string]string{middleware.HeaderUserID: "1", middleware.HeaderIdempotencyKey: "create-1"}

	w1 := call(r, http.MethodPost, "/api/v1/requests", body, hdr)
	w2 := call(r, http.MethodPost, "/api/v1/requests", body, hdr)
	if w1.Code != http.StatusCreated || w2.Code != http.StatusCreated {
		t.Fatalf("codes %d %d", w1.Code, w2.Code)
	}
	if w2.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("second call should be a replay")
	}
	var a, b domain.MaintenanceRequest
	_ = json.Unmarshal(w1.Body.Bytes(), &a)
	_ = json.Unmarshal(w2.Body.Bytes(), &b)
	if a.ID != b.ID || a.RequestNumber != b.RequestNumber {
		t.Fatalf("replay returned a different request: %d vs %d", a.ID, b.ID)
	}

	var n int64
	db.Model(&domain.MaintenanceRequest{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected one stored request, got %d", n)
	}

	// Same key, other actor: independent.
	hdr[middleware.HeaderUserID] = "2"
	if w := call(r, http.MethodPost, "/api/v1/requests", body, hdr); w.Header().Get(middleware.HeaderIdempotencyReplayed) != "" {
		t.Fatalf("another actor must not replay")
	}
}

func TestAPI_ListETag_304(t *testing.T) {
	r, _ := newTestServer(t, testConfig())
	body := `{"client_name":"Acme Corp","client_email":"ops@acme.test","title":"t","description":"d","priority":"Medium"}`
	if w := call(r, http.MethodPost, "/api/v1/requests", body, asAlice); w.Code != http.StatusCreated {
		t.Fatalf("create: %d", w.Code)
	}

	w := call(r, http.MethodGet, "/api/v1/requests", "", asAlice)
	etag := w.Header().Get("ETag")
	if w.Code != http.StatusOK || etag == "" {
		t.Fatalf("list: %d etag=%q", w.Code, etag)
	}
	hdr := map[string]string{middleware.HeaderUserID: "1", "If-None-Match": etag}
	if w := call(r, http.MethodGet, "/api/v1/requests", "", hdr); w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}

	if w := call(r, http.MethodPost, "/api/v1/requests", body, asAlice); w.Code != http.StatusCreated {
		t.Fatalf("create 2: %d", w.Code)
	}
	if w := call(r, http.MethodGet, "/api/v1/requests", "", hdr); w.Code != http.StatusOK {
		t.Fatalf("ETag should change after a write, got %d", w.Code)
	}
}

func TestIdempotencyStore_LookupBranches(t *testing.T) {
	db := newTestDB(t)
	s := idempotencyStore{db: db, ttl: time.Hour}
	ctx := context.Background()
	now := time.Now().UTC()

	if ok, err := s.lookup(ctx, 1, "POST /api/v1/requests", "k", now); ok || err != nil {
		t.Fatalf("miss: ok=%v err=%v", ok, err)
	}
	if err := s.Save(ctx, 1, "POST /api/v1/requests", "k", 9, http.StatusCreated, now); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ok, err := s.lookup(ctx, 1, "POST /api/v1/requests", "k", now); !ok || err != nil {
		t.Fatalf("hit: ok=%v err=%v", ok, err)
	}

	sqlDB, _ := db.DB()
	_ = sqlDB.Close()
	if ok, err := s.lookup(ctx, 1, "POST /api/v1/requests", "k", now); ok || err == nil {
		t.Fatalf("closed db: ok=%v err=%v", ok, err)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

func uintStr(v uint) string {
	b, _ := json.Marshal(v)
	return string(b)
}
