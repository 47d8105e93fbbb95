package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Izzudinalqassam/techops-dashboard/internal/domain"
)

func identityRouter(t *testing.T, seen *domain.Actor) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Identity())
	r.GET("/who", func(c *gin.Context) {
		a, ok := ActorFrom(c)
		if !ok {
			t.Fatalf("actor missing after Identity")
		}
		*seen = a
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestIdentity_RejectsMissingOrBadUserID(t *testing.T) {
	for _, v := range []string{"", "abc", "0", "-3", "1.5"} {
		var seen domain.Actor
		r := identityRouter(t, &seen)
		req := httptest.NewRequest(http.MethodGet, "/who", nil)
		if v != "" {
			req.Header.Set(HeaderUserID, v)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("X-User-ID=%q: status %d; want 401", v, w.Code)
		}
		var body map[string]string
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["code"] != "unauthorized" || body["request_id"] == "" {
			t.Fatalf("unexpected body: %v", body)
		}
	}
}

func TestIdentity_ResolvesActorAndDefaultsRole(t *testing.T) {
	var seen domain.Actor
	r := identityRouter(t, &seen)

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set(HeaderUserID, " 7 ")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if seen.ID != 7 || seen.Role != "engineer" {
		t.Fatalf("actor = %+v; want id 7 role engineer", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set(HeaderUserID, "9")
	req.Header.Set(HeaderUserRole, "Admin")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if seen.ID != 9 || seen.Role != "admin" {
		t.Fatalf("actor = %+v; want id 9 role admin", seen)
	}
}

func TestIdentity_EnrichesScopedLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	r := gin.New()
	r.Use(RequestID(), RedactingLogger(RedactOptions{Base: &base}), Identity())
	r.GET("/who", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("inside")
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	req.Header.Set(HeaderUserID, "5")
	r.ServeHTTP(httptest.NewRecorder(), req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 log lines, got %d: %s", len(lines), buf.String())
	}
	for _, line := range lines {
		if !strings.Contains(line, `"actor_id":5`) {
			t.Fatalf("actor_id missing from %s", line)
		}
	}
}

func TestActorFrom_Absent(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if _, ok := ActorFrom(c); ok {
		t.Fatalf("no actor expected")
	}
	c.Set(ctxKeyActor, "nope")
	if _, ok := ActorFrom(c); ok {
		t.Fatalf("wrong type must not resolve")
	}
}
