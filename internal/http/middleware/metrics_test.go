package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RouteTemplateAndUnmatched(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/v1/requests/:id", func(c *gin.Context) { c.String(http.StatusOK, "detail") })
	r.POST("/api/v1/requests/:id/work-logs", func(c *gin.Context) { c.Status(http.StatusCreated) })

	const route = "/api/v1/requests/:id"
	baseOK := testutil.ToFloat64(httpRequests.WithLabelValues("GET", route, "200"))
	base404 := testutil.ToFloat64(httpRequests.WithLabelValues("GET", unmatchedRoute, "404"))
	baseLogs := testutil.ToFloat64(httpRequests.WithLabelValues("POST", "/api/v1/requests/:id/work-logs", "201"))

	for _, id := range []string{"1", "2", "3"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/requests/"+id, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("GET /api/v1/requests/%s -> %d", id, w.Code)
		}
	}
	for _, p := range []string{"/wp-login.php", "/.env"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, p, nil))
		if w.Code != http.StatusNotFound {
			t.Fatalf("GET %s -> %d", p, w.Code)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/requests/7/work-logs", strings.NewReader(`{"description":"x"}`)))

	if got := testutil.ToFloat64(httpRequests.WithLabelValues("GET", route, "200")); got != baseOK+3 {
		t.Fatalf("route counter = %v; want %v", got, baseOK+3)
	}
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("GET", unmatchedRoute, "404")); got != base404+2 {
		t.Fatalf("unmatched counter = %v; want %v", got, base404+2)
	}
	if got := testutil.ToFloat64(httpRequests.WithLabelValues("POST", "/api/v1/requests/:id/work-logs", "201")); got != baseLogs+1 {
		t.Fatalf("work-log counter = %v; want %v", got, baseLogs+1)
	}
	if n := testutil.ToFloat64(httpInflight); n != 0 {
		t.Fatalf("inflight = %v; want 0", n)
	}
}

func TestRouteLabel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/x/y", nil)
	if got := routeLabel(c); got != unmatchedRoute {
		t.Fatalf("routeLabel without route = %q", got)
	}
}
