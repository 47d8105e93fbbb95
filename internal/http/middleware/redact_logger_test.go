package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func lastLogLine(t *testing.T, out string) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		t.Fatalf("bad log line %q: %v", lines[len(lines)-1], err)
	}
	return m
}

func TestRedact(t *testing.T) {
	cases := [][2]string{
		{"", ""},
		{"search=pump", "search=pump"},
		{"email=ops@acme.test", "email=[REDACTED:email]"},
		{"phone=212-555-1212", "phone=[REDACTED:phone]"},
		{"id=3f1c2a9e-8b7d-4c6e-9a1b-0c2d3e4f5a6b", "id=[REDACTED:id]"},
	}
	for _, tc := range cases {
		if got := redact(tc[0]); got != tc[1] {
			t.Fatalf("redact(%q) = %q; want %q", tc[0], got, tc[1])
		}
	}
}

func TestRedactingLogger_InfoAndRedactions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.GET("/api/v1/requests/by-number/:number", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/requests/by-number/MR-ACX-20240115-001?contact=ops@acme.test", nil)
	req.Header.Set(requestIDHeader, "rid-1")
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-Api-Key", "k")
	req.Header.Set("X-Client-Phone", "212 555 1212")
	r.ServeHTTP(httptest.NewRecorder(), req)

	m := lastLogLine(t, buf.String())
	if m["level"] != "info" || m["message"] != "http_request" {
		t.Fatalf("unexpected level/message: %v", m)
	}
	if m["route"] != "/api/v1/requests/by-number/:number" || m["request_id"] != "rid-1" {
		t.Fatalf("route/request_id: %v", m)
	}
	if q, _ := m["query"].(string); strings.Contains(q, "acme.test") || !strings.Contains(q, "[REDACTED:email]") {
		t.Fatalf("query not scrubbed: %q", q)
	}
	h, _ := m["headers"].(map[string]any)
	if h["Authorization"] != "[REDACTED]" || h["X-Api-Key"] != "[REDACTED]" {
		t.Fatalf("headers not masked: %v", h)
	}
	if h["X-Client-Phone"] != "[REDACTED:phone]" {
		t.Fatalf("phone not scrubbed: %v", h["X-Client-Phone"])
	}
}

func TestRedactingLogger_LevelsAndPathFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		path, level string
		status      int
	}{
		{"/bad", "warn", http.StatusBadRequest},
		{"/fail", "error", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		buf := captureLogger(t)
		r := gin.New()
		r.Use(RedactingLogger(RedactOptions{}))
		r.GET(tc.path, func(c *gin.Context) { c.Status(tc.status) })
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tc.path, nil))

		if m := lastLogLine(t, buf.String()); m["level"] != tc.level {
			t.Fatalf("%s: level %v; want %s", tc.path, m["level"], tc.level)
		}
	}

	buf := captureLogger(t)
	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	m := lastLogLine(t, buf.String())
	if m["route"] != "/nowhere" || m["level"] != "warn" {
		t.Fatalf("unmatched route log: %v", m)
	}
}
