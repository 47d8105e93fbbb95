package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// envelopeRouter stamps a request id and a capturing logger on every request.
func envelopeRouter(buf *bytes.Buffer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	lg := zerolog.New(buf)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-7")
		c.Set("logger", &lg)
		c.Next()
	})
	return r
}

func TestFail_EnvelopeAndLogging(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		code    string
		msg     string
		cause   error
		wantLog string
	}{
		{"store failure is logged with cause", http.StatusInternalServerError, ErrCodeInternal, "internal server error",
			errors.New("transition_status: database is locked"), `"error":"transition_status: database is locked"`},
		{"client error is not logged", http.StatusBadRequest, ErrCodeInvalidStatus, "invalid status", nil, ""},
		{"missing request", http.StatusNotFound, ErrCodeNotFound, "request not found", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := envelopeRouter(&buf)
			r.POST("/requests/:id/status", func(c *gin.Context) {
				if tc.cause != nil {
					_ = c.Error(tc.cause)
				}
				fail(c, tc.status, tc.code, tc.msg)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/requests/3/status", nil))
			if w.Code != tc.status {
				t.Fatalf("status=%d", w.Code)
			}
			var er ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
				t.Fatalf("json: %v", err)
			}
			if er != (ErrorResponse{RequestID: "rid-7", Code: tc.code, Message: tc.msg}) {
				t.Fatalf("unexpected envelope: %+v", er)
			}
			if tc.wantLog == "" {
				if buf.Len() != 0 {
					t.Fatalf("unexpected log: %s", buf.String())
				}
				return
			}
			if !strings.Contains(buf.String(), `"level":"error"`) || !strings.Contains(buf.String(), tc.wantLog) {
				t.Fatalf("expected error log containing %s, got %s", tc.wantLog, buf.String())
			}
		})
	}
}

func TestFail_AbortsChain(t *testing.T) {
	var buf bytes.Buffer
	r := envelopeRouter(&buf)
	reached := false
	r.GET("/requests", func(c *gin.Context) {
		Fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "missing X-User-ID")
	}, func(c *gin.Context) { reached = true })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/requests", nil))
	if w.Code != http.StatusUnauthorized || reached {
		t.Fatalf("status=%d reached=%v", w.Code, reached)
	}
}

func TestSuccessHelpers(t *testing.T) {
	var buf bytes.Buffer
	r := envelopeRouter(&buf)
	r.POST("/requests/:id/work-logs", func(c *gin.Context) {
		ok(c, http.StatusCreated, gin.H{"id": 11, "description": "Replaced SFP"})
	})
	r.DELETE("/requests/:id", noContent)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/requests/3/work-logs", nil))
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), `"description":"Replaced SFP"`) {
		t.Fatalf("ok: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/requests/3", nil))
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("noContent: %d %q", w.Code, w.Body.String())
	}
}
