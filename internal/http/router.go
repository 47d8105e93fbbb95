// Package httpapi wires the HTTP transport (Gin) to the request lifecycle
// service, middleware and route handlers. It owns cross-cutting concerns:
// tracing, correlation IDs, logging with redaction, panic recovery, metrics,
// compression, CORS, security headers, identity, idempotency and rate
// limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/Izzudinalqassam/techops-dashboard/docs"
	"github.com/Izzudinalqassam/techops-dashboard/internal/config"
	"github.com/Izzudinalqassam/techops-dashboard/internal/domain"
	"github.com/Izzudinalqassam/techops-dashboard/internal/http/handlers"
	"github.com/Izzudinalqassam/techops-dashboard/internal/http/middleware"
	"github.com/Izzudinalqassam/techops-dashboard/internal/repo"
)

// maxBodyBytes caps request bodies for every endpoint.
const maxBodyBytes = 1 << 20

// idempotencyStore adapts the repo idempotency functions to
// handlers.IdempotencyStore and middleware.IdempotencyLookup.
type idempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// Find proxies repo.GetIdempotency.
func (s idempotencyStore) Find(ctx context.Context, actorID uint, scope, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, s.db, actorID, scope, key, now)
}

// Save proxies repo.CreateIdempotency with the configured TTL.
func (s idempotencyStore) Save(ctx context.Context, actorID uint, scope, key string, resourceID uint, status int, now time.Time) error {
	_, err := repo.CreateIdempotency(ctx, s.db, actorID, scope, key, resourceID, status, now, s.ttl)
	return err
}

// lookup reports a live record; a missing one is not an error.
func (s idempotencyStore) lookup(ctx context.Context, actorID uint, scope, key string, now time.Time) (bool, error) {
	_, err := s.Find(ctx, actorID, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// RegisterRoutes attaches middleware and endpoints to r. svc serves the
// request API; db backs idempotency records.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: request-scoped logger, access log with PII scrubbing
//  4. Recovery: capture panics after the logger is attached
//  5. Body size limit, metrics, gzip
//  6. CORS and security headers
//
// The API group then adds Identity, the idempotency validator and the rate
// limiter, in that order, so replays can bypass the limiter.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, svc handlers.RequestService, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	idem := idempotencyStore{db: db, ttl: cfg.IdempotencyTTL}
	h := handlers.NewRequestHandler(svc, idem)
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByActorOrIP())

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(
		middleware.Identity(),
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idem.lookup),
		rl.Handler(),
	)
	{
		api.POST("/requests", h.CreateRequest)
		api.GET("/requests", h.ListRequests)
		api.GET("/requests/by-number/:number", h.GetRequestByNumber)
		api.GET("/requests/:id", h.GetRequest)
		api.PATCH("/requests/:id", h.UpdateRequest)
		api.DELETE("/requests/:id", h.DeleteRequest)
		api.POST("/requests/:id/status", h.TransitionStatus)
		api.POST("/requests/:id/work-logs", h.AddWorkLog)
	}
}

// corsMiddleware allows every origin when allowed is empty; otherwise it
// echoes allow-listed origins.
func corsMiddleware(allowed []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match",
			middleware.HeaderUserID, middleware.HeaderUserRole, middleware.HeaderIdempotencyKey,
		},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", middleware.HeaderIdempotencyReplayed},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(allowed) == 0 {
		base.AllowAllOrigins = true
		return []gin.HandlerFunc{
			// ACAO is also set for requests without Origin (health checks, curl).
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	base.AllowOrigins = allowed
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := set[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(base),
	}
}

// limitBody caps the request body at maxBytes; reads past it fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
