// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the acting user. Authentication happens upstream (gateway
// or auth proxy); by the time a request reaches this service the caller's id
// and role travel in X-User-ID and X-User-Role. Identity() turns them into a
// domain.Actor and rejects requests that carry no usable id.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Izzudinalqassam/techops-dashboard/internal/domain"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	ctxKeyActor = "actor"
	defaultRole = "engineer"
)

// Identity requires a positive integer X-User-ID and stores the actor in the
// Gin context. X-User-Role is optional and defaults to "engineer".
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderUserID))
		id, err := strconv.ParseUint(raw, 10, 64)
		if raw == "" || err != nil || id == 0 || id > uint64(^uint(0)) {
			rid, _ := c.Get(requestIDKey)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": asString(rid),
				"code":       "unauthorized",
				"message":    "missing or invalid " + HeaderUserID,
			})
			return
		}
		role := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderUserRole)))
		if role == "" {
			role = defaultRole
		}

		actor := domain.Actor{ID: uint(id), Role: role}
		c.Set(ctxKeyActor, actor)

		lg := LoggerFrom(c).With().Uint("actor_id", actor.ID).Str("actor_role", actor.Role).Logger()
		attachLogger(c, &lg)

		c.Next()
	}
}

// ActorFrom returns the actor stored by Identity.
func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(ctxKeyActor)
	if !ok {
		return domain.Actor{}, false
	}
	a, ok := v.(domain.Actor)
	return a, ok && a.ID != 0
}
