// Package middleware carries request-scoped identity and correlation data.
//
// Authentication happens at the gateway. The gateway forwards the caller's
// user id and role in X-User-ID and X-User-Role; this service trusts them.
package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"

	RoleAdmin = "admin"
)

type contextKey string

// RequestIDKey is the context key holding the request correlation id.
const RequestIDKey contextKey = "request_id"

const (
	userIDKey   = "user_id"
	userRoleKey = "user_role"
)

// RequestID reuses the incoming X-Request-ID or assigns a new one, and stores
// it on both the gin context and the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		c.Header(HeaderRequestID, id)
		c.Set(string(RequestIDKey), id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), RequestIDKey, id))
		c.Next()
	}
}

// RequestIDFrom returns the correlation id stored by RequestID, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Identity requires a positive numeric X-User-ID.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := strconv.ParseInt(c.GetHeader(HeaderUserID), 10, 64)
		if err != nil || userID <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		c.Set(userIDKey, userID)
		c.Set(userRoleKey, c.GetHeader(HeaderUserRole))
		c.Next()
	}
}

// RequireAdmin must run after Identity.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(userRoleKey) != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

// UserID returns the caller set by Identity, or 0.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}

// SetUserID is used by tests that call handlers without the Identity middleware.
func SetUserID(c *gin.Context, userID int64) {
	c.Set(userIDKey, userID)
}
