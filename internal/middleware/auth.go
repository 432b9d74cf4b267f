package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"fieldnotify/internal/common"

	"github.com/gin-gonic/gin"
)

const (
	apiKeyHeader = "X-API-Key"
	userIDHeader = "X-User-ID"
)

// Auth returns middleware that validates the X-API-Key header against configured keys.
// Callers are the platform's own services and its gateway, not end users.
func Auth(validKeys []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(apiKeyHeader)
		if apiKey == "" {
			common.Error(c, http.StatusUnauthorized, "missing X-API-Key header")
			c.Abort()
			return
		}

		if !isValidKey(apiKey, validKeys) {
			common.Error(c, http.StatusUnauthorized, "invalid API key")
			c.Abort()
			return
		}

		c.Next()
	}
}

// User returns middleware that requires the X-User-ID header set by the
// gateway after it authenticated the end user, and stores it on the context.
func User() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(userIDHeader))
		if userID == "" {
			common.Error(c, http.StatusUnauthorized, "missing X-User-ID header")
			c.Abort()
			return
		}

		c.Set(common.ContextKeyUserID, userID)
		c.Next()
	}
}

// isValidKey checks the provided key against the list of valid keys using constant-time comparison.
func isValidKey(key string, validKeys []string) bool {
	for _, valid := range validKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(valid)) == 1 {
			return true
		}
	}
	return false
}
