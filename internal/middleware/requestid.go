package middleware

import (
	"fieldnotify/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID injects a unique request ID into every request context and response header.
// An incoming ID is reused so a business request and the events it emits share one ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(common.ContextKeyRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
