package common

import "github.com/gin-gonic/gin"

// Context keys set by middleware.
const (
	ContextKeyRequestID = "requestID"
	ContextKeyUserID    = "userID"
)

// UserID returns the calling user's id resolved by the user middleware.
func UserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

// RequestID returns the request correlation id.
func RequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}
