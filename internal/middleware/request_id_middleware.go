package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/gin-gonic/gin"

	"gebeya-market/pkg/logger"
)

const requestIdHeader = "X-Request-Id"

// RequestIdMiddleware tags every request with an id, honoring one supplied
// by the client or proxy.
func RequestIdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestId := c.GetHeader(requestIdHeader)
		if requestId == "" {
			requestId = newRequestId()
		}

		ctx := context.WithValue(c.Request.Context(), logger.RequestIdKey, requestId)
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIdHeader, requestId)
		c.Next()
	}
}

func newRequestId() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(buf)
}
