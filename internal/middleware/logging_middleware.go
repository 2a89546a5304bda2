package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"gebeya-market/pkg/logger"
)

// LoggingMiddleware emits one structured line per completed request.
func LoggingMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		l.WithContext(c.Request.Context()).Sugar().Infof(
			"%s %s -> %d (%s)",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start),
		)
	}
}
