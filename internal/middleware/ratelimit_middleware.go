package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gebeya-market/internal/ratelimit"
	"gebeya-market/internal/transport/httpdto"
)

// Paths never rate limited.
var exemptPaths = map[string]bool{
	"/ping":   true,
	"/health": true,
}

// RateLimitMiddleware applies the sliding-window limiter to every request,
// picking the policy by route class. When the counter store is down the
// limiter fails open and no rate limit headers are set.
func RateLimitMiddleware(limiter *ratelimit.Limiter, trustProxy bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if exemptPaths[path] {
			c.Next()
			return
		}

		class := ratelimit.ClassForPath(path)
		addr := ratelimit.ClientAddr(c.Request, trustProxy)
		result := limiter.Admit(c.Request.Context(), ratelimit.Fingerprint(addr, path), class)

		if !result.FailedOpen {
			c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
		}

		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(result.Window.Seconds())))
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("too many requests, please try again later", "RATE_LIMITED"))
			c.Abort()
			return
		}

		c.Next()
	}
}
