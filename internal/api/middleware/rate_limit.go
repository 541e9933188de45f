package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bryan-besnyi/next-doorcard-sub000/pkg/redis"
	"github.com/bryan-besnyi/next-doorcard-sub000/pkg/response"
)

// RateLimit throttles callers with a Redis sliding window.
// limit: max requests per window. A nil rdb lets everything through,
// matching the JWTAuth degrade policy.
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s:%s", c.ClientIP(), c.FullPath())
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			// Redis errors degrade to allowing the request through.
			c.Next()
			return
		}

		if !allowed {
			response.Error(c, http.StatusTooManyRequests, 10004, "too many requests, slow down")
			c.Abort()
			return
		}

		c.Next()
	}
}
