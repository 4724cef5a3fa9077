package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/summercamp/backend/pkg/response"
)

// RateLimit returns a fixed-window per-IP rate limiter backed by Redis.
// When Redis is unreachable the request is allowed through; limiting is a
// protection, not a dependency of the registration flow.
func RateLimit(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := fmt.Sprintf("ratelimit:%s:%s:%d",
			c.FullPath(), c.ClientIP(), time.Now().Unix()/int64(window.Seconds()))

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limit check failed, allowing request", zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			client.Expire(ctx, key, window)
		}
		if count > int64(limit) {
			response.TooManyRequests(c, "too many requests, please retry later")
			c.Abort()
			return
		}
		c.Next()
	}
}
