package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"parley/internal/pkg/ctxutil"
	"parley/internal/pkg/ratelimit"
	"parley/internal/pkg/response"
)

// RateLimit 按用户限流，需挂在 Auth 之后；未认证请求按客户端 IP 计数
func RateLimit(limiter *ratelimit.KeyedLimiter, perMinute int) gin.HandlerFunc {
	retryAfter := "60"
	if perMinute > 0 {
		retryAfter = strconv.Itoa((60 + perMinute - 1) / perMinute)
	}

	return func(c *gin.Context) {
		key, ok := ctxutil.GetUserID(c.Request.Context())
		if !ok {
			key = "ip:" + c.ClientIP()
		}

		if !limiter.Allow(key) {
			log.Warn().Str("key", key).Str("path", c.Request.URL.Path).Msg("rate limited")
			c.Header("Retry-After", retryAfter)
			response.Abort(c, http.StatusTooManyRequests, response.CodeTooManyRequests, "Too many requests")
			return
		}

		c.Next()
	}
}
