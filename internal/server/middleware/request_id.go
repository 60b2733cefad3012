package middleware

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"parley/internal/pkg/ctxutil"
	"parley/internal/pkg/id"
)

// RequestIDHeader 请求 ID 头
const RequestIDHeader = "X-Request-ID"

// RequestID 透传或生成请求 ID，写入响应头与 context
func RequestID() gin.HandlerFunc {
	return requestid.New(
		requestid.WithGenerator(id.New),
		requestid.WithHandler(func(c *gin.Context, requestID string) {
			c.Set("request_id", requestID)
			c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), requestID))
		}),
	)
}
