package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"parley/internal/pkg/response"
)

// Recovery 异常恢复中间件
// http.ErrAbortHandler 用于流式响应中途中断连接，需要继续向上抛给 net/http
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}

				log.Error().
					Interface("error", err).
					Str("path", c.Request.URL.Path).
					Str("method", c.Request.Method).
					Str("request_id", c.GetString("request_id")).
					Msg("panic recovered")

				if c.Writer.Written() {
					c.Abort()
					return
				}
				response.Abort(c, http.StatusInternalServerError, response.CodeInternal, "Internal Server Error")
			}
		}()
		c.Next()
	}
}
