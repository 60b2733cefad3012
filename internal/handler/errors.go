package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"parley/internal/pkg/ctxutil"
	"parley/internal/pkg/logger"
	"parley/internal/pkg/response"
	"parley/internal/service"
)

// ErrorResponse swagger 文档使用的错误响应
type ErrorResponse = response.ErrorResponse

// writeError 将业务错误映射为 HTTP 状态码与错误码
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.Abort(c, http.StatusBadRequest, response.CodeBadRequest, "Invalid request")
	case errors.Is(err, service.ErrConversationNotFound):
		response.Abort(c, http.StatusNotFound, response.CodeNotFound, "Conversation not found")
	case errors.Is(err, service.ErrTurnInProgress):
		response.Abort(c, http.StatusConflict, response.CodeConflict, "Another reply is still being generated for this conversation")
	case errors.Is(err, service.ErrUpstream):
		logger.FromContext(c.Request.Context()).Error().Err(err).Msg("upstream failure")
		response.Abort(c, http.StatusBadGateway, response.CodeUpstream, "Completion provider failed")
	default:
		logger.FromContext(c.Request.Context()).Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		response.Abort(c, http.StatusInternalServerError, response.CodeInternal, "Internal server error")
	}
}

// currentUser 读取 Auth 中间件注入的用户 ID
func currentUser(c *gin.Context) (string, bool) {
	userID, ok := ctxutil.GetUserID(c.Request.Context())
	if !ok || userID == "" {
		response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized")
		return "", false
	}
	return userID, true
}
