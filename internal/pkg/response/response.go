package response

import "github.com/gin-gonic/gin"

// 业务错误码: HTTP 状态码 * 100 + 序号
const (
	CodeBadRequest      = 40001
	CodeUnauthorized    = 40101
	CodeTokenExpired    = 40102
	CodeNotFound        = 40401
	CodeConflict        = 40901
	CodeTooManyRequests = 42901
	CodeInternal        = 50001
	CodeUpstream        = 50201
	CodeUnavailable     = 50301
)

// ErrorResponse 错误响应（所有API共用）
type ErrorResponse struct {
	Code    int    `json:"code"`             // 错误码（非0表示错误）
	Message string `json:"message"`          // 错误消息
	Detail  string `json:"detail,omitempty"` // 错误详情（可选）
}

// NewErrorResponse 创建错误响应
func NewErrorResponse(code int, message string, detail ...string) *ErrorResponse {
	resp := &ErrorResponse{
		Code:    code,
		Message: message,
	}
	if len(detail) > 0 && detail[0] != "" {
		resp.Detail = detail[0]
	}
	return resp
}

// Abort 写入错误响应并终止后续 handler
func Abort(c *gin.Context, status, code int, message string, detail ...string) {
	c.AbortWithStatusJSON(status, NewErrorResponse(code, message, detail...))
}
