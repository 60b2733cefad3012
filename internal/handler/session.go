package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parley/internal/model"
	"parley/internal/pkg/response"
	"parley/internal/server/middleware"
)

// SessionHandler 会话信息处理器
// 会话由外部登录流程签发，这里只负责读取与清除
type SessionHandler struct {
	cookieName string
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(cookieName string) *SessionHandler {
	return &SessionHandler{cookieName: cookieName}
}

// Me 获取当前会话信息
// @Summary      当前会话
// @Tags         会话
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /api/session [get]
func (h *SessionHandler) Me(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized")
		return
	}

	info := model.SessionInfo{
		UserID: claims.UserID,
		Email:  claims.Email,
		Name:   claims.Name,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    info,
	})
}

// Logout 退出登录，清除浏览器会话 Cookie
// @Summary      退出登录
// @Tags         会话
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /api/logout [post]
func (h *SessionHandler) Logout(c *gin.Context) {
	if h.cookieName != "" {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(h.cookieName, "", -1, "/", "", c.Request.TLS != nil, true)
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "退出成功",
	})
}
