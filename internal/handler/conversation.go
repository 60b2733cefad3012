package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"parley/internal/model"
	"parley/internal/pkg/response"
	"parley/internal/service"
)

// ConversationHandler 对话管理处理器
type ConversationHandler struct {
	svc *service.ConversationService
}

// NewConversationHandler 创建对话管理处理器
func NewConversationHandler(svc *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

// List 获取对话列表
// @Summary      对话列表
// @Description  返回当前用户的全部对话（含消息），最近更新的在前
// @Tags         对话
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   model.Conversation
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /api/conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	convs, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, convs)
}

// Get 获取对话详情
// @Summary      对话详情
// @Tags         对话
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "对话ID"
// @Success      200  {object}  model.Conversation
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/conversations/{id} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	conv, err := h.svc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, conv)
}

// Create 创建对话
// @Summary      创建对话
// @Description  创建空对话，未指定标题时为 "New Conversation"
// @Tags         对话
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      model.CreateConversationRequest  false  "创建请求"
// @Success      200      {object}  model.Conversation
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /api/conversations [post]
func (h *ConversationHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	// 请求体可以为空
	var req model.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Abort(c, http.StatusBadRequest, response.CodeBadRequest, "Invalid request body", err.Error())
		return
	}

	conv, err := h.svc.Create(c.Request.Context(), userID, req.Title)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, conv)
}

// Rename 重命名对话
// @Summary      重命名对话
// @Tags         对话
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      model.RenameConversationRequest  true  "重命名请求"
// @Success      200      {object}  model.RenameConversationResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /api/conversations [patch]
func (h *ConversationHandler) Rename(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.RenameConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Abort(c, http.StatusBadRequest, response.CodeBadRequest, "Invalid request body", err.Error())
		return
	}

	if err := h.svc.Rename(c.Request.Context(), userID, req.ID, req.Title); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.RenameConversationResponse{
		ID:    req.ID,
		Title: req.Title,
	})
}

// Delete 删除对话
// @Summary      删除对话
// @Tags         对话
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      model.DeleteConversationRequest  true  "删除请求"
// @Success      200      {object}  model.DeleteConversationResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /api/conversations [delete]
func (h *ConversationHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.DeleteConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Abort(c, http.StatusBadRequest, response.CodeBadRequest, "Invalid request body", err.Error())
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userID, req.ID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.DeleteConversationResponse{Success: true})
}
