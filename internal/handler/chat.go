package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"parley/internal/model"
	"parley/internal/pkg/logger"
	"parley/internal/pkg/response"
	"parley/internal/service"
)

// ChatHandler 对话轮次处理器
type ChatHandler struct {
	svc *service.ChatService
}

// NewChatHandler 创建对话轮次处理器
func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Chat 提交一轮对话并流式返回回复
// @Summary      发送消息
// @Description  保存用户消息，调用模型并以 text/plain 流式返回回复，结束后保存完整回复。
// @Description  开始输出后模型失败时连接被中断，客户端看到的是不完整的响应。
// @Tags         对话
// @Accept       json
// @Produce      plain
// @Security     BearerAuth
// @Param        request  body      model.ChatRequest  true  "对话请求"
// @Success      200      {string}  string             "回复文本（分块传输）"
// @Failure      400      {object}  ErrorResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Failure      429      {object}  ErrorResponse
// @Failure      502      {object}  ErrorResponse
// @Router       /api/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Abort(c, http.StatusBadRequest, response.CodeBadRequest, "Invalid request body", err.Error())
		return
	}

	ctx := c.Request.Context()
	turn, err := h.svc.SubmitTurn(ctx, userID, req.ConversationID, req.Input)
	if err != nil {
		writeError(c, err)
		return
	}
	// 客户端断开时由 Close 读完剩余增量并落库，错误已在 service 层记录
	defer func() { _ = turn.Close() }()

	w := c.Writer
	started := false
	for {
		chunk, err := turn.Recv()
		if errors.Is(err, io.EOF) {
			if !started {
				startStream(w)
			}
			return
		}
		if err != nil {
			if !started {
				writeError(c, err)
				return
			}
			// 已经输出过内容，中断连接让客户端感知失败
			logger.FromContext(ctx).Warn().Err(err).Str("conversation_id", turn.ConversationID()).Msg("aborting chat stream")
			panic(http.ErrAbortHandler)
		}

		if !started {
			startStream(w)
			started = true
		}
		if chunk != "" {
			if _, err := w.WriteString(chunk); err != nil {
				return
			}
		}
		w.Flush()
	}
}

func startStream(w gin.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	w.Flush()
}
