package model

// ChatRequest 提交一轮对话
type ChatRequest struct {
	ConversationID string `json:"conversationId" binding:"required"` // 对话ID（必填）
	Input          string `json:"input" binding:"required"`          // 用户输入（必填，非空）
}

// CreateConversationRequest 创建对话请求
type CreateConversationRequest struct {
	Title string `json:"title,omitempty"` // 为空时使用 DefaultConversationTitle
}

// RenameConversationRequest 重命名对话请求
type RenameConversationRequest struct {
	ID    string `json:"id" binding:"required"`
	Title string `json:"title" binding:"required"`
}

// DeleteConversationRequest 删除对话请求
type DeleteConversationRequest struct {
	ID string `json:"id" binding:"required"`
}
