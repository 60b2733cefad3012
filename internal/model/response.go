package model

// RenameConversationResponse 重命名成功响应
type RenameConversationResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// DeleteConversationResponse 删除成功响应
type DeleteConversationResponse struct {
	Success bool `json:"success"`
}

// SessionInfo 当前会话信息
type SessionInfo struct {
	UserID    string `json:"userId"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"` // RFC3339
}
