package repository

import "errors"

// ErrConversationNotFound 对话不存在，或不属于调用方（两者不做区分）
var ErrConversationNotFound = errors.New("conversation not found")
