package service

import (
	"context"

	"parley/internal/ai"
	"parley/internal/model"
)

// ConversationStore 对话存储契约
// 由 repository.ConversationRepo (MongoDB) 与 repository.ConversationSQLRepo (SQLite) 实现
// Get/Rename/Delete 以 owner 为作用域；不存在或不属于 owner 均返回 repository.ErrConversationNotFound
type ConversationStore interface {
	List(ctx context.Context, ownerID string) ([]*model.Conversation, error)
	Get(ctx context.Context, ownerID, convID string) (*model.Conversation, error)
	Create(ctx context.Context, ownerID, title string) (*model.Conversation, error)
	AppendMessage(ctx context.Context, convID string, msg model.Message) error
	Rename(ctx context.Context, ownerID, convID, title string) (bool, error)
	Delete(ctx context.Context, ownerID, convID string) (int64, error)
	Ping(ctx context.Context) error
}

// Completer 补全提供方契约，由 ai.Client 实现
type Completer interface {
	Complete(ctx context.Context, prompt string) (ai.Stream, error)
}
