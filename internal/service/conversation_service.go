package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"parley/internal/model"
	"parley/internal/repository"
)

// ConversationService 对话管理（列表/详情/创建/重命名/删除）
type ConversationService struct {
	store ConversationStore
}

// NewConversationService 创建对话管理服务
func NewConversationService(store ConversationStore) *ConversationService {
	return &ConversationService{store: store}
}

// List 列出用户的全部对话，最近更新的在前
func (s *ConversationService) List(ctx context.Context, ownerID string) ([]*model.Conversation, error) {
	convs, err := s.store.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// Get 获取单个对话
func (s *ConversationService) Get(ctx context.Context, ownerID, convID string) (*model.Conversation, error) {
	if convID == "" {
		return nil, ErrInvalidInput
	}
	conv, err := s.store.Get(ctx, ownerID, convID)
	if errors.Is(err, repository.ErrConversationNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

// Create 创建空对话，标题为空白时使用默认标题；标题按原样保存
func (s *ConversationService) Create(ctx context.Context, ownerID, title string) (*model.Conversation, error) {
	if strings.TrimSpace(title) == "" {
		title = model.DefaultConversationTitle
	}

	conv, err := s.store.Create(ctx, ownerID, title)
	if err != nil {
		return nil, fmt.Errorf("%w: create conversation: %v", ErrPersistence, err)
	}

	log.Info().Str("user_id", ownerID).Str("conversation_id", conv.ID).Msg("conversation created")
	return conv, nil
}

// Rename 重命名对话，标题按原样保存，空白标题视为非法
func (s *ConversationService) Rename(ctx context.Context, ownerID, convID, title string) error {
	if convID == "" || strings.TrimSpace(title) == "" {
		return ErrInvalidInput
	}

	ok, err := s.store.Rename(ctx, ownerID, convID, title)
	if err != nil {
		return fmt.Errorf("%w: rename conversation: %v", ErrPersistence, err)
	}
	if !ok {
		return ErrConversationNotFound
	}
	return nil
}

// Delete 删除对话及其全部消息
func (s *ConversationService) Delete(ctx context.Context, ownerID, convID string) error {
	if convID == "" {
		return ErrInvalidInput
	}

	n, err := s.store.Delete(ctx, ownerID, convID)
	if err != nil {
		return fmt.Errorf("%w: delete conversation: %v", ErrPersistence, err)
	}
	if n == 0 {
		return ErrConversationNotFound
	}

	log.Info().Str("user_id", ownerID).Str("conversation_id", convID).Msg("conversation deleted")
	return nil
}

// Ping 检查存储是否可用
func (s *ConversationService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
