package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"parley/internal/ai"
	"parley/internal/model"
	"parley/internal/pkg/id"
	"parley/internal/repository"
)

var errStoreDown = errors.New("store down")

// memStore 内存版 ConversationStore，可按消息注入写失败
type memStore struct {
	mu    sync.Mutex
	convs map[string]*model.Conversation

	failAppend func(msg model.Message) bool
	failGet    error
}

func newMemStore() *memStore {
	return &memStore{convs: make(map[string]*model.Conversation)}
}

func (s *memStore) seed(ownerID string, msgs ...model.Message) *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	conv := &model.Conversation{
		ID:        id.New(),
		UserID:    ownerID,
		Title:     model.DefaultConversationTitle,
		Messages:  append([]model.Message{}, msgs...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.convs[conv.ID] = conv
	return conv
}

func (s *memStore) messages(convID string) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message{}, s.convs[convID].Messages...)
}

func (s *memStore) copyOf(conv *model.Conversation) *model.Conversation {
	cp := *conv
	cp.Messages = append([]model.Message{}, conv.Messages...)
	return &cp
}

func (s *memStore) List(ctx context.Context, ownerID string) ([]*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Conversation, 0)
	for _, conv := range s.convs {
		if conv.UserID == ownerID {
			out = append(out, s.copyOf(conv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *memStore) Get(ctx context.Context, ownerID, convID string) (*model.Conversation, error) {
	if s.failGet != nil {
		return nil, s.failGet
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[convID]
	if !ok || conv.UserID != ownerID {
		return nil, repository.ErrConversationNotFound
	}
	return s.copyOf(conv), nil
}

func (s *memStore) Create(ctx context.Context, ownerID, title string) (*model.Conversation, error) {
	conv := s.seed(ownerID)
	s.mu.Lock()
	conv.Title = title
	s.mu.Unlock()
	return s.copyOf(conv), nil
}

func (s *memStore) AppendMessage(ctx context.Context, convID string, msg model.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.failAppend != nil && s.failAppend(msg) {
		return errStoreDown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[convID]
	if !ok {
		return repository.ErrConversationNotFound
	}
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = msg.CreatedAt
	return nil
}

func (s *memStore) Rename(ctx context.Context, ownerID, convID, title string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[convID]
	if !ok || conv.UserID != ownerID {
		return false, nil
	}
	conv.Title = title
	return true, nil
}

func (s *memStore) Delete(ctx context.Context, ownerID, convID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[convID]
	if !ok || conv.UserID != ownerID {
		return 0, nil
	}
	delete(s.convs, convID)
	return 1, nil
}

func (s *memStore) Ping(ctx context.Context) error {
	return nil
}

// scriptedLLM 按脚本返回增量的 Completer
type scriptedLLM struct {
	chunks      []string
	streamErr   error
	completeErr error

	calls   int
	prompts []string
	stream  *ai.SliceStream
}

func (l *scriptedLLM) Complete(ctx context.Context, prompt string) (ai.Stream, error) {
	l.calls++
	l.prompts = append(l.prompts, prompt)
	if l.completeErr != nil {
		return nil, l.completeErr
	}
	l.stream = ai.NewSliceStream(l.chunks, l.streamErr)
	return l.stream, nil
}

// recvAll 读完整个 Turn，返回收到的增量与结束错误
func recvAll(turn *Turn) ([]string, error) {
	var chunks []string
	for {
		chunk, err := turn.Recv()
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, chunk)
	}
}
