package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"parley/internal/ai"
	"parley/internal/config"
	"parley/internal/model"
	"parley/internal/pkg/lock"
	"parley/internal/pkg/logger"
	"parley/internal/repository"
)

const persistTimeout = 10 * time.Second

// ChatService 对话轮次编排 - 业务逻辑层
// 职责: 加载历史 -> 落库用户消息 -> 拼接 prompt -> 流式调用模型 -> 落库助手消息
type ChatService struct {
	store         ConversationStore
	llm           Completer
	locker        lock.Locker // 为 nil 时不做并发保护
	streamTimeout time.Duration
}

// NewChatService 创建对话服务
func NewChatService(store ConversationStore, llm Completer, locker lock.Locker, cfg *config.ChatConfig) *ChatService {
	timeout := config.DefaultStreamTimeout
	if cfg != nil {
		timeout = cfg.TurnTimeout()
	}
	return &ChatService{
		store:         store,
		llm:           llm,
		locker:        locker,
		streamTimeout: timeout,
	}
}

// StreamTimeout 单轮流式生成的超时
func (s *ChatService) StreamTimeout() time.Duration {
	return s.streamTimeout
}

// SubmitTurn 提交一轮对话
// 返回的 Turn 需要调用方逐个 Recv 增量，并且无论成败都必须 Close
// 返回错误时没有任何需要释放的资源
func (s *ChatService) SubmitTurn(ctx context.Context, ownerID, conversationID, input string) (*Turn, error) {
	if ownerID == "" || conversationID == "" || strings.TrimSpace(input) == "" {
		return nil, ErrInvalidInput
	}

	lg := logger.FromContext(ctx).With().Str("conversation_id", conversationID).Logger()

	release := func() {}
	if s.locker != nil {
		r, err := s.locker.Acquire(ctx, conversationID)
		if errors.Is(err, lock.ErrLocked) {
			return nil, ErrTurnInProgress
		}
		if err != nil {
			return nil, fmt.Errorf("acquire turn lock: %w", err)
		}
		release = r
	}

	turn, err := s.startTurn(ctx, lg, ownerID, conversationID, input, release)
	if err != nil {
		release()
		return nil, err
	}
	return turn, nil
}

func (s *ChatService) startTurn(ctx context.Context, lg zerolog.Logger, ownerID, conversationID, input string, release func()) (*Turn, error) {
	// 1. 加载历史，不存在与不属于当前用户同样处理
	conv, err := s.store.Get(ctx, ownerID, conversationID)
	if errors.Is(err, repository.ErrConversationNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	// 2. prompt 只包含本轮之前的历史
	prompt := BuildPrompt(conv.Messages, input)

	// 3. 先落库用户消息，写失败则不调用模型
	if err := s.store.AppendMessage(ctx, conversationID, model.NewMessage(model.RoleUser, input)); err != nil {
		lg.Error().Err(err).Msg("failed to persist user message")
		return nil, fmt.Errorf("%w: append user message: %v", ErrPersistence, err)
	}

	// 4. 模型调用与后续落库脱离请求上下文，客户端断开不影响本轮完成
	detached := context.WithoutCancel(ctx)
	streamCtx, cancel := context.WithTimeout(detached, s.streamTimeout)

	stream, err := s.llm.Complete(streamCtx, prompt)
	if err != nil {
		cancel()
		lg.Error().Err(err).Msg("completion request failed")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	lg.Debug().Int("history", len(conv.Messages)).Int("prompt_len", len(prompt)).Msg("turn started")

	return &Turn{
		conversationID: conversationID,
		store:          s.store,
		stream:         stream,
		persistCtx:     detached,
		cancel:         cancel,
		release:        release,
		logger:         lg,
		startedAt:      time.Now(),
	}, nil
}

// Turn 一轮进行中的对话
// 非并发安全，只应由处理该请求的 goroutine 使用
type Turn struct {
	conversationID string
	store          ConversationStore
	stream         ai.Stream
	persistCtx     context.Context
	cancel         context.CancelFunc
	release        func()
	logger         zerolog.Logger
	startedAt      time.Time

	buf        strings.Builder
	increments int
	done       bool
	err        error // 结束后 Recv 的返回值: io.EOF 或包装了 ErrUpstream 的错误
	persistErr error
	closed     bool
}

// ConversationID 本轮所属对话
func (t *Turn) ConversationID() string {
	return t.conversationID
}

// Recv 返回下一个增量
// 正常结束返回 io.EOF；模型中途失败返回包装了 ErrUpstream 的错误
// 两种情况下助手消息都已在返回前处理完毕
func (t *Turn) Recv() (string, error) {
	if t.done {
		return "", t.err
	}

	chunk, err := t.stream.Recv()
	if err == nil {
		t.buf.WriteString(chunk)
		t.increments++
		return chunk, nil
	}

	if errors.Is(err, io.EOF) {
		t.finish(nil)
	} else {
		t.finish(err)
	}
	return "", t.err
}

// Text 目前为止累积的助手文本
func (t *Turn) Text() string {
	return t.buf.String()
}

// Increments 已收到的增量个数（包括空增量）
func (t *Turn) Increments() int {
	return t.increments
}

// Close 结束本轮
// 调用方未读完的增量会在这里读完并累积，然后落库；可重复调用
// 返回助手消息的落库错误，该错误不影响已经发给客户端的内容
func (t *Turn) Close() error {
	if t.closed {
		return t.persistErr
	}
	t.closed = true

	drained := 0
	for !t.done {
		if _, err := t.Recv(); err != nil {
			break
		}
		drained++
	}
	if drained > 0 {
		t.logger.Info().Int("drained", drained).Msg("caller stopped reading, turn drained")
	}

	return t.persistErr
}

func (t *Turn) finish(streamErr error) {
	t.done = true
	t.err = io.EOF

	if streamErr != nil {
		t.err = fmt.Errorf("%w: %v", ErrUpstream, streamErr)
		t.logger.Error().Err(streamErr).Int("increments", t.increments).Msg("completion stream failed")
	}

	// 中途失败且一个增量都没有收到时不写助手消息
	if streamErr == nil || t.increments > 0 {
		t.persist()
	}

	t.stream.Close()
	t.cancel()
	t.release()

	if streamErr == nil {
		t.logger.Info().
			Int("increments", t.increments).
			Int("reply_len", t.buf.Len()).
			Dur("duration", time.Since(t.startedAt)).
			Msg("turn completed")
	}
}

func (t *Turn) persist() {
	ctx, cancel := context.WithTimeout(t.persistCtx, persistTimeout)
	defer cancel()

	msg := model.NewMessage(model.RoleAssistant, t.buf.String())
	if err := t.store.AppendMessage(ctx, t.conversationID, msg); err != nil {
		t.persistErr = fmt.Errorf("%w: append assistant message: %v", ErrPersistence, err)
		t.logger.Error().Err(err).Msg("failed to persist assistant message")
	}
}
