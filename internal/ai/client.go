package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"parley/internal/ai/component"
	"parley/internal/config"
)

// Client 补全能力层客户端
// 职责: 把整段 prompt 交给 ChatModel，以增量流的形式返回回复
type Client struct {
	cfg       *config.AIConfig
	chatModel model.BaseChatModel // nil 表示 mock 模式
}

// NewClient 创建 AI 客户端
// 未配置 API Key 且 provider 需要 Key 时进入 mock 模式
func NewClient(ctx context.Context, cfg *config.AIConfig) (*Client, error) {
	if cfg.APIKey == "" && component.RequiresAPIKey(cfg.Provider) {
		log.Warn().Str("provider", cfg.Provider).Msg("AI API key not configured, using mock mode")
		return &Client{cfg: cfg}, nil
	}

	chatModel, err := component.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	return NewClientWithModel(cfg, chatModel), nil
}

// NewClientWithModel 使用已构造的 ChatModel 创建客户端
func NewClientWithModel(cfg *config.AIConfig, chatModel model.BaseChatModel) *Client {
	return &Client{
		cfg:       cfg,
		chatModel: chatModel,
	}
}

// Mock 是否处于 mock 模式
func (c *Client) Mock() bool {
	return c.chatModel == nil
}

// Complete 以流式方式请求补全
// prompt 作为单条 user 消息发送，历史已由调用方拼入 prompt
func (c *Client) Complete(ctx context.Context, prompt string) (Stream, error) {
	if prompt == "" {
		return nil, errors.New("empty prompt")
	}

	if c.chatModel == nil {
		return mockStream(prompt), nil
	}

	messages := []*schema.Message{
		schema.UserMessage(prompt),
	}

	reader, err := c.chatModel.Stream(ctx, messages)
	if err != nil {
		return nil, err
	}
	return newMessageStream(reader), nil
}

// mockStream 模拟流式响应
func mockStream(prompt string) Stream {
	reply := "Hello! This is a mock response. "
	if strings.Count(prompt, "\n\nUser: ") > 1 {
		reply += "I can see you have conversation history. "
	}
	reply += "Configure ai.api_key to talk to a real model."

	words := strings.SplitAfter(reply, " ")
	return NewSliceStream(words, nil)
}
