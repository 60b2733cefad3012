package component

import (
	"context"
	"fmt"

	arkext "github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"parley/internal/config"
)

const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderArk    = "ark"
	ProviderOllama = "ollama"
)

// RequiresAPIKey provider 是否需要 API Key（本地 ollama 不需要）
func RequiresAPIKey(provider string) bool {
	return provider != ProviderOllama
}

// NewChatModel 创建 ChatModel
// 支持多种 Provider: openai, azure, ark, ollama
func NewChatModel(ctx context.Context, cfg *config.AIConfig) (model.ChatModel, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return newOpenAIChatModel(ctx, cfg)
	case ProviderAzure:
		return newAzureChatModel(ctx, cfg)
	case ProviderArk:
		return newArkChatModel(ctx, cfg)
	case ProviderOllama:
		return newOllamaChatModel(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

// newOpenAIChatModel 创建 OpenAI ChatModel
func newOpenAIChatModel(ctx context.Context, cfg *config.AIConfig) (model.ChatModel, error) {
	modelCfg := &openai.ChatModelConfig{
		Model:  cfg.Model,
		APIKey: cfg.APIKey,
	}

	// Base URL (用于代理或兼容 API)
	if cfg.BaseURL != "" {
		modelCfg.BaseURL = cfg.BaseURL
	}

	if cfg.Options.Temperature > 0 {
		temp := float32(cfg.Options.Temperature)
		modelCfg.Temperature = &temp
	}
	if cfg.Options.MaxTokens > 0 {
		maxTokens := cfg.Options.MaxTokens
		modelCfg.MaxTokens = &maxTokens
	}
	if cfg.Options.TopP > 0 {
		topP := float32(cfg.Options.TopP)
		modelCfg.TopP = &topP
	}

	return openai.NewChatModel(ctx, modelCfg)
}

// newAzureChatModel 创建 Azure OpenAI ChatModel
func newAzureChatModel(ctx context.Context, cfg *config.AIConfig) (model.ChatModel, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ai.base_url is required for provider %s", ProviderAzure)
	}

	modelCfg := &openai.ChatModelConfig{
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		ByAzure: true,
	}

	if cfg.Options.Temperature > 0 {
		temp := float32(cfg.Options.Temperature)
		modelCfg.Temperature = &temp
	}
	if cfg.Options.MaxTokens > 0 {
		maxTokens := cfg.Options.MaxTokens
		modelCfg.MaxTokens = &maxTokens
	}

	return openai.NewChatModel(ctx, modelCfg)
}

// newArkChatModel 创建 Ark ChatModel（火山方舟）
func newArkChatModel(ctx context.Context, cfg *config.AIConfig) (model.ChatModel, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://ark.cn-beijing.volces.com/api/v3"
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "doubao-seed-1-6-flash-250615"
	}

	modelCfg := &arkext.ChatModelConfig{
		Model:   modelName,
		APIKey:  cfg.APIKey,
		BaseURL: baseURL,
	}

	if cfg.Options.Temperature > 0 {
		temp := float32(cfg.Options.Temperature)
		modelCfg.Temperature = &temp
	}
	if cfg.Options.MaxTokens > 0 {
		maxTokens := cfg.Options.MaxTokens
		modelCfg.MaxTokens = &maxTokens
	}
	if cfg.Options.TopP > 0 {
		topP := float32(cfg.Options.TopP)
		modelCfg.TopP = &topP
	}

	return arkext.NewChatModel(ctx, modelCfg)
}

// newOllamaChatModel 创建本地 Ollama ChatModel
func newOllamaChatModel(ctx context.Context, cfg *config.AIConfig) (model.ChatModel, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: baseURL,
		Model:   cfg.Model,
	})
}
