package component

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"parley/internal/config"
)

func TestNewChatModel(t *testing.T) {
	Convey("NewChatModel 按 provider 构造模型", t, func() {
		ctx := context.Background()

		Convey("未知 provider 返回错误", func() {
			_, err := NewChatModel(ctx, &config.AIConfig{Provider: "unknown"})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unsupported AI provider")
		})

		Convey("azure 缺少 base_url 返回错误", func() {
			_, err := NewChatModel(ctx, &config.AIConfig{Provider: ProviderAzure, APIKey: "k", Model: "gpt"})
			So(err, ShouldNotBeNil)
		})

		Convey("openai 构造不发起网络请求", func() {
			m, err := NewChatModel(ctx, &config.AIConfig{
				Provider: ProviderOpenAI,
				APIKey:   "sk-test",
				Model:    "gpt-4.1",
				Options:  config.AIOptionsConfig{Temperature: 0.2, MaxTokens: 128, TopP: 0.9},
			})
			So(err, ShouldBeNil)
			So(m, ShouldNotBeNil)
		})

		Convey("只有 ollama 不需要 API Key", func() {
			So(RequiresAPIKey(ProviderOllama), ShouldBeFalse)
			So(RequiresAPIKey(ProviderOpenAI), ShouldBeTrue)
			So(RequiresAPIKey(ProviderArk), ShouldBeTrue)
		})
	})
}
