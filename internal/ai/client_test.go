package ai

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	. "github.com/smartystreets/goconvey/convey"

	"parley/internal/config"
)

// fakeChatModel 记录收到的消息，并按脚本返回流
type fakeChatModel struct {
	chunks    []string
	streamErr error // Stream 调用本身失败
	midErr    error // 发送完 chunks 后的流错误
	received  []*schema.Message
}

func (m *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return nil, errors.New("not used")
}

func (m *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.received = input
	if m.streamErr != nil {
		return nil, m.streamErr
	}

	sr, sw := schema.Pipe[*schema.Message](len(m.chunks) + 1)
	go func() {
		defer sw.Close()
		for _, c := range m.chunks {
			sw.Send(schema.AssistantMessage(c, nil), nil)
		}
		if m.midErr != nil {
			sw.Send(nil, m.midErr)
		}
	}()
	return sr, nil
}

func drain(s Stream) ([]string, error) {
	var out []string
	for {
		chunk, err := s.Recv()
		if err != nil {
			return out, err
		}
		out = append(out, chunk)
	}
}

func TestClient_Complete(t *testing.T) {
	Convey("Client.Complete", t, func() {
		ctx := context.Background()
		cfg := &config.AIConfig{Provider: "openai", Model: "gpt-4.1"}

		Convey("prompt 作为单条 user 消息发送，增量按顺序返回", func() {
			fake := &fakeChatModel{chunks: []string{"4", "", "."}}
			client := NewClientWithModel(cfg, fake)

			stream, err := client.Complete(ctx, "User: What is 2+2?\n\nAssistant:")
			So(err, ShouldBeNil)
			defer stream.Close()

			chunks, err := drain(stream)
			So(err, ShouldEqual, io.EOF)
			So(chunks, ShouldResemble, []string{"4", "", "."})
			So(fake.received, ShouldHaveLength, 1)
			So(fake.received[0].Role, ShouldEqual, schema.User)
			So(fake.received[0].Content, ShouldEqual, "User: What is 2+2?\n\nAssistant:")
		})

		Convey("流中途出错时先返回已有增量再返回错误", func() {
			boom := errors.New("upstream reset")
			client := NewClientWithModel(cfg, &fakeChatModel{chunks: []string{"The answer"}, midErr: boom})

			stream, err := client.Complete(ctx, "prompt")
			So(err, ShouldBeNil)
			defer stream.Close()

			chunks, err := drain(stream)
			So(chunks, ShouldResemble, []string{"The answer"})
			So(errors.Is(err, boom), ShouldBeTrue)
		})

		Convey("Stream 调用失败直接返回错误", func() {
			client := NewClientWithModel(cfg, &fakeChatModel{streamErr: errors.New("401")})
			_, err := client.Complete(ctx, "prompt")
			So(err, ShouldNotBeNil)
		})

		Convey("空 prompt 被拒绝", func() {
			client := NewClientWithModel(cfg, &fakeChatModel{})
			_, err := client.Complete(ctx, "")
			So(err, ShouldNotBeNil)
		})

		Convey("未配置 API Key 时进入 mock 模式", func() {
			client, err := NewClient(ctx, &config.AIConfig{Provider: "openai"})
			So(err, ShouldBeNil)
			So(client.Mock(), ShouldBeTrue)

			stream, err := client.Complete(ctx, "The following is a conversation.\n\nUser: hi\n\nAssistant:")
			So(err, ShouldBeNil)
			chunks, err := drain(stream)
			So(err, ShouldEqual, io.EOF)
			So(len(chunks), ShouldBeGreaterThan, 1)
		})
	})
}

func TestSliceStream(t *testing.T) {
	Convey("SliceStream", t, func() {
		Convey("片段耗尽后返回配置的错误", func() {
			boom := errors.New("boom")
			s := NewSliceStream([]string{"a", "b"}, boom)
			chunks, err := drain(s)
			So(chunks, ShouldResemble, []string{"a", "b"})
			So(err, ShouldEqual, boom)
		})

		Convey("关闭后返回 io.EOF", func() {
			s := NewSliceStream([]string{"a", "b"}, nil)
			s.Close()
			So(s.Closed(), ShouldBeTrue)
			_, err := s.Recv()
			So(err, ShouldEqual, io.EOF)
		})
	})
}
