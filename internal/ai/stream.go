package ai

import (
	"io"

	"github.com/cloudwego/eino/schema"
)

// Stream 增量文本流（拉模式）
// Recv 依次返回文本增量，结束时返回 io.EOF；其他错误表示上游失败
type Stream interface {
	Recv() (string, error)
	Close()
}

// messageStream 将 eino 的 StreamReader 适配为 Stream
type messageStream struct {
	reader *schema.StreamReader[*schema.Message]
}

func newMessageStream(reader *schema.StreamReader[*schema.Message]) *messageStream {
	return &messageStream{reader: reader}
}

func (s *messageStream) Recv() (string, error) {
	msg, err := s.reader.Recv()
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", nil
	}
	return msg.Content, nil
}

func (s *messageStream) Close() {
	s.reader.Close()
}

// SliceStream 由固定片段组成的流，片段耗尽后返回 Err（为 nil 时返回 io.EOF）
// 用于 mock 模式与测试
type SliceStream struct {
	Chunks []string
	Err    error

	pos    int
	closed bool
}

// NewSliceStream 创建固定片段流
func NewSliceStream(chunks []string, err error) *SliceStream {
	return &SliceStream{Chunks: chunks, Err: err}
}

func (s *SliceStream) Recv() (string, error) {
	if s.closed {
		return "", io.EOF
	}
	if s.pos < len(s.Chunks) {
		chunk := s.Chunks[s.pos]
		s.pos++
		return chunk, nil
	}
	if s.Err != nil {
		return "", s.Err
	}
	return "", io.EOF
}

func (s *SliceStream) Close() {
	s.closed = true
}

// Closed 是否已被关闭
func (s *SliceStream) Closed() bool {
	return s.closed
}
