package id

import (
	"github.com/google/uuid"
)

// New 生成新的UUID（string格式），用作对话 ID、请求 ID、锁令牌
func New() string {
	return uuid.New().String()
}

// IsValid 验证UUID格式是否有效
// 格式非法的对话 ID 不可能存在于存储中，可直接按 NotFound 处理
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
