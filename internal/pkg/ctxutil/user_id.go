package ctxutil

import "context"

type ctxKey int

const (
	userIDKey ctxKey = iota
	requestIDKey
)

// WithUserID 将已认证的 owner id 注入 context（由 Auth 中间件调用）
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID 从 context 中解析 owner id，第二个返回值表示是否存在
func GetUserID(ctx context.Context) (string, bool) {
	return stringValue(ctx, userIDKey)
}

// WithRequestID 将请求 ID 注入 context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID 从 context 中解析请求 ID
func GetRequestID(ctx context.Context) (string, bool) {
	return stringValue(ctx, requestIDKey)
}

func stringValue(ctx context.Context, key ctxKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(key).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
