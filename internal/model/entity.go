package model

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultConversationTitle 新建对话未指定标题时使用
const DefaultConversationTitle = "New Conversation"

// Role 消息角色（封闭枚举）
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid 检查角色是否有效
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Label 返回拼接 prompt 时使用的说话人名称
func (r Role) Label() string {
	if r == RoleAssistant {
		return "Assistant"
	}
	return "User"
}

// Conversation 对话实体
// ID 使用 UUID 字符串，Mongo 与 SQLite 两种存储共用同一 ID 空间
type Conversation struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"userId"`
	Title     string    `bson:"title" json:"title"`
	Messages  []Message `bson:"messages" json:"messages"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Collection 返回集合名称
func (c *Conversation) Collection() string {
	return "conversations"
}

// EnsureIndexes 创建和维护索引
// 列表按 owner + updated_at 倒序查询，单条查询按 _id + user_id
func (c *Conversation) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(c.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{bson.E{Key: "user_id", Value: 1}, bson.E{Key: "updated_at", Value: -1}},
			Options: options.Index().SetName("idx_user_updated"),
		},
		{
			Keys:    bson.D{bson.E{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_created"),
		},
	}

	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}

// Message 消息，追加后不可修改
type Message struct {
	Role      Role      `bson:"role" json:"role"`
	Text      string    `bson:"text" json:"text"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// NewMessage 以当前时间创建消息
func NewMessage(role Role, text string) Message {
	return Message{
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}
}
