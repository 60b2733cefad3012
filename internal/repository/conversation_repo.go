package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"parley/internal/model"
	"parley/internal/pkg/id"
)

// ConversationRepo MongoDB 对话仓库
// 每个对话是一个文档，消息以数组形式内嵌，追加使用 $push 保证单次原子写
type ConversationRepo struct {
	collection *mongo.Collection
}

// NewConversationRepo 创建对话仓库
func NewConversationRepo(db *mongo.Database) *ConversationRepo {
	return &ConversationRepo{
		collection: db.Collection((&model.Conversation{}).Collection()),
	}
}

// List 查询用户的全部对话，按最近更新时间倒序
func (r *ConversationRepo) List(ctx context.Context, ownerID string) ([]*model.Conversation, error) {
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "updated_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	convs := make([]*model.Conversation, 0)
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, err
	}
	for _, conv := range convs {
		normalize(conv)
	}

	return convs, nil
}

// Get 按 owner + ID 查询
func (r *ConversationRepo) Get(ctx context.Context, ownerID, convID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.collection.FindOne(ctx, bson.M{"_id": convID, "user_id": ownerID}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}

	normalize(&conv)
	return &conv, nil
}

// Create 创建空对话
func (r *ConversationRepo) Create(ctx context.Context, ownerID, title string) (*model.Conversation, error) {
	now := time.Now()
	conv := &model.Conversation{
		ID:        id.New(),
		UserID:    ownerID,
		Title:     title,
		Messages:  []model.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.collection.InsertOne(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// AppendMessage 追加消息并刷新 updated_at
func (r *ConversationRepo) AppendMessage(ctx context.Context, convID string, msg model.Message) error {
	update := bson.M{
		"$push": bson.M{"messages": msg},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateByID(ctx, convID, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrConversationNotFound
	}
	return nil
}

// Rename 修改标题，返回是否命中对话
func (r *ConversationRepo) Rename(ctx context.Context, ownerID, convID, title string) (bool, error) {
	update := bson.M{
		"$set": bson.M{"title": title, "updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": convID, "user_id": ownerID}, update)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// Delete 删除对话，返回删除数量（0 或 1）
func (r *ConversationRepo) Delete(ctx context.Context, ownerID, convID string) (int64, error) {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": convID, "user_id": ownerID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// Ping 检查连接可用
func (r *ConversationRepo) Ping(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, readpref.Primary())
}

func normalize(conv *model.Conversation) {
	if conv.Messages == nil {
		conv.Messages = []model.Message{}
	}
}
