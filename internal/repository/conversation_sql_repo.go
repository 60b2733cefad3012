package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"parley/internal/model"
	"parley/internal/pkg/id"
)

// conversationRow conversations 表
type conversationRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:191;not null;index:idx_user_updated,priority:1"`
	Title     string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null;index:idx_user_updated,priority:2"`
}

func (conversationRow) TableName() string {
	return "conversations"
}

// messageRow messages 表，自增主键即插入顺序
type messageRow struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement"`
	ConversationID string    `gorm:"size:36;not null;index"`
	Role           string    `gorm:"size:16;not null"`
	Text           string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"not null"`
}

func (messageRow) TableName() string {
	return "messages"
}

// ConversationSQLRepo 基于 gorm 的对话仓库（SQLite）
// 对话与消息分表存放，追加消息与刷新 updated_at 在同一事务内完成
type ConversationSQLRepo struct {
	db *gorm.DB
}

// NewConversationSQLRepo 创建 SQL 对话仓库
func NewConversationSQLRepo(db *gorm.DB) *ConversationSQLRepo {
	return &ConversationSQLRepo{db: db}
}

// AutoMigrate 创建表与索引
func (r *ConversationSQLRepo) AutoMigrate() error {
	return r.db.AutoMigrate(&conversationRow{}, &messageRow{})
}

// List 查询用户的全部对话，按最近更新时间倒序
func (r *ConversationSQLRepo) List(ctx context.Context, ownerID string) ([]*model.Conversation, error) {
	var rows []conversationRow
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	convs := make([]*model.Conversation, 0, len(rows))
	if len(rows) == 0 {
		return convs, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	var msgs []messageRow
	if err := r.db.WithContext(ctx).
		Where("conversation_id IN ?", ids).
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}

	grouped := make(map[string][]model.Message, len(rows))
	for _, m := range msgs {
		grouped[m.ConversationID] = append(grouped[m.ConversationID], toMessage(m))
	}

	for _, row := range rows {
		convs = append(convs, toConversation(row, grouped[row.ID]))
	}
	return convs, nil
}

// Get 按 owner + ID 查询
func (r *ConversationSQLRepo) Get(ctx context.Context, ownerID, convID string) (*model.Conversation, error) {
	var row conversationRow
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", convID, ownerID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}

	var msgs []messageRow
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}

	messages := make([]model.Message, 0, len(msgs))
	for _, m := range msgs {
		messages = append(messages, toMessage(m))
	}
	return toConversation(row, messages), nil
}

// Create 创建空对话
func (r *ConversationSQLRepo) Create(ctx context.Context, ownerID, title string) (*model.Conversation, error) {
	now := time.Now()
	row := conversationRow{
		ID:        id.New(),
		UserID:    ownerID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	return toConversation(row, nil), nil
}

// AppendMessage 追加消息并刷新 updated_at
func (r *ConversationSQLRepo) AppendMessage(ctx context.Context, convID string, msg model.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&conversationRow{}).
			Where("id = ?", convID).
			Update("updated_at", time.Now())
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConversationNotFound
		}

		return tx.Create(&messageRow{
			ConversationID: convID,
			Role:           string(msg.Role),
			Text:           msg.Text,
			CreatedAt:      msg.CreatedAt,
		}).Error
	})
}

// Rename 修改标题，返回是否命中对话
func (r *ConversationSQLRepo) Rename(ctx context.Context, ownerID, convID, title string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&conversationRow{}).
		Where("id = ? AND user_id = ?", convID, ownerID).
		Updates(map[string]interface{}{
			"title":      title,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Delete 删除对话及其消息，返回删除数量（0 或 1）
func (r *ConversationSQLRepo) Delete(ctx context.Context, ownerID, convID string) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", convID, ownerID).Delete(&conversationRow{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		if deleted == 0 {
			return nil
		}
		return tx.Where("conversation_id = ?", convID).Delete(&messageRow{}).Error
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// Ping 检查连接可用
func (r *ConversationSQLRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func toConversation(row conversationRow, messages []model.Message) *model.Conversation {
	if messages == nil {
		messages = []model.Message{}
	}
	return &model.Conversation{
		ID:        row.ID,
		UserID:    row.UserID,
		Title:     row.Title,
		Messages:  messages,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func toMessage(row messageRow) model.Message {
	return model.Message{
		Role:      model.Role(row.Role),
		Text:      row.Text,
		CreatedAt: row.CreatedAt,
	}
}
