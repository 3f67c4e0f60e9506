package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"soundbridge/internal/dbmysql"
)

type ChatRepository interface {
	Save(ctx context.Context, msg *dbmysql.Message) error
	ByID(ctx context.Context, id string) (*dbmysql.Message, error)
	ListForUser(ctx context.Context, userID string) ([]*dbmysql.Message, error)
	ListBetween(ctx context.Context, userA, userB string, limit int) ([]*dbmysql.Message, error)
	MarkManyRead(ctx context.Context, ids []string) error
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
}

type chatRepo struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepo{db: db}
}

func (r *chatRepo) Save(ctx context.Context, msg *dbmysql.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

func (r *chatRepo) ByID(ctx context.Context, id string) (*dbmysql.Message, error) {
	var msg dbmysql.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Recipient").
		Where("id = ?", id).
		First(&msg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &msg, nil
}

// ListForUser returns every message the user sent or received, newest
// first, with both profiles joined. Conversation grouping happens in
// the service layer.
func (r *chatRepo) ListForUser(ctx context.Context, userID string) ([]*dbmysql.Message, error) {
	var messages []*dbmysql.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Recipient").
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// ListBetween returns the thread between two users, oldest first.
func (r *chatRepo) ListBetween(ctx context.Context, userA, userB string, limit int) ([]*dbmysql.Message, error) {
	var messages []*dbmysql.Message
	query := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Recipient").
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userA, userB, userB, userA).
		Order("created_at ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to list conversation messages: %w", err)
	}
	return messages, nil
}

func (r *chatRepo) MarkManyRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	now := time.Now()
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Message{}).
		Where("id IN ? AND is_read = ?", ids, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": &now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

func (r *chatRepo) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Message{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}
