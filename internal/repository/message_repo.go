package repository

import (
	"context"
	"errors"
	"time"

	"github.com/KDim67/boostflow-backend/internal/domain"
	"gorm.io/gorm"
)

// MessageRepository message data access interface
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	FindByID(ctx context.Context, id string) (*domain.Message, error)
	FindRecent(ctx context.Context, channelID string, q domain.MessageQuery) ([]*domain.Message, error)
	FindPinned(ctx context.Context, channelID string) ([]*domain.Message, error)
	UpdateContent(ctx context.Context, id, content string) (bool, error)
	SetPinned(ctx context.Context, id string, pinned bool) (bool, error)
	IncrementReplyCount(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByChannel(ctx context.Context, channelID string) error
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create appends a message; created_at is assigned by the store at write time
func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	msg.CreatedAt = time.Time{}
	msg.UpdatedAt = nil
	return r.db.WithContext(ctx).Create(msg).Error
}

// FindByID returns nil, nil when the message does not exist
func (r *messageRepository) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	var msg domain.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// FindRecent returns up to q.Limit messages newest-first within the optional window
func (r *messageRepository) FindRecent(ctx context.Context, channelID string, q domain.MessageQuery) ([]*domain.Message, error) {
	q = q.WithDefaults()

	tx := r.db.WithContext(ctx).Where("channel_id = ?", channelID)
	if q.Before != nil {
		tx = tx.Where("created_at < ?", *q.Before)
	}
	if q.After != nil {
		tx = tx.Where("created_at > ?", *q.After)
	}

	var messages []*domain.Message
	err := tx.Order("created_at DESC").
		Order("id DESC").
		Limit(q.Limit).
		Find(&messages).Error
	return messages, err
}

// FindPinned returns pinned messages oldest-first
func (r *messageRepository) FindPinned(ctx context.Context, channelID string) ([]*domain.Message, error) {
	var messages []*domain.Message
	err := r.db.WithContext(ctx).
		Where("channel_id = ? AND is_pinned = ?", channelID, true).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	return messages, err
}

// UpdateContent replaces content and marks the message edited
func (r *messageRepository) UpdateContent(ctx context.Context, id, content string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"content":    content,
			"is_edited":  true,
			"updated_at": r.db.NowFunc(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetPinned sets is_pinned; false when the message does not exist
func (r *messageRepository) SetPinned(ctx context.Context, id string, pinned bool) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("id = ?", id).
		UpdateColumn("is_pinned", pinned)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}
	msg, err := r.FindByID(ctx, id)
	return msg != nil, err
}

// IncrementReplyCount bumps the reply counter of a thread root
func (r *messageRepository) IncrementReplyCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("id = ?", id).
		UpdateColumn("reply_count", gorm.Expr("reply_count + ?", 1)).Error
}

// Delete hard-deletes a message
func (r *messageRepository) Delete(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Message{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteByChannel removes every message of a channel
func (r *messageRepository) DeleteByChannel(ctx context.Context, channelID string) error {
	return r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Delete(&domain.Message{}).Error
}
