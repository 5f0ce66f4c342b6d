package repository

import (
	"context"
	"errors"

	"github.com/KDim67/boostflow-backend/internal/domain"
	"gorm.io/gorm"
)

// NotificationRepository notification data access interface
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	FindByID(ctx context.Context, id string) (*domain.Notification, error)
	FindRecent(ctx context.Context, userID string, limit int, includeHidden bool) ([]*domain.Notification, error)
	GetList(ctx context.Context, userID string, offset, limit int) ([]*domain.Notification, int64, error)
	GetUnreadCount(ctx context.Context, userID string) (int64, error)
	UpdateMessage(ctx context.Context, id, message string) error
	MarkAsRead(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context, userID string) error
	Hide(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// Create inserts a new notification
func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

// FindByID returns a notification by ID
func (r *notificationRepository) FindByID(ctx context.Context, id string) (*domain.Notification, error) {
	var n domain.Notification
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

// FindRecent returns the most recently touched notifications of a user
func (r *notificationRepository) FindRecent(ctx context.Context, userID string, limit int, includeHidden bool) ([]*domain.Notification, error) {
	tx := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if !includeHidden {
		tx = tx.Where("is_hidden = ?", false)
	}
	var notifications []*domain.Notification
	err := tx.Order("updated_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

// GetList returns paginated visible notifications for a user
func (r *notificationRepository) GetList(ctx context.Context, userID string, offset, limit int) ([]*domain.Notification, int64, error) {
	var notifications []*domain.Notification
	var total int64

	if err := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND is_hidden = ?", userID, false).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_hidden = ?", userID, false).
		Order("updated_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// GetUnreadCount returns the number of unread notifications for a user
func (r *notificationRepository) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ? AND is_hidden = ?", userID, false, false).
		Count(&count).Error
	return count, err
}

// UpdateMessage replaces the preview text; updated_at is bumped by the store
func (r *notificationRepository) UpdateMessage(ctx context.Context, id, message string) error {
	return r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"message": message}).Error
}

// MarkAsRead marks a notification as read
func (r *notificationRepository) MarkAsRead(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

// MarkAllAsRead marks all notifications as read for a user
func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

// Hide removes a notification from the visible list without deleting it
func (r *notificationRepository) Hide(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("id = ?", id).
		Update("is_hidden", true).Error
}

// Delete deletes a notification by ID
func (r *notificationRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Notification{}).Error
}
