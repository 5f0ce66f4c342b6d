package service

import (
	"context"
	"math"
	"time"

	"github.com/KDim67/boostflow-backend/internal/common"
	"github.com/KDim67/boostflow-backend/internal/domain"
	"github.com/KDim67/boostflow-backend/internal/repository"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Pusher delivers live events to a user's open connections
type Pusher interface {
	PushToUser(userID, eventType string, payload interface{})
}

// Live notification event types
const (
	EventNotification = "notification"
	EventUnreadCount  = "unread_count"
)

// NotificationService handles notification business logic
type NotificationService struct {
	repo   repository.NotificationRepository
	pusher Pusher
}

// NewNotificationService creates a new NotificationService. pusher may be nil.
func NewNotificationService(repo repository.NotificationRepository, pusher Pusher) *NotificationService {
	return &NotificationService{repo: repo, pusher: pusher}
}

func notificationMetadata(m domain.NotificationMetadata) datatypes.JSONType[domain.NotificationMetadata] {
	return datatypes.NewJSONType(m)
}

// Create stores a notification and pushes it to the recipient
func (s *NotificationService) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	s.push(ctx, n.UserID, n)
	return n, nil
}

// UpdatePreview replaces the preview text of an existing notification and bumps updated_at
func (s *NotificationService) UpdatePreview(ctx context.Context, n *domain.Notification, preview string) error {
	if err := s.repo.UpdateMessage(ctx, n.ID, preview); err != nil {
		return err
	}
	n.Message = preview
	if fresh, err := s.repo.FindByID(ctx, n.ID); err == nil && fresh != nil {
		*n = *fresh
	}
	s.push(ctx, n.UserID, n)
	return nil
}

// ListRecent returns a bounded page of the user's most recently updated notifications
func (s *NotificationService) ListRecent(ctx context.Context, userID string, limit int, includeHidden bool) ([]*domain.Notification, error) {
	return s.repo.FindRecent(ctx, userID, limit, includeHidden)
}

// GetUnreadCount returns the unread notification count for a user
func (s *NotificationService) GetUnreadCount(ctx context.Context, userID string) (*domain.NotificationSummaryResponse, error) {
	count, err := s.repo.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.NotificationSummaryResponse{TotalUnread: int(count)}, nil
}

// GetList returns paginated notifications for a user
func (s *NotificationService) GetList(ctx context.Context, userID string, page, limit int) (*domain.NotificationListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	offset := (page - 1) * limit
	notifications, total, err := s.repo.GetList(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}

	unreadCount, err := s.repo.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]domain.NotificationItem, len(notifications))
	for i, n := range notifications {
		items[i] = toNotificationItem(n)
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	return &domain.NotificationListResponse{
		Items:       items,
		Total:       total,
		UnreadCount: unreadCount,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
	}, nil
}

// MarkAsRead marks a notification as read after ownership check
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	if err := s.checkOwner(ctx, userID, notificationID); err != nil {
		return err
	}
	if err := s.repo.MarkAsRead(ctx, notificationID); err != nil {
		return err
	}
	s.pushUnreadCount(ctx, userID)
	return nil
}

// MarkAllAsRead marks all notifications as read for a user
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllAsRead(ctx, userID); err != nil {
		return err
	}
	s.pushUnreadCount(ctx, userID)
	return nil
}

// Hide removes a notification from the user's list after ownership check
func (s *NotificationService) Hide(ctx context.Context, userID, notificationID string) error {
	if err := s.checkOwner(ctx, userID, notificationID); err != nil {
		return err
	}
	return s.repo.Hide(ctx, notificationID)
}

// Delete deletes a notification after ownership check
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	if err := s.checkOwner(ctx, userID, notificationID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, notificationID); err != nil {
		return err
	}
	s.pushUnreadCount(ctx, userID)
	return nil
}

func (s *NotificationService) checkOwner(ctx context.Context, userID, notificationID string) error {
	n, err := s.repo.FindByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n == nil {
		return common.ErrNotificationNotFound
	}
	if n.UserID != userID {
		return common.ErrForbidden
	}
	return nil
}

func (s *NotificationService) push(ctx context.Context, userID string, n *domain.Notification) {
	if s.pusher == nil {
		return
	}
	s.pusher.PushToUser(userID, EventNotification, toNotificationItem(n))
	s.pushUnreadCount(ctx, userID)
}

func (s *NotificationService) pushUnreadCount(ctx context.Context, userID string) {
	if s.pusher == nil {
		return
	}
	count, err := s.repo.GetUnreadCount(ctx, userID)
	if err != nil {
		return
	}
	s.pusher.PushToUser(userID, EventUnreadCount, &domain.NotificationSummaryResponse{TotalUnread: int(count)})
}

func toNotificationItem(n *domain.Notification) domain.NotificationItem {
	return domain.NotificationItem{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Metadata:  n.Meta(),
		Read:      n.Read,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: n.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
