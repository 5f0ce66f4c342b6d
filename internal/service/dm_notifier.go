package service

import (
	"context"
	"unicode/utf8"

	"github.com/KDim67/boostflow-backend/internal/domain"
)

// Coalescing defaults
const (
	DefaultNotificationScanLimit = 50
	DefaultPreviewLength         = 50
)

// ProfileLookup resolves display names
type ProfileLookup interface {
	FindByID(ctx context.Context, userID string) (*domain.UserProfile, error)
}

// DMNotifier keeps at most one unread direct message notification per
// (recipient, sender) pair. Later messages refresh its preview instead of
// adding rows; once it is read the next message starts a new one.
type DMNotifier struct {
	notifications *NotificationService
	profiles      ProfileLookup
	scanLimit     int
	previewLength int
}

// NewDMNotifier creates a DMNotifier. profiles may be nil.
func NewDMNotifier(notifications *NotificationService, profiles ProfileLookup, scanLimit, previewLength int) *DMNotifier {
	if scanLimit <= 0 {
		scanLimit = DefaultNotificationScanLimit
	}
	if previewLength <= 0 {
		previewLength = DefaultPreviewLength
	}
	return &DMNotifier{
		notifications: notifications,
		profiles:      profiles,
		scanLimit:     scanLimit,
		previewLength: previewLength,
	}
}

// Notify records msg against the other member of the DM channel ch
func (d *DMNotifier) Notify(ctx context.Context, ch *domain.Channel, msg *domain.Message) error {
	recipient, ok := ch.CounterpartOf(msg.Author)
	if !ok {
		return nil
	}
	preview := TruncatePreview(msg.Content, d.previewLength)

	// hidden rows are scanned too so a hidden unread notification is still reused
	recent, err := d.notifications.ListRecent(ctx, recipient, d.scanLimit, true)
	if err != nil {
		return err
	}
	for _, n := range recent {
		if n.Type == domain.NotificationDirectMessage && !n.Read && n.Meta().SenderID == msg.Author {
			if err := d.notifications.UpdatePreview(ctx, n, preview); err != nil {
				return err
			}
			notificationsCoalesced.WithLabelValues("updated").Inc()
			return nil
		}
	}

	_, err = d.notifications.Create(ctx, &domain.Notification{
		UserID:  recipient,
		Type:    domain.NotificationDirectMessage,
		Title:   "New message from " + d.senderName(ctx, msg),
		Message: preview,
		Metadata: notificationMetadata(domain.NotificationMetadata{
			SenderID:  msg.Author,
			ChannelID: ch.ID,
			MessageID: msg.ID,
		}),
	})
	if err != nil {
		return err
	}
	notificationsCoalesced.WithLabelValues("created").Inc()
	return nil
}

func (d *DMNotifier) senderName(ctx context.Context, msg *domain.Message) string {
	if msg.AuthorName != nil && *msg.AuthorName != "" {
		return *msg.AuthorName
	}
	if d.profiles != nil {
		if p, err := d.profiles.FindByID(ctx, msg.Author); err == nil && p != nil && p.DisplayName != "" {
			return p.DisplayName
		}
	}
	return msg.Author
}

// TruncatePreview cuts content to limit runes and appends "..." when shortened
func TruncatePreview(content string, limit int) string {
	if utf8.RuneCountInString(content) <= limit {
		return content
	}
	runes := []rune(content)
	return string(runes[:limit]) + "..."
}
