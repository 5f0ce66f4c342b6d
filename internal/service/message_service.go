package service

import (
	"context"
	"strings"

	"github.com/KDim67/boostflow-backend/internal/common"
	"github.com/KDim67/boostflow-backend/internal/domain"
	"github.com/KDim67/boostflow-backend/internal/events"
	"github.com/KDim67/boostflow-backend/internal/realtime"
	"github.com/KDim67/boostflow-backend/internal/repository"
	"github.com/KDim67/boostflow-backend/pkg/logger"
	"github.com/google/uuid"
)

// MessageService message log business logic
type MessageService interface {
	SendMessage(ctx context.Context, channelID, author, content string, opts domain.SendOptions) (*domain.Message, error)
	GetMessages(ctx context.Context, channelID string, q domain.MessageQuery) ([]*domain.Message, error)
	GetMessage(ctx context.Context, id string) (*domain.Message, error)
	EditMessage(ctx context.Context, id, content string) (*domain.Message, error)
	DeleteMessage(ctx context.Context, id string) bool
	PinMessage(ctx context.Context, id string) bool
	UnpinMessage(ctx context.Context, id string) bool
	ListPinned(ctx context.Context, channelID string) ([]*domain.Message, error)
}

type messageService struct {
	messages      repository.MessageRepository
	channels      repository.ChannelRepository
	dm            *DMNotifier
	notifications *NotificationService
	opts          options
}

// NewMessageService creates a new MessageService. dm and notifications may be nil.
func NewMessageService(
	messages repository.MessageRepository,
	channels repository.ChannelRepository,
	dm *DMNotifier,
	notifications *NotificationService,
	opts ...Option,
) MessageService {
	return &messageService{
		messages:      messages,
		channels:      channels,
		dm:            dm,
		notifications: notifications,
		opts:          newOptions(opts),
	}
}

func newMessageID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// SendMessage appends a message. Channel activity, DM coalescing, reply counts
// and mention notifications are best-effort and never fail the send.
func (s *messageService) SendMessage(ctx context.Context, channelID, author, content string, opts domain.SendOptions) (*domain.Message, error) {
	if author == "" || strings.TrimSpace(content) == "" {
		return nil, common.ErrInvalidInput
	}

	ch, err := s.channels.FindByID(ctx, channelID)
	if err != nil {
		return nil, common.NewPersistenceError("get channel", err)
	}
	if ch == nil {
		return nil, common.ErrChannelNotFound
	}
	if opts.ThreadID != "" {
		root, err := s.messages.FindByID(ctx, opts.ThreadID)
		if err != nil {
			return nil, common.NewPersistenceError("get thread root", err)
		}
		// replies must stay in the root's channel
		if root == nil || root.ChannelID != channelID {
			return nil, common.ErrInvalidInput
		}
	}

	msg := &domain.Message{
		ID:        newMessageID(),
		ChannelID: channelID,
		Content:   content,
		Author:    author,
		Mentions:  opts.Mentions,
	}
	if opts.AuthorName != "" {
		name := opts.AuthorName
		msg.AuthorName = &name
	}
	if opts.ThreadID != "" {
		thread := opts.ThreadID
		msg.ThreadID = &thread
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, common.NewPersistenceError("create message", err)
	}
	messagesSent.Inc()

	s.opts.effects.Do(ctx, "touch_channel_activity", func(ctx context.Context) error {
		return s.channels.TouchActivity(ctx, channelID, s.opts.now())
	})

	if ch.IsDirectMessage() && s.dm != nil {
		s.opts.effects.Do(ctx, "dm_notification", func(ctx context.Context) error {
			return s.dm.Notify(ctx, ch, msg)
		})
	}

	if msg.ThreadID != nil {
		s.opts.effects.Do(ctx, "increment_reply_count", func(ctx context.Context) error {
			return s.messages.IncrementReplyCount(ctx, *msg.ThreadID)
		})
	}

	s.notifyMentions(ctx, ch, msg)

	s.opts.realtime.Notify(ctx, realtime.MessagesTopic(channelID))
	s.opts.realtime.Notify(ctx, realtime.ChannelsTopic(ch.OrganizationID))
	s.opts.events.Publish(events.TopicMessageSent, channelID, map[string]interface{}{
		"channel_id": channelID,
		"message_id": msg.ID,
		"author":     author,
	})
	return msg, nil
}

// notifyMentions notifies mentioned users other than the author.
// Private channels only notify their members.
func (s *messageService) notifyMentions(ctx context.Context, ch *domain.Channel, msg *domain.Message) {
	if s.notifications == nil || len(msg.Mentions) == 0 {
		return
	}
	seen := make(map[string]struct{}, len(msg.Mentions))
	for _, userID := range msg.Mentions {
		if userID == "" || userID == msg.Author {
			continue
		}
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		if ch.Type == domain.ChannelPrivate && !ch.HasMember(userID) {
			continue
		}

		recipient := userID
		s.opts.effects.Do(ctx, "mention_notification", func(ctx context.Context) error {
			_, err := s.notifications.Create(ctx, &domain.Notification{
				UserID:  recipient,
				Type:    domain.NotificationMention,
				Title:   "You were mentioned in #" + ch.Name,
				Message: TruncatePreview(msg.Content, DefaultPreviewLength),
				Metadata: notificationMetadata(domain.NotificationMetadata{
					SenderID:  msg.Author,
					ChannelID: ch.ID,
					MessageID: msg.ID,
				}),
			})
			return err
		})
	}
}

// GetMessages returns the most recent messages within the window, oldest first
func (s *messageService) GetMessages(ctx context.Context, channelID string, q domain.MessageQuery) ([]*domain.Message, error) {
	msgs, err := s.messages.FindRecent(ctx, channelID, q.WithDefaults())
	if err != nil {
		return nil, common.NewPersistenceError("get messages", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// GetMessage returns nil, nil when the message does not exist
func (s *messageService) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	msg, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return nil, common.NewPersistenceError("get message", err)
	}
	return msg, nil
}

// EditMessage replaces the content and marks the message edited.
// Returns nil, nil if the message no longer exists.
func (s *messageService) EditMessage(ctx context.Context, id, content string) (*domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, common.ErrInvalidInput
	}

	found, err := s.messages.UpdateContent(ctx, id, content)
	if err != nil {
		return nil, common.NewPersistenceError("edit message", err)
	}
	if !found {
		return nil, nil
	}

	msg, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return nil, common.NewPersistenceError("get message", err)
	}
	if msg == nil {
		return nil, nil
	}

	s.opts.realtime.Notify(ctx, realtime.MessagesTopic(msg.ChannelID))
	s.opts.events.Publish(events.TopicMessageEdited, msg.ChannelID, map[string]interface{}{
		"channel_id": msg.ChannelID,
		"message_id": msg.ID,
	})
	return msg, nil
}

// DeleteMessage hard-deletes a message. Returns false if it is missing or the delete fails.
func (s *messageService) DeleteMessage(ctx context.Context, id string) bool {
	log := logger.GetLogger().With().Str("message_id", id).Logger()

	msg, err := s.messages.FindByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("delete message: load")
		return false
	}
	if msg == nil {
		return false
	}

	deleted, err := s.messages.Delete(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("delete message")
		return false
	}
	if !deleted {
		return false
	}

	s.opts.realtime.Notify(ctx, realtime.MessagesTopic(msg.ChannelID))
	s.opts.events.Publish(events.TopicMessageDeleted, msg.ChannelID, map[string]interface{}{
		"channel_id": msg.ChannelID,
		"message_id": id,
	})
	return true
}

// PinMessage marks a message pinned
func (s *messageService) PinMessage(ctx context.Context, id string) bool {
	return s.setPinned(ctx, id, true)
}

// UnpinMessage clears the pinned flag
func (s *messageService) UnpinMessage(ctx context.Context, id string) bool {
	return s.setPinned(ctx, id, false)
}

func (s *messageService) setPinned(ctx context.Context, id string, pinned bool) bool {
	ok, err := s.messages.SetPinned(ctx, id, pinned)
	if err != nil {
		logger.GetLogger().Error().Err(err).Str("message_id", id).Bool("pinned", pinned).Msg("set pinned")
		return false
	}
	if !ok {
		return false
	}

	if msg, err := s.messages.FindByID(ctx, id); err == nil && msg != nil {
		s.opts.realtime.Notify(ctx, realtime.MessagesTopic(msg.ChannelID))
		s.opts.events.Publish(events.TopicMessagePinned, msg.ChannelID, map[string]interface{}{
			"channel_id": msg.ChannelID,
			"message_id": id,
			"pinned":     pinned,
		})
	}
	return true
}

// ListPinned returns the channel's pinned messages, oldest first
func (s *messageService) ListPinned(ctx context.Context, channelID string) ([]*domain.Message, error) {
	msgs, err := s.messages.FindPinned(ctx, channelID)
	if err != nil {
		return nil, common.NewPersistenceError("list pinned", err)
	}
	return msgs, nil
}
