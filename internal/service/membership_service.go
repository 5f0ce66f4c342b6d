package service

import (
	"context"

	"github.com/KDim67/boostflow-backend/internal/common"
	"github.com/KDim67/boostflow-backend/internal/domain"
	"github.com/KDim67/boostflow-backend/internal/events"
	"github.com/KDim67/boostflow-backend/internal/realtime"
	"github.com/KDim67/boostflow-backend/internal/repository"
	"github.com/KDim67/boostflow-backend/pkg/logger"
)

// MembershipService membership manager business logic.
// Add, remove and mark-read report soft failures as false.
type MembershipService interface {
	AddMember(ctx context.Context, channelID, userID string, role domain.MemberRole) bool
	RemoveMember(ctx context.Context, channelID, userID string) bool
	ListMembers(ctx context.Context, channelID string) ([]*domain.Membership, error)
	MarkRead(ctx context.Context, channelID, userID string) bool
	IsMember(ctx context.Context, channelID, userID string) (bool, error)
	GetMembership(ctx context.Context, channelID, userID string) (*domain.Membership, error)
}

type membershipService struct {
	channels      repository.ChannelRepository
	memberships   repository.MembershipRepository
	notifications *NotificationService
	opts          options
}

// NewMembershipService creates a new MembershipService
func NewMembershipService(
	channels repository.ChannelRepository,
	memberships repository.MembershipRepository,
	notifications *NotificationService,
	opts ...Option,
) MembershipService {
	return &membershipService{
		channels:      channels,
		memberships:   memberships,
		notifications: notifications,
		opts:          newOptions(opts),
	}
}

// AddMember creates or overwrites the membership row, recomputes the channel's
// member list and notifies the new member. Direct message channels are refused.
func (s *membershipService) AddMember(ctx context.Context, channelID, userID string, role domain.MemberRole) bool {
	if role == "" {
		role = domain.RoleMember
	}
	if userID == "" || !role.Valid() {
		return false
	}

	log := logger.GetLogger().With().Str("channel_id", channelID).Str("user_id", userID).Logger()

	ch, err := s.channels.FindByID(ctx, channelID)
	if err != nil {
		log.Error().Err(err).Msg("add member: load channel")
		return false
	}
	if ch == nil || ch.IsDirect {
		return false
	}

	if err := s.memberships.Upsert(ctx, &domain.Membership{
		ChannelID: channelID,
		UserID:    userID,
		Role:      role,
	}); err != nil {
		log.Error().Err(err).Msg("add member: write membership")
		return false
	}

	s.opts.effects.Do(ctx, "recompute_member_ids", func(ctx context.Context) error {
		return s.recomputeMemberIDs(ctx, channelID)
	})

	// creators adding themselves are not notified
	if userID != ch.CreatedBy && s.notifications != nil {
		s.opts.effects.Do(ctx, "channel_added_notification", func(ctx context.Context) error {
			_, err := s.notifications.Create(ctx, &domain.Notification{
				UserID:  userID,
				Type:    domain.NotificationChannelAdded,
				Title:   "Added to #" + ch.Name,
				Message: "You were added to the channel " + ch.Name,
				Metadata: notificationMetadata(domain.NotificationMetadata{
					SenderID:  ch.CreatedBy,
					ChannelID: channelID,
				}),
			})
			return err
		})
	}

	s.opts.realtime.Notify(ctx, realtime.ChannelsTopic(ch.OrganizationID))
	s.opts.events.Publish(events.TopicMemberAdded, channelID, map[string]interface{}{
		"channel_id": channelID,
		"user_id":    userID,
		"role":       string(role),
	})
	return true
}

// RemoveMember deletes the membership row and recomputes the channel's member list.
// Direct message channels are refused.
func (s *membershipService) RemoveMember(ctx context.Context, channelID, userID string) bool {
	log := logger.GetLogger().With().Str("channel_id", channelID).Str("user_id", userID).Logger()

	ch, err := s.channels.FindByID(ctx, channelID)
	if err != nil {
		log.Error().Err(err).Msg("remove member: load channel")
		return false
	}
	if ch != nil && ch.IsDirect {
		return false
	}

	deleted, err := s.memberships.Delete(ctx, channelID, userID)
	if err != nil {
		log.Error().Err(err).Msg("remove member")
		return false
	}
	if !deleted {
		return false
	}

	s.opts.effects.Do(ctx, "recompute_member_ids", func(ctx context.Context) error {
		return s.recomputeMemberIDs(ctx, channelID)
	})

	if ch != nil {
		s.opts.realtime.Notify(ctx, realtime.ChannelsTopic(ch.OrganizationID))
	}
	s.opts.events.Publish(events.TopicMemberRemoved, channelID, map[string]interface{}{
		"channel_id": channelID,
		"user_id":    userID,
	})
	return true
}

// ListMembers returns all membership rows with UTC timestamps
func (s *membershipService) ListMembers(ctx context.Context, channelID string) ([]*domain.Membership, error) {
	members, err := s.memberships.ListByChannel(ctx, channelID)
	if err != nil {
		return nil, common.NewPersistenceError("list members", err)
	}
	for _, m := range members {
		m.Normalize()
	}
	return members, nil
}

// MarkRead moves the member's read cursor to now
func (s *membershipService) MarkRead(ctx context.Context, channelID, userID string) bool {
	ok, err := s.memberships.UpdateLastRead(ctx, channelID, userID, s.opts.now())
	if err != nil {
		logger.GetLogger().Error().Err(err).
			Str("channel_id", channelID).Str("user_id", userID).
			Msg("mark read")
		return false
	}
	return ok
}

// IsMember reports whether a membership row exists
func (s *membershipService) IsMember(ctx context.Context, channelID, userID string) (bool, error) {
	m, err := s.GetMembership(ctx, channelID, userID)
	return m != nil, err
}

// GetMembership returns nil, nil when the user is not a member
func (s *membershipService) GetMembership(ctx context.Context, channelID, userID string) (*domain.Membership, error) {
	m, err := s.memberships.Find(ctx, channelID, userID)
	if err != nil {
		return nil, common.NewPersistenceError("get membership", err)
	}
	if m != nil {
		m.Normalize()
	}
	return m, nil
}

// recomputeMemberIDs rewrites the channel's member list from the membership rows.
// Concurrent recomputes are last-writer-wins; the rows stay authoritative.
func (s *membershipService) recomputeMemberIDs(ctx context.Context, channelID string) error {
	members, err := s.memberships.ListByChannel(ctx, channelID)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return s.channels.SetMemberIDs(ctx, channelID, ids)
}
