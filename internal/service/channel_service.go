package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/KDim67/boostflow-backend/internal/common"
	"github.com/KDim67/boostflow-backend/internal/domain"
	"github.com/KDim67/boostflow-backend/internal/events"
	"github.com/KDim67/boostflow-backend/internal/realtime"
	"github.com/KDim67/boostflow-backend/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var errMembershipWrite = errors.New("membership write failed")

// ChannelService channel directory business logic
type ChannelService interface {
	CreateChannel(ctx context.Context, req *domain.CreateChannelRequest) (*domain.Channel, error)
	GetChannel(ctx context.Context, id string) (*domain.Channel, error)
	ListChannelsForOrganization(ctx context.Context, orgID string) ([]*domain.Channel, error)
	ListChannelsVisibleToUser(ctx context.Context, orgID, userID string) ([]*domain.Channel, error)
	GetOrCreateDirectMessageChannel(ctx context.Context, userA, userB, orgID string) (*domain.Channel, error)
	UpdateChannel(ctx context.Context, id string, req *domain.UpdateChannelRequest) (*domain.Channel, error)
	ArchiveChannel(ctx context.Context, id string, archived bool) (*domain.Channel, error)
	DeleteChannel(ctx context.Context, id string) (bool, error)
}

type channelService struct {
	channels    repository.ChannelRepository
	memberships repository.MembershipRepository
	messages    repository.MessageRepository
	members     MembershipService
	opts        options
}

// NewChannelService creates a new ChannelService
func NewChannelService(
	channels repository.ChannelRepository,
	memberships repository.MembershipRepository,
	messages repository.MessageRepository,
	members MembershipService,
	opts ...Option,
) ChannelService {
	return &channelService{
		channels:    channels,
		memberships: memberships,
		messages:    messages,
		members:     members,
		opts:        newOptions(opts),
	}
}

// CreateChannel creates a channel. The creator of a private channel becomes its admin.
func (s *channelService) CreateChannel(ctx context.Context, req *domain.CreateChannelRequest) (*domain.Channel, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || !req.Type.Valid() {
		return nil, common.ErrInvalidInput
	}

	ch := &domain.Channel{
		ID:             uuid.NewString(),
		Name:           name,
		Description:    req.Description,
		Type:           req.Type,
		MemberIDs:      []string{},
		CreatedBy:      req.CreatedBy,
		IsArchived:     false,
		LastActivity:   s.opts.now(),
		OrganizationID: req.OrganizationID,
		ProjectID:      req.ProjectID,
	}
	if err := s.channels.Create(ctx, ch); err != nil {
		return nil, common.NewPersistenceError("create channel", err)
	}

	if ch.Type == domain.ChannelPrivate && ch.CreatedBy != "" {
		if !s.members.AddMember(ctx, ch.ID, ch.CreatedBy, domain.RoleAdmin) {
			return nil, common.NewPersistenceError("add channel creator", errMembershipWrite)
		}
		// pick up the recomputed member list
		if fresh, err := s.channels.FindByID(ctx, ch.ID); err == nil && fresh != nil {
			ch = fresh
		}
	}

	s.opts.realtime.Notify(ctx, realtime.ChannelsTopic(ch.OrganizationID))
	s.opts.events.Publish(events.TopicChannelCreated, ch.ID, map[string]interface{}{
		"channel_id":      ch.ID,
		"organization_id": ch.OrganizationID,
		"type":            string(ch.Type),
		"created_by":      ch.CreatedBy,
	})
	return ch, nil
}

// GetChannel returns nil, nil when the channel does not exist
func (s *channelService) GetChannel(ctx context.Context, id string) (*domain.Channel, error) {
	ch, err := s.channels.FindByID(ctx, id)
	if err != nil {
		return nil, common.NewPersistenceError("get channel", err)
	}
	return ch, nil
}

// ListChannelsForOrganization returns non-archived channels, most recently active first
func (s *channelService) ListChannelsForOrganization(ctx context.Context, orgID string) ([]*domain.Channel, error) {
	channels, err := s.channels.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, common.NewPersistenceError("list channels", err)
	}
	return channels, nil
}

// ListChannelsVisibleToUser returns public channels plus private channels the user belongs to.
// Private channel access is checked against the membership rows, one lookup per channel.
func (s *channelService) ListChannelsVisibleToUser(ctx context.Context, orgID, userID string) ([]*domain.Channel, error) {
	channels, err := s.ListChannelsForOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	visible := make([]*domain.Channel, 0, len(channels))
	for _, ch := range channels {
		if ch.Type == domain.ChannelPublic {
			visible = append(visible, ch)
			continue
		}
		m, err := s.memberships.Find(ctx, ch.ID, userID)
		if err != nil {
			return nil, common.NewPersistenceError("check membership", err)
		}
		if m != nil {
			visible = append(visible, ch)
		}
	}
	return visible, nil
}

// GetOrCreateDirectMessageChannel resolves the DM channel of two users, creating it on first use.
// Both membership rows are written on every call so a half-created channel is repaired.
func (s *channelService) GetOrCreateDirectMessageChannel(ctx context.Context, userA, userB, orgID string) (*domain.Channel, error) {
	id, err := DirectMessageChannelID(userA, userB)
	if err != nil {
		return nil, err
	}

	ch, err := s.channels.FindByID(ctx, id)
	if err != nil {
		return nil, common.NewPersistenceError("get direct message channel", err)
	}
	created := false
	if ch == nil {
		ch = &domain.Channel{
			ID:             id,
			Name:           directMessageName(id),
			Type:           domain.ChannelPrivate,
			MemberIDs:      []string{userA, userB},
			CreatedBy:      userA,
			IsDirect:       true,
			LastActivity:   s.opts.now(),
			OrganizationID: orgID,
		}
		if err := s.channels.Create(ctx, ch); err != nil {
			// another request may have created it first
			raced, findErr := s.channels.FindByID(ctx, id)
			if findErr != nil || raced == nil {
				return nil, common.NewPersistenceError("create direct message channel", err)
			}
			ch = raced
		} else {
			created = true
		}
	}

	if err := s.enrollDirectMessageMembers(ctx, ch); err != nil {
		return nil, common.NewPersistenceError("enroll direct message members", err)
	}
	if !created {
		return ch, nil
	}

	s.opts.realtime.Notify(ctx, realtime.ChannelsTopic(orgID))
	s.opts.events.Publish(events.TopicChannelCreated, id, map[string]interface{}{
		"channel_id":      id,
		"organization_id": orgID,
		"type":            string(domain.ChannelPrivate),
		"direct":          true,
	})
	return ch, nil
}

// enrollDirectMessageMembers upserts the creator as admin and the counterpart as member
func (s *channelService) enrollDirectMessageMembers(ctx context.Context, ch *domain.Channel) error {
	members := make([]*domain.Membership, 0, len(ch.MemberIDs))
	for _, userID := range ch.MemberIDs {
		role := domain.RoleMember
		if userID == ch.CreatedBy {
			role = domain.RoleAdmin
		}
		members = append(members, &domain.Membership{ChannelID: ch.ID, UserID: userID, Role: role})
	}
	return s.memberships.Upsert(ctx, members...)
}

// UpdateChannel applies a partial name/description update. Returns nil, nil if the channel is gone.
func (s *channelService) UpdateChannel(ctx context.Context, id string, req *domain.UpdateChannelRequest) (*domain.Channel, error) {
	fields := make(map[string]interface{})
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, common.ErrInvalidInput
		}
		fields["name"] = name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	return s.update(ctx, id, fields, events.TopicChannelUpdated)
}

// ArchiveChannel hides or restores a channel in organization listings
func (s *channelService) ArchiveChannel(ctx context.Context, id string, archived bool) (*domain.Channel, error) {
	return s.update(ctx, id, map[string]interface{}{"is_archived": archived}, events.TopicChannelUpdated)
}

func (s *channelService) update(ctx context.Context, id string, fields map[string]interface{}, topic string) (*domain.Channel, error) {
	ch, err := s.channels.FindByID(ctx, id)
	if err != nil {
		return nil, common.NewPersistenceError("get channel", err)
	}
	if ch == nil {
		return nil, nil
	}
	if len(fields) == 0 {
		return ch, nil
	}

	if err := s.channels.Update(ctx, id, fields); err != nil {
		return nil, common.NewPersistenceError("update channel", err)
	}
	updated, err := s.channels.FindByID(ctx, id)
	if err != nil {
		return nil, common.NewPersistenceError("get channel", err)
	}
	if updated == nil {
		return nil, nil
	}

	s.opts.realtime.Notify(ctx, realtime.ChannelsTopic(updated.OrganizationID))
	s.opts.events.Publish(topic, id, map[string]interface{}{
		"channel_id": id,
		"fields":     fieldNames(fields),
	})
	return updated, nil
}

// DeleteChannel deletes the channel, then its memberships and messages in parallel.
// A failed cascade leaves orphans behind; it is logged and not returned.
func (s *channelService) DeleteChannel(ctx context.Context, id string) (bool, error) {
	ch, err := s.channels.FindByID(ctx, id)
	if err != nil {
		return false, common.NewPersistenceError("get channel", err)
	}
	if ch == nil {
		return false, nil
	}

	deleted, err := s.channels.Delete(ctx, id)
	if err != nil {
		return false, common.NewPersistenceError("delete channel", err)
	}
	if !deleted {
		return false, nil
	}

	s.opts.effects.Do(ctx, "cascade_delete_channel", func(ctx context.Context) error {
		var g errgroup.Group
		g.Go(func() error { return s.memberships.DeleteByChannel(ctx, id) })
		g.Go(func() error { return s.messages.DeleteByChannel(ctx, id) })
		return g.Wait()
	})

	s.opts.realtime.Notify(ctx, realtime.ChannelsTopic(ch.OrganizationID))
	s.opts.realtime.Notify(ctx, realtime.MessagesTopic(id))
	s.opts.events.Publish(events.TopicChannelDeleted, id, map[string]interface{}{
		"channel_id":      id,
		"organization_id": ch.OrganizationID,
	})
	return true, nil
}

func fieldNames(fields map[string]interface{}) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
