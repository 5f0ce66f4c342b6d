package repository

import (
	"context"
	"errors"
	"time"

	"github.com/KDim67/boostflow-backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChannelRepository channel data access interface
type ChannelRepository interface {
	Create(ctx context.Context, ch *domain.Channel) error
	FindByID(ctx context.Context, id string) (*domain.Channel, error)
	ListByOrganization(ctx context.Context, orgID string) ([]*domain.Channel, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	SetMemberIDs(ctx context.Context, id string, memberIDs []string) error
	TouchActivity(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) (bool, error)
}

type channelRepository struct {
	db *gorm.DB
}

// NewChannelRepository creates a new ChannelRepository
func NewChannelRepository(db *gorm.DB) ChannelRepository {
	return &channelRepository{db: db}
}

// Create inserts a channel; created_at/updated_at are assigned by the store
func (r *channelRepository) Create(ctx context.Context, ch *domain.Channel) error {
	if ch.MemberIDs == nil {
		ch.MemberIDs = datatypes.JSONSlice[string]{}
	}
	return r.db.WithContext(ctx).Create(ch).Error
}

// FindByID returns nil, nil when the channel does not exist
func (r *channelRepository) FindByID(ctx context.Context, id string) (*domain.Channel, error) {
	var ch domain.Channel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ch).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ch, nil
}

// ListByOrganization returns non-archived channels, most recently active first
func (r *channelRepository) ListByOrganization(ctx context.Context, orgID string) ([]*domain.Channel, error) {
	var channels []*domain.Channel
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND is_archived = ?", orgID, false).
		Order("last_activity DESC").
		Order("id ASC").
		Find(&channels).Error
	return channels, err
}

// Update applies a partial update; updated_at is bumped by the store
func (r *channelRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&domain.Channel{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// SetMemberIDs overwrites the denormalized member list
func (r *channelRepository) SetMemberIDs(ctx context.Context, id string, memberIDs []string) error {
	return r.db.WithContext(ctx).Model(&domain.Channel{}).
		Where("id = ?", id).
		Update("member_ids", datatypes.JSONSlice[string](memberIDs)).Error
}

// TouchActivity sets last_activity without bumping updated_at
func (r *channelRepository) TouchActivity(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Channel{}).
		Where("id = ?", id).
		UpdateColumn("last_activity", at).Error
}

// Delete removes the channel record only; dependents are cascaded by the caller
func (r *channelRepository) Delete(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Channel{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
