package repository

import (
	"context"
	"errors"
	"time"

	"github.com/KDim67/boostflow-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MembershipRepository channel membership data access interface
type MembershipRepository interface {
	Upsert(ctx context.Context, members ...*domain.Membership) error
	Find(ctx context.Context, channelID, userID string) (*domain.Membership, error)
	ListByChannel(ctx context.Context, channelID string) ([]*domain.Membership, error)
	Delete(ctx context.Context, channelID, userID string) (bool, error)
	DeleteByChannel(ctx context.Context, channelID string) error
	UpdateLastRead(ctx context.Context, channelID, userID string, at time.Time) (bool, error)
}

type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

// Upsert creates rows or overwrites the role of existing (channel_id, user_id) rows.
// joined_at and last_read_at of existing rows are preserved.
func (r *membershipRepository) Upsert(ctx context.Context, members ...*domain.Membership) error {
	if len(members) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "channel_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role"}),
		}).
		Create(members).Error
}

// Find returns nil, nil when the row does not exist
func (r *membershipRepository) Find(ctx context.Context, channelID, userID string) (*domain.Membership, error) {
	var m domain.Membership
	err := r.db.WithContext(ctx).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// ListByChannel returns all rows in join order
func (r *membershipRepository) ListByChannel(ctx context.Context, channelID string) ([]*domain.Membership, error) {
	var members []*domain.Membership
	err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("joined_at ASC").
		Order("user_id ASC").
		Find(&members).Error
	return members, err
}

// Delete removes a single membership row
func (r *membershipRepository) Delete(ctx context.Context, channelID, userID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Delete(&domain.Membership{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteByChannel removes every membership row of a channel
func (r *membershipRepository) DeleteByChannel(ctx context.Context, channelID string) error {
	return r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Delete(&domain.Membership{}).Error
}

// UpdateLastRead moves the read cursor; false when the row does not exist
func (r *membershipRepository) UpdateLastRead(ctx context.Context, channelID, userID string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Membership{}).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		UpdateColumn("last_read_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}
	// MySQL reports zero affected rows when the value is unchanged
	m, err := r.Find(ctx, channelID, userID)
	return m != nil, err
}
