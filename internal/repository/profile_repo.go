package repository

import (
	"context"
	"errors"

	"github.com/KDim67/boostflow-backend/internal/domain"
	"gorm.io/gorm"
)

// ProfileRepository user profile and organization membership lookups
type ProfileRepository interface {
	FindByID(ctx context.Context, userID string) (*domain.UserProfile, error)
	IsOrganizationMember(ctx context.Context, orgID, userID string) (bool, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// FindByID returns nil, nil when the profile does not exist
func (r *profileRepository) FindByID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// IsOrganizationMember reports whether the user belongs to the organization
func (r *profileRepository) IsOrganizationMember(ctx context.Context, orgID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.OrganizationMember{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Count(&count).Error
	return count > 0, err
}
