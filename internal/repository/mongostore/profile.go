package mongostore

import (
	"context"
	"time"

	"github.com/KDim67/boostflow-backend/internal/domain"
	"github.com/KDim67/boostflow-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type profileDoc struct {
	ID          string    `bson:"_id"`
	DisplayName string    `bson:"display_name"`
	Email       string    `bson:"email,omitempty"`
	AvatarURL   string    `bson:"avatar_url,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

type profileRepository struct {
	profiles *mongo.Collection
	orgs     *mongo.Collection
}

// NewProfileRepository creates a MongoDB ProfileRepository
func NewProfileRepository(s *Store) repository.ProfileRepository {
	return &profileRepository{
		profiles: s.db.Collection(ProfilesCollection),
		orgs:     s.db.Collection(OrganizationMembersCollection),
	}
}

func (r *profileRepository) FindByID(ctx context.Context, userID string) (*domain.UserProfile, error) {
	var d profileDoc
	if err := r.profiles.FindOne(ctx, bson.M{"_id": userID}).Decode(&d); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.UserProfile{
		ID:          d.ID,
		DisplayName: d.DisplayName,
		Email:       d.Email,
		AvatarURL:   d.AvatarURL,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}

func (r *profileRepository) IsOrganizationMember(ctx context.Context, orgID, userID string) (bool, error) {
	n, err := r.orgs.CountDocuments(ctx, bson.M{"organization_id": orgID, "user_id": userID})
	return n > 0, err
}
