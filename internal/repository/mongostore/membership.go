package mongostore

import (
	"context"
	"time"

	"github.com/KDim67/boostflow-backend/internal/domain"
	"github.com/KDim67/boostflow-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type membershipDoc struct {
	ChannelID  string     `bson:"channel_id"`
	UserID     string     `bson:"user_id"`
	Role       string     `bson:"role"`
	JoinedAt   time.Time  `bson:"joined_at"`
	LastReadAt *time.Time `bson:"last_read_at,omitempty"`
}

func (d *membershipDoc) toDomain() *domain.Membership {
	m := &domain.Membership{
		ChannelID:  d.ChannelID,
		UserID:     d.UserID,
		Role:       domain.MemberRole(d.Role),
		JoinedAt:   d.JoinedAt,
		LastReadAt: d.LastReadAt,
	}
	m.Normalize()
	return m
}

type membershipRepository struct {
	store *Store
	col   *mongo.Collection
}

// NewMembershipRepository creates a MongoDB MembershipRepository
func NewMembershipRepository(s *Store) repository.MembershipRepository {
	return &membershipRepository{store: s, col: s.db.Collection(MembershipsCollection)}
}

func membershipKey(channelID, userID string) bson.M {
	return bson.M{"channel_id": channelID, "user_id": userID}
}

// Upsert overwrites the role of existing rows; joined_at is only set on insert
func (r *membershipRepository) Upsert(ctx context.Context, members ...*domain.Membership) error {
	if len(members) == 0 {
		return nil
	}
	now := r.store.timestamp()
	models := make([]mongo.WriteModel, 0, len(members))
	for _, m := range members {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(membershipKey(m.ChannelID, m.UserID)).
			SetUpdate(bson.M{
				"$set":         bson.M{"role": string(m.Role)},
				"$setOnInsert": bson.M{"joined_at": now},
			}).
			SetUpsert(true))
		if m.JoinedAt.IsZero() {
			m.JoinedAt = now
		}
	}
	_, err := r.col.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	return err
}

func (r *membershipRepository) Find(ctx context.Context, channelID, userID string) (*domain.Membership, error) {
	var d membershipDoc
	if err := r.col.FindOne(ctx, membershipKey(channelID, userID)).Decode(&d); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return d.toDomain(), nil
}

func (r *membershipRepository) ListByChannel(ctx context.Context, channelID string) ([]*domain.Membership, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}, {Key: "user_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"channel_id": channelID}, opts)
	if err != nil {
		return nil, err
	}
	docs, err := decodeAll[membershipDoc](ctx, cur)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Membership, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (r *membershipRepository) Delete(ctx context.Context, channelID, userID string) (bool, error) {
	res, err := r.col.DeleteOne(ctx, membershipKey(channelID, userID))
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *membershipRepository) DeleteByChannel(ctx context.Context, channelID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"channel_id": channelID})
	return err
}

func (r *membershipRepository) UpdateLastRead(ctx context.Context, channelID, userID string, at time.Time) (bool, error) {
	res, err := r.col.UpdateOne(ctx, membershipKey(channelID, userID), bson.M{"$set": bson.M{"last_read_at": at.UTC()}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}
