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

type channelDoc struct {
	ID             string    `bson:"_id"`
	Name           string    `bson:"name"`
	Description    *string   `bson:"description,omitempty"`
	Type           string    `bson:"type"`
	MemberIDs      []string  `bson:"member_ids"`
	CreatedBy      string    `bson:"created_by"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
	IsArchived     bool      `bson:"is_archived"`
	IsDirect       bool      `bson:"is_direct"`
	LastActivity   time.Time `bson:"last_activity"`
	OrganizationID string    `bson:"organization_id"`
	ProjectID      *string   `bson:"project_id,omitempty"`
}

func toChannelDoc(ch *domain.Channel) *channelDoc {
	members := []string(ch.MemberIDs)
	if members == nil {
		members = []string{}
	}
	return &channelDoc{
		ID:             ch.ID,
		Name:           ch.Name,
		Description:    ch.Description,
		Type:           string(ch.Type),
		MemberIDs:      members,
		CreatedBy:      ch.CreatedBy,
		CreatedAt:      ch.CreatedAt,
		UpdatedAt:      ch.UpdatedAt,
		IsArchived:     ch.IsArchived,
		IsDirect:       ch.IsDirect,
		LastActivity:   ch.LastActivity.UTC(),
		OrganizationID: ch.OrganizationID,
		ProjectID:      ch.ProjectID,
	}
}

func (d *channelDoc) toDomain() *domain.Channel {
	members := d.MemberIDs
	if members == nil {
		members = []string{}
	}
	return &domain.Channel{
		ID:             d.ID,
		Name:           d.Name,
		Description:    d.Description,
		Type:           domain.ChannelType(d.Type),
		MemberIDs:      members,
		CreatedBy:      d.CreatedBy,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
		IsArchived:     d.IsArchived,
		IsDirect:       d.IsDirect,
		LastActivity:   d.LastActivity.UTC(),
		OrganizationID: d.OrganizationID,
		ProjectID:      d.ProjectID,
	}
}

type channelRepository struct {
	store *Store
	col   *mongo.Collection
}

// NewChannelRepository creates a MongoDB ChannelRepository
func NewChannelRepository(s *Store) repository.ChannelRepository {
	return &channelRepository{store: s, col: s.db.Collection(ChannelsCollection)}
}

func (r *channelRepository) Create(ctx context.Context, ch *domain.Channel) error {
	now := r.store.timestamp()
	ch.CreatedAt, ch.UpdatedAt = now, now
	if ch.MemberIDs == nil {
		ch.MemberIDs = []string{}
	}
	_, err := r.col.InsertOne(ctx, toChannelDoc(ch))
	return err
}

func (r *channelRepository) FindByID(ctx context.Context, id string) (*domain.Channel, error) {
	var d channelDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return d.toDomain(), nil
}

func (r *channelRepository) ListByOrganization(ctx context.Context, orgID string) ([]*domain.Channel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_activity", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"organization_id": orgID, "is_archived": false}, opts)
	if err != nil {
		return nil, err
	}
	docs, err := decodeAll[channelDoc](ctx, cur)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Channel, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (r *channelRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	set := bson.M{"updated_at": r.store.timestamp()}
	for k, v := range fields {
		set[k] = v
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	return err
}

func (r *channelRepository) SetMemberIDs(ctx context.Context, id string, memberIDs []string) error {
	if memberIDs == nil {
		memberIDs = []string{}
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"member_ids": memberIDs,
		"updated_at": r.store.timestamp(),
	}})
	return err
}

func (r *channelRepository) TouchActivity(ctx context.Context, id string, at time.Time) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_activity": at.UTC()}})
	return err
}

func (r *channelRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
