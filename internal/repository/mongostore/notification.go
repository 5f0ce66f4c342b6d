package mongostore

import (
	"context"
	"time"

	"github.com/KDim67/boostflow-backend/internal/domain"
	"github.com/KDim67/boostflow-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/datatypes"
)

type notificationMetaDoc struct {
	SenderID  string `bson:"sender_id,omitempty"`
	ChannelID string `bson:"channel_id,omitempty"`
	MessageID string `bson:"message_id,omitempty"`
}

type notificationDoc struct {
	ID        string              `bson:"_id"`
	UserID    string              `bson:"user_id"`
	Type      string              `bson:"type"`
	Title     string              `bson:"title"`
	Message   string              `bson:"message"`
	Metadata  notificationMetaDoc `bson:"metadata"`
	Read      bool                `bson:"read"`
	Hidden    bool                `bson:"hidden"`
	CreatedAt time.Time           `bson:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at"`
}

func toNotificationDoc(n *domain.Notification) *notificationDoc {
	meta := n.Meta()
	return &notificationDoc{
		ID:      n.ID,
		UserID:  n.UserID,
		Type:    n.Type,
		Title:   n.Title,
		Message: n.Message,
		Metadata: notificationMetaDoc{
			SenderID:  meta.SenderID,
			ChannelID: meta.ChannelID,
			MessageID: meta.MessageID,
		},
		Read:      n.Read,
		Hidden:    n.Hidden,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func (d *notificationDoc) toDomain() *domain.Notification {
	return &domain.Notification{
		ID:      d.ID,
		UserID:  d.UserID,
		Type:    d.Type,
		Title:   d.Title,
		Message: d.Message,
		Metadata: datatypes.NewJSONType(domain.NotificationMetadata{
			SenderID:  d.Metadata.SenderID,
			ChannelID: d.Metadata.ChannelID,
			MessageID: d.Metadata.MessageID,
		}),
		Read:      d.Read,
		Hidden:    d.Hidden,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type notificationRepository struct {
	store *Store
	col   *mongo.Collection
}

// NewNotificationRepository creates a MongoDB NotificationRepository
func NewNotificationRepository(s *Store) repository.NotificationRepository {
	return &notificationRepository{store: s, col: s.db.Collection(NotificationsCollection)}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	now := r.store.timestamp()
	n.CreatedAt, n.UpdatedAt = now, now
	_, err := r.col.InsertOne(ctx, toNotificationDoc(n))
	return err
}

func (r *notificationRepository) FindByID(ctx context.Context, id string) (*domain.Notification, error) {
	var d notificationDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return d.toDomain(), nil
}

func (r *notificationRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Notification, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	docs, err := decodeAll[notificationDoc](ctx, cur)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Notification, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

var newestFirst = bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}

func (r *notificationRepository) FindRecent(ctx context.Context, userID string, limit int, includeHidden bool) ([]*domain.Notification, error) {
	filter := bson.M{"user_id": userID}
	if !includeHidden {
		filter["hidden"] = false
	}
	return r.find(ctx, filter, options.Find().SetSort(newestFirst).SetLimit(int64(limit)))
}

func (r *notificationRepository) GetList(ctx context.Context, userID string, offset, limit int) ([]*domain.Notification, int64, error) {
	filter := bson.M{"user_id": userID, "hidden": false}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().SetSort(newestFirst).SetSkip(int64(offset)).SetLimit(int64(limit))
	items, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *notificationRepository) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"user_id": userID, "read": false, "hidden": false})
}

func (r *notificationRepository) set(ctx context.Context, filter bson.M, fields bson.M, many bool) error {
	fields["updated_at"] = r.store.timestamp()
	update := bson.M{"$set": fields}
	var err error
	if many {
		_, err = r.col.UpdateMany(ctx, filter, update)
	} else {
		_, err = r.col.UpdateOne(ctx, filter, update)
	}
	return err
}

func (r *notificationRepository) UpdateMessage(ctx context.Context, id, message string) error {
	return r.set(ctx, bson.M{"_id": id}, bson.M{"message": message}, false)
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id string) error {
	return r.set(ctx, bson.M{"_id": id}, bson.M{"read": true}, false)
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	return r.set(ctx, bson.M{"user_id": userID, "read": false}, bson.M{"read": true}, true)
}

func (r *notificationRepository) Hide(ctx context.Context, id string) error {
	return r.set(ctx, bson.M{"_id": id}, bson.M{"hidden": true}, false)
}

func (r *notificationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
