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

type messageDoc struct {
	ID         string     `bson:"_id"`
	ChannelID  string     `bson:"channel_id"`
	Content    string     `bson:"content"`
	Author     string     `bson:"author"`
	AuthorName *string    `bson:"author_name,omitempty"`
	CreatedAt  time.Time  `bson:"created_at"`
	UpdatedAt  *time.Time `bson:"updated_at,omitempty"`
	IsEdited   bool       `bson:"is_edited"`
	IsPinned   bool       `bson:"is_pinned"`
	Mentions   []string   `bson:"mentions,omitempty"`
	ThreadID   *string    `bson:"thread_id,omitempty"`
	ReplyCount int        `bson:"reply_count"`
}

func toMessageDoc(m *domain.Message) *messageDoc {
	return &messageDoc{
		ID:         m.ID,
		ChannelID:  m.ChannelID,
		Content:    m.Content,
		Author:     m.Author,
		AuthorName: m.AuthorName,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
		IsEdited:   m.IsEdited,
		IsPinned:   m.IsPinned,
		Mentions:   m.Mentions,
		ThreadID:   m.ThreadID,
		ReplyCount: m.ReplyCount,
	}
}

func (d *messageDoc) toDomain() *domain.Message {
	m := &domain.Message{
		ID:         d.ID,
		ChannelID:  d.ChannelID,
		Content:    d.Content,
		Author:     d.Author,
		AuthorName: d.AuthorName,
		CreatedAt:  d.CreatedAt.UTC(),
		IsEdited:   d.IsEdited,
		IsPinned:   d.IsPinned,
		Mentions:   d.Mentions,
		ThreadID:   d.ThreadID,
		ReplyCount: d.ReplyCount,
	}
	if d.UpdatedAt != nil {
		t := d.UpdatedAt.UTC()
		m.UpdatedAt = &t
	}
	return m
}

// recentFilter selects a channel's messages inside the exclusive time window
func recentFilter(channelID string, q domain.MessageQuery) bson.M {
	filter := bson.M{"channel_id": channelID}
	window := bson.M{}
	if q.Before != nil {
		window["$lt"] = q.Before.UTC()
	}
	if q.After != nil {
		window["$gt"] = q.After.UTC()
	}
	if len(window) > 0 {
		filter["created_at"] = window
	}
	return filter
}

type messageRepository struct {
	store *Store
	col   *mongo.Collection
}

// NewMessageRepository creates a MongoDB MessageRepository
func NewMessageRepository(s *Store) repository.MessageRepository {
	return &messageRepository{store: s, col: s.db.Collection(MessagesCollection)}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	msg.CreatedAt = r.store.timestamp()
	msg.UpdatedAt = nil
	_, err := r.col.InsertOne(ctx, toMessageDoc(msg))
	return err
}

func (r *messageRepository) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	var d messageDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return d.toDomain(), nil
}

func (r *messageRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Message, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	docs, err := decodeAll[messageDoc](ctx, cur)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Message, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (r *messageRepository) FindRecent(ctx context.Context, channelID string, q domain.MessageQuery) ([]*domain.Message, error) {
	q = q.WithDefaults()
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(q.Limit))
	return r.find(ctx, recentFilter(channelID, q), opts)
}

func (r *messageRepository) FindPinned(ctx context.Context, channelID string) ([]*domain.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"channel_id": channelID, "is_pinned": true}, opts)
}

func (r *messageRepository) UpdateContent(ctx context.Context, id, content string) (bool, error) {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"content":    content,
		"is_edited":  true,
		"updated_at": r.store.timestamp(),
	}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *messageRepository) SetPinned(ctx context.Context, id string, pinned bool) (bool, error) {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_pinned": pinned}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *messageRepository) IncrementReplyCount(ctx context.Context, id string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"reply_count": 1}})
	return err
}

func (r *messageRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *messageRepository) DeleteByChannel(ctx context.Context, channelID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"channel_id": channelID})
	return err
}
