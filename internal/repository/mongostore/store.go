// Package mongostore implements the repositories on MongoDB.
//
// Timestamps are assigned here at write time, truncated to the millisecond
// precision MongoDB stores, so returned values match what later reads see.
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	ChannelsCollection            = "channels"
	MembershipsCollection         = "channel_memberships"
	MessagesCollection            = "messages"
	NotificationsCollection       = "notifications"
	ProfilesCollection            = "user_profiles"
	OrganizationMembersCollection = "organization_members"
)

// Store holds the database handle and the store clock
type Store struct {
	db  *mongo.Database
	now func() time.Time
}

// Connect dials uri and verifies the connection
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// New creates a store over db. now may be nil.
func New(db *mongo.Database, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{db: db, now: now}
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// EnsureIndexes creates the indexes the repositories query by
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		ChannelsCollection: {
			{Keys: bson.D{{Key: "organization_id", Value: 1}, {Key: "last_activity", Value: -1}}},
		},
		MembershipsCollection: {
			{Keys: bson.D{{Key: "channel_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		MessagesCollection: {
			{Keys: bson.D{{Key: "channel_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "thread_id", Value: 1}}},
		},
		NotificationsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}}},
		},
		OrganizationMembersCollection: {
			{Keys: bson.D{{Key: "organization_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, models := range specs {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

func notFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]*T, error) {
	defer cur.Close(ctx)
	var out []*T
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}
