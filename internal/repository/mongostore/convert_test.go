package mongostore

import (
	"testing"
	"time"

	"github.com/KDim67/boostflow-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"gorm.io/datatypes"
)

func TestRecentFilter(t *testing.T) {
	before := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	after := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		q    domain.MessageQuery
		want bson.M
	}{
		{
			name: "no window",
			q:    domain.MessageQuery{},
			want: bson.M{"channel_id": "c1"},
		},
		{
			name: "before only",
			q:    domain.MessageQuery{Before: &before},
			want: bson.M{"channel_id": "c1", "created_at": bson.M{"$lt": before}},
		},
		{
			name: "both bounds",
			q:    domain.MessageQuery{Before: &before, After: &after},
			want: bson.M{"channel_id": "c1", "created_at": bson.M{"$lt": before, "$gt": after}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recentFilter("c1", tt.q))
		})
	}
}

func TestChannelDoc_BSON(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	ch := &domain.Channel{
		ID:             "a_b",
		Name:           "dm-a_b",
		Type:           domain.ChannelPrivate,
		MemberIDs:      datatypes.JSONSlice[string]{"a", "b"},
		CreatedBy:      "a",
		CreatedAt:      now,
		UpdatedAt:      now,
		IsDirect:       true,
		LastActivity:   now,
		OrganizationID: "org1",
	}

	raw, err := bson.Marshal(toChannelDoc(ch))
	require.NoError(t, err)

	var decoded channelDoc
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	got := decoded.toDomain()

	assert.Equal(t, ch.ID, got.ID)
	assert.Equal(t, []string{"a", "b"}, []string(got.MemberIDs))
	assert.True(t, got.IsDirectMessage())
	assert.True(t, got.IsDirect)
	assert.True(t, got.CreatedAt.Equal(now))
	assert.Nil(t, got.Description)
}

func TestMessageDoc_UnsetUpdatedAt(t *testing.T) {
	msg := &domain.Message{ID: "m1", ChannelID: "c1", Content: "hi", Author: "a", CreatedAt: time.Now().UTC()}

	raw, err := bson.Marshal(toMessageDoc(msg))
	require.NoError(t, err)

	var fields bson.M
	require.NoError(t, bson.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "updated_at")
	assert.Equal(t, false, fields["is_edited"])
}

func TestNotificationDoc_Metadata(t *testing.T) {
	n := &domain.Notification{
		ID:     "n1",
		UserID: "b",
		Type:   domain.NotificationDirectMessage,
		Metadata: datatypes.NewJSONType(domain.NotificationMetadata{
			SenderID: "a", ChannelID: "a_b", MessageID: "m1",
		}),
	}

	raw, err := bson.Marshal(toNotificationDoc(n))
	require.NoError(t, err)

	var decoded notificationDoc
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	assert.Equal(t, "a", decoded.toDomain().Meta().SenderID)
	assert.Equal(t, "m1", decoded.toDomain().Meta().MessageID)
}
