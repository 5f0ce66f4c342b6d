package service

import (
	"context"
	"testing"

	"github.com/KDim67/boostflow-backend/internal/common"
	"github.com/KDim67/boostflow-backend/internal/domain"
	"github.com/KDim67/boostflow-backend/internal/events"
	"github.com/KDim67/boostflow-backend/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectMessageChannelID(t *testing.T) {
	tests := []struct {
		name    string
		a, b    string
		want    string
		wantErr error
	}{
		{name: "sorted", a: "alice", b: "bob", want: "alice_bob"},
		{name: "reversed", a: "bob", b: "alice", want: "alice_bob"},
		{name: "same user", a: "alice", b: "alice", wantErr: common.ErrSelfDirectMessage},
		{name: "empty", a: "", b: "bob", wantErr: common.ErrInvalidInput},
		{name: "separator in id", a: "al_ice", b: "bob", wantErr: common.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DirectMessageChannelID(tt.a, tt.b)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetOrCreateDirectMessageChannel_OrderIndependentAndIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.channels.GetOrCreateDirectMessageChannel(ctx, "u1", "u2", "org1")
	require.NoError(t, err)
	second, err := f.channels.GetOrCreateDirectMessageChannel(ctx, "u2", "u1", "org1")
	require.NoError(t, err)
	third, err := f.channels.GetOrCreateDirectMessageChannel(ctx, "u1", "u2", "org1")
	require.NoError(t, err)

	assert.Equal(t, "u1_u2", first.ID)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ID, third.ID)
	assert.Equal(t, domain.ChannelPrivate, first.Type)
	assert.Equal(t, "dm-u1_u2", first.Name)
	assert.Equal(t, "u1", first.CreatedBy)
	assert.ElementsMatch(t, []string{"u1", "u2"}, []string(second.MemberIDs))
	assert.True(t, second.IsDirectMessage())
	assert.True(t, second.IsDirect)

	members, err := f.members.ListMembers(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	var count int64
	require.NoError(t, f.db.Model(&domain.Channel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetOrCreateDirectMessageChannel_MembershipWriteFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.db.Migrator().DropTable(&domain.Membership{}))

	_, err := f.channels.GetOrCreateDirectMessageChannel(ctx, "u1", "u2", "org1")
	assert.True(t, common.IsPersistence(err))

	// the channel row survived; the next call must repair both memberships
	require.NoError(t, f.db.AutoMigrate(&domain.Membership{}))
	dm, err := f.channels.GetOrCreateDirectMessageChannel(ctx, "u2", "u1", "org1")
	require.NoError(t, err)
	assert.Equal(t, "u1_u2", dm.ID)

	members, err := f.members.ListMembers(ctx, dm.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	roles := map[string]domain.MemberRole{}
	for _, m := range members {
		roles[m.UserID] = m.Role
	}
	assert.Equal(t, domain.RoleAdmin, roles["u1"])
	assert.Equal(t, domain.RoleMember, roles["u2"])

	ok, err := f.members.IsMember(ctx, dm.ID, "u2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetOrCreateDirectMessageChannel_SelfRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.channels.GetOrCreateDirectMessageChannel(context.Background(), "u1", "u1", "org1")
	assert.ErrorIs(t, err, common.ErrSelfDirectMessage)
}

func TestCreateChannel_Public(t *testing.T) {
	f := newFixture(t)

	ch := f.createChannel(t, "general", domain.ChannelPublic, "u1")

	assert.NotEmpty(t, ch.ID)
	assert.False(t, ch.IsArchived)
	assert.False(t, ch.CreatedAt.IsZero())
	assert.False(t, ch.LastActivity.IsZero())
	assert.Empty(t, ch.MemberIDs)
	assert.Contains(t, f.events.Topics(), events.TopicChannelCreated)
	assert.Contains(t, f.realtime.Topics(), realtime.ChannelsTopic("org1"))
}

func TestCreateChannel_InvalidInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.channels.CreateChannel(context.Background(), &domain.CreateChannelRequest{Name: "  ", Type: domain.ChannelPublic})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = f.channels.CreateChannel(context.Background(), &domain.CreateChannelRequest{Name: "x", Type: "secret"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestCreateChannel_PersistenceError(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Migrator().DropTable(&domain.Channel{}))

	_, err := f.channels.CreateChannel(context.Background(), &domain.CreateChannelRequest{Name: "x", Type: domain.ChannelPublic})
	assert.True(t, common.IsPersistence(err))
}

func TestDesignReviewScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ch := f.createChannel(t, "design-review", domain.ChannelPrivate, "U1")

	members, err := f.members.ListMembers(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "U1", members[0].UserID)
	assert.Equal(t, domain.RoleAdmin, members[0].Role)
	assert.Equal(t, []string{"U1"}, []string(ch.MemberIDs))

	require.True(t, f.members.AddMember(ctx, ch.ID, "U2", domain.RoleMember))

	members, err = f.members.ListMembers(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "U1", members[0].UserID)
	assert.Equal(t, domain.RoleAdmin, members[0].Role)
	assert.Equal(t, "U2", members[1].UserID)
	assert.Equal(t, domain.RoleMember, members[1].Role)

	reloaded, err := f.channels.GetChannel(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"U1", "U2"}, []string(reloaded.MemberIDs))

	added := f.notificationsFor(t, "U2", domain.NotificationChannelAdded)
	require.Len(t, added, 1)
	assert.Equal(t, ch.ID, added[0].Meta().ChannelID)
	assert.Empty(t, f.notificationsFor(t, "U1", domain.NotificationChannelAdded))
	assert.Contains(t, f.pusher.Events(), "U2:"+EventNotification)
}

func TestGetChannel_Missing(t *testing.T) {
	f := newFixture(t)

	ch, err := f.channels.GetChannel(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, ch)
}

func TestListChannelsForOrganization_ByLastActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	older := f.createChannel(t, "older", domain.ChannelPublic, "u1")
	newer := f.createChannel(t, "newer", domain.ChannelPublic, "u1")
	archived := f.createChannel(t, "archived", domain.ChannelPublic, "u1")
	_, err := f.channels.ArchiveChannel(ctx, archived.ID, true)
	require.NoError(t, err)

	list, err := f.channels.ListChannelsForOrganization(ctx, "org1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	_, err = f.messages.SendMessage(ctx, older.ID, "u1", "bump", domain.SendOptions{})
	require.NoError(t, err)

	list, err = f.channels.ListChannelsForOrganization(ctx, "org1")
	require.NoError(t, err)
	assert.Equal(t, older.ID, list[0].ID)
}

func TestListChannelsVisibleToUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	public := f.createChannel(t, "general", domain.ChannelPublic, "u1")
	mine := f.createChannel(t, "mine", domain.ChannelPrivate, "u2")
	other := f.createChannel(t, "other", domain.ChannelPrivate, "u3")
	require.True(t, f.members.AddMember(ctx, mine.ID, "u1", domain.RoleMember))

	visible, err := f.channels.ListChannelsVisibleToUser(ctx, "org1", "u1")
	require.NoError(t, err)

	ids := make([]string, 0, len(visible))
	for _, ch := range visible {
		ids = append(ids, ch.ID)
	}
	assert.ElementsMatch(t, []string{public.ID, mine.ID}, ids)
	assert.NotContains(t, ids, other.ID)
}

func TestUpdateChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch := f.createChannel(t, "general", domain.ChannelPublic, "u1")

	name := "announcements"
	desc := "company news"
	updated, err := f.channels.UpdateChannel(ctx, ch.ID, &domain.UpdateChannelRequest{Name: &name, Description: &desc})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "announcements", updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "company news", *updated.Description)
	assert.True(t, updated.UpdatedAt.After(ch.UpdatedAt))
	assert.Equal(t, ch.Type, updated.Type)

	missing, err := f.channels.UpdateChannel(ctx, "nope", &domain.UpdateChannelRequest{Name: &name})
	assert.NoError(t, err)
	assert.Nil(t, missing)

	blank := " "
	_, err = f.channels.UpdateChannel(ctx, ch.ID, &domain.UpdateChannelRequest{Name: &blank})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestDeleteChannel_CascadesMembershipsAndMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ch := f.createChannel(t, "doomed", domain.ChannelPrivate, "u1")
	require.True(t, f.members.AddMember(ctx, ch.ID, "u2", domain.RoleMember))
	for _, content := range []string{"one", "two", "three"} {
		_, err := f.messages.SendMessage(ctx, ch.ID, "u1", content, domain.SendOptions{})
		require.NoError(t, err)
	}
	keep := f.createChannel(t, "keep", domain.ChannelPublic, "u1")
	_, err := f.messages.SendMessage(ctx, keep.ID, "u1", "stay", domain.SendOptions{})
	require.NoError(t, err)

	deleted, err := f.channels.DeleteChannel(ctx, ch.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := f.channels.GetChannel(ctx, ch.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	var count int64
	require.NoError(t, f.db.Model(&domain.Message{}).Where("channel_id = ?", ch.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, f.db.Model(&domain.Membership{}).Where("channel_id = ?", ch.ID).Count(&count).Error)
	assert.Zero(t, count)

	msgs, err := f.messages.GetMessages(ctx, keep.ID, domain.MessageQuery{})
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	again, err := f.channels.DeleteChannel(ctx, ch.ID)
	require.NoError(t, err)
	assert.False(t, again)
}

func TestDeleteChannel_TornCascadeStillDeletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ch := f.createChannel(t, "doomed", domain.ChannelPublic, "u1")
	require.NoError(t, f.db.Migrator().DropTable(&domain.Message{}))

	deleted, err := f.channels.DeleteChannel(ctx, ch.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
}
