package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/KDim67/boostflow-backend/internal/common"
	"github.com/KDim67/boostflow-backend/internal/domain"
	"github.com/KDim67/boostflow-backend/internal/events"
	"github.com/KDim67/boostflow-backend/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contents(msgs []*domain.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}

func TestSendMessage_Defaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch := f.createChannel(t, "general", domain.ChannelPublic, "u1")

	msg, err := f.messages.SendMessage(ctx, ch.ID, "u1", "hello", domain.SendOptions{AuthorName: "Alice"})
	require.NoError(t, err)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, ch.ID, msg.ChannelID)
	assert.Equal(t, "u1", msg.Author)
	require.NotNil(t, msg.AuthorName)
	assert.Equal(t, "Alice", *msg.AuthorName)
	assert.False(t, msg.CreatedAt.IsZero())
	assert.Nil(t, msg.UpdatedAt)
	assert.False(t, msg.IsEdited)
	assert.False(t, msg.IsPinned)
	assert.Zero(t, msg.ReplyCount)

	assert.Contains(t, f.events.Topics(), events.TopicMessageSent)
	assert.Contains(t, f.realtime.Topics(), realtime.MessagesTopic(ch.ID))
}

func TestSendMessage_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch := f.createChannel(t, "general", domain.ChannelPublic, "u1")

	_, err := f.messages.SendMessage(ctx, ch.ID, "u1", "   ", domain.SendOptions{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = f.messages.SendMessage(ctx, "missing", "u1", "hi", domain.SendOptions{})
	assert.ErrorIs(t, err, common.ErrChannelNotFound)

	require.NoError(t, f.db.Migrator().DropTable(&domain.Message{}))
	_, err = f.messages.SendMessage(ctx, ch.ID, "u1", "hi", domain.SendOptions{})
	assert.True(t, common.IsPersistence(err))
}

func TestGetMessages_AscendingOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch := f.createChannel(t, "general", domain.ChannelPublic, "u1")

	for _, c := range []string{"first", "second", "third"} {
		_, err := f.messages.SendMessage(ctx, ch.ID, "u1", c, domain.SendOptions{})
		require.NoError(t, err)
	}

	msgs, err := f.messages.GetMessages(ctx, ch.ID, domain.MessageQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, contents(msgs))
	for i := 1; i < len(msgs); i++ {
		assert.True(t, msgs[i].CreatedAt.After(msgs[i-1].CreatedAt))
	}
}

func TestGetMessages_LimitReturnsMostRecentInDM(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dm, err := f.channels.GetOrCreateDirectMessageChannel(ctx, "U1", "U2", "org1")
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		author := "U1"
		if i%2 == 0 {
			author = "U2"
		}
		_, err := f.messages.SendMessage(ctx, dm.ID, author, fmt.Sprintf("m%d", i), domain.SendOptions{})
		require.NoError(t, err)
	}

	msgs, err := f.messages.GetMessages(ctx, dm.ID, domain.MessageQuery{Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"m3", "m4", "m5"}, contents(msgs))
}

func TestGetMessages_Window(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch := f.createChannel(t, "general", domain.ChannelPublic, "u1")

	var sent []*domain.Message
	for i := 1; i <= 5; i++ {
		m, err := f.messages.SendMessage(ctx, ch.ID, "u1", fmt.Sprintf("m%d", i), domain.SendOptions{})
		require.NoError(t, err)
		sent = append(sent, m)
	}

	before := sent[3].CreatedAt
	msgs, err := f.messages.GetMessages(ctx, ch.ID, domain.MessageQuery{Limit: 2, Before: &before})
	require.NoError(t, err)
	assert.Equal(t, []string{"m2", "m3"}, contents(msgs))

	after := sent[1].CreatedAt
	msgs, err = f.messages.GetMessages(ctx, ch.ID, domain.MessageQuery{After: &after})
	require.NoError(t, err)
	assert.Equal(t, []string{"m3", "m4", "m5"}, contents(msgs))
}

func TestEditMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch := f.createChannel(t, "general", domain.ChannelPublic, "u1")

	sent, err := f.messages.SendMessage(ctx, ch.ID, "u1", "draft", domain.SendOptions{})
	require.NoError(t, err)

	before, err := f.messages.GetMessage(ctx, sent.ID)
	require.NoError(t, err)
	assert.False(t, before.IsEdited)
	assert.Nil(t, before.UpdatedAt)

	edited, err := f.messages.EditMessage(ctx, sent.ID, "final")
	require.NoError(t, err)
	require.NotNil(t, edited)
	assert.True(t, edited.IsEdited)
	assert.Equal(t, "final", edited.Content)
	require.NotNil(t, edited.UpdatedAt)
	assert.True(t, edited.CreatedAt.Equal(before.CreatedAt))
	assert.True(t, edited.UpdatedAt.After(edited.CreatedAt))
	assert.Equal(t, "u1", edited.Author)
	assert.Equal(t, ch.ID, edited.ChannelID)

	missing, err := f.messages.EditMessage(ctx, "missing", "x")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	_, err = f.messages.EditMessage(ctx, sent.ID, " ")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestDeleteMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch := f.createChannel(t, "general", domain.ChannelPublic, "u1")

	msg, err := f.messages.SendMessage(ctx, ch.ID, "u1", "bye", domain.SendOptions{})
	require.NoError(t, err)

	assert.True(t, f.messages.DeleteMessage(ctx, msg.ID))
	assert.False(t, f.messages.DeleteMessage(ctx, msg.ID))

	got, err := f.messages.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPinAndUnpin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch := f.createChannel(t, "general", domain.ChannelPublic, "u1")

	a, err := f.messages.SendMessage(ctx, ch.ID, "u1", "a", domain.SendOptions{})
	require.NoError(t, err)
	b, err := f.messages.SendMessage(ctx, ch.ID, "u1", "b", domain.SendOptions{})
	require.NoError(t, err)

	assert.True(t, f.messages.PinMessage(ctx, a.ID))
	assert.True(t, f.messages.PinMessage(ctx, b.ID))
	assert.True(t, f.messages.PinMessage(ctx, b.ID))
	assert.False(t, f.messages.PinMessage(ctx, "missing"))

	pinned, err := f.messages.ListPinned(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, contents(pinned))

	assert.True(t, f.messages.UnpinMessage(ctx, a.ID))
	pinned, err = f.messages.ListPinned(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, contents(pinned))
}

func TestSendMessage_ThreadReplyCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch := f.createChannel(t, "general", domain.ChannelPublic, "u1")

	root, err := f.messages.SendMessage(ctx, ch.ID, "u1", "root", domain.SendOptions{})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := f.messages.SendMessage(ctx, ch.ID, "u2", "reply", domain.SendOptions{ThreadID: root.ID})
		require.NoError(t, err)
	}

	got, err := f.messages.GetMessage(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ReplyCount)
}

func TestSendMessage_InvalidThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch := f.createChannel(t, "general", domain.ChannelPublic, "u1")
	other := f.createChannel(t, "random", domain.ChannelPublic, "u1")

	foreign, err := f.messages.SendMessage(ctx, other.ID, "u1", "elsewhere", domain.SendOptions{})
	require.NoError(t, err)

	_, err = f.messages.SendMessage(ctx, ch.ID, "u2", "reply", domain.SendOptions{ThreadID: "missing"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = f.messages.SendMessage(ctx, ch.ID, "u2", "reply", domain.SendOptions{ThreadID: foreign.ID})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	got, err := f.messages.GetMessage(ctx, foreign.ID)
	require.NoError(t, err)
	assert.Zero(t, got.ReplyCount)

	msgs, err := f.messages.GetMessages(ctx, ch.ID, domain.MessageQuery{})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSendMessage_Mentions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch := f.createChannel(t, "general", domain.ChannelPublic, "u1")

	_, err := f.messages.SendMessage(ctx, ch.ID, "u1", "hey @u2", domain.SendOptions{Mentions: []string{"u2", "u2", "u1"}})
	require.NoError(t, err)

	mentions := f.notificationsFor(t, "u2", domain.NotificationMention)
	require.Len(t, mentions, 1)
	assert.Equal(t, "u1", mentions[0].Meta().SenderID)
	assert.Empty(t, f.notificationsFor(t, "u1", domain.NotificationMention))
}

func TestSendMessage_PrivateMentionsOnlyMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch := f.createChannel(t, "secret", domain.ChannelPrivate, "u1")

	_, err := f.messages.SendMessage(ctx, ch.ID, "u1", "hey @u3", domain.SendOptions{Mentions: []string{"u3"}})
	require.NoError(t, err)

	assert.Empty(t, f.notificationsFor(t, "u3", domain.NotificationMention))
}

func TestDMNotificationCoalescing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dm, err := f.channels.GetOrCreateDirectMessageChannel(ctx, "A", "B", "org1")
	require.NoError(t, err)

	for _, c := range []string{"first", "second", "third"} {
		_, err := f.messages.SendMessage(ctx, dm.ID, "A", c, domain.SendOptions{AuthorName: "Alice"})
		require.NoError(t, err)
	}

	dms := f.notificationsFor(t, "B", domain.NotificationDirectMessage)
	require.Len(t, dms, 1)
	assert.False(t, dms[0].Read)
	assert.Equal(t, "A", dms[0].Meta().SenderID)
	assert.Equal(t, dm.ID, dms[0].Meta().ChannelID)
	assert.Equal(t, "third", dms[0].Message)
	assert.Equal(t, "New message from Alice", dms[0].Title)
	assert.True(t, dms[0].UpdatedAt.After(dms[0].CreatedAt))
	assert.Empty(t, f.notificationsFor(t, "A", domain.NotificationDirectMessage))

	require.NoError(t, f.notifications.MarkAsRead(ctx, "B", dms[0].ID))

	_, err = f.messages.SendMessage(ctx, dm.ID, "A", "fourth", domain.SendOptions{AuthorName: "Alice"})
	require.NoError(t, err)

	dms = f.notificationsFor(t, "B", domain.NotificationDirectMessage)
	require.Len(t, dms, 2)
	unread := 0
	for _, n := range dms {
		if !n.Read {
			unread++
			assert.Equal(t, "fourth", n.Message)
		}
	}
	assert.Equal(t, 1, unread)
}

func TestDMNotification_PerSender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dm, err := f.channels.GetOrCreateDirectMessageChannel(ctx, "A", "B", "org1")
	require.NoError(t, err)

	_, err = f.messages.SendMessage(ctx, dm.ID, "A", "hi B", domain.SendOptions{})
	require.NoError(t, err)
	_, err = f.messages.SendMessage(ctx, dm.ID, "B", "hi A", domain.SendOptions{})
	require.NoError(t, err)

	toB := f.notificationsFor(t, "B", domain.NotificationDirectMessage)
	require.Len(t, toB, 1)
	assert.Equal(t, "New message from A", toB[0].Title)
	assert.Len(t, f.notificationsFor(t, "A", domain.NotificationDirectMessage), 1)
}

func TestDMNotification_UsesProfileName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.db.Create(&domain.UserProfile{ID: "A", DisplayName: "Alice Kim"}).Error)

	dm, err := f.channels.GetOrCreateDirectMessageChannel(ctx, "A", "B", "org1")
	require.NoError(t, err)
	_, err = f.messages.SendMessage(ctx, dm.ID, "A", "hello", domain.SendOptions{})
	require.NoError(t, err)

	dms := f.notificationsFor(t, "B", domain.NotificationDirectMessage)
	require.Len(t, dms, 1)
	assert.Equal(t, "New message from Alice Kim", dms[0].Title)
}

func TestDMNotification_FailureDoesNotFailSend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	dm, err := f.channels.GetOrCreateDirectMessageChannel(ctx, "A", "B", "org1")
	require.NoError(t, err)
	require.NoError(t, f.db.Migrator().DropTable(&domain.Notification{}))

	msg, err := f.messages.SendMessage(ctx, dm.ID, "A", "still delivered", domain.SendOptions{})
	require.NoError(t, err)

	got, err := f.messages.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestDMNotification_NotForGroupChannels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ch := f.createChannel(t, "trio", domain.ChannelPrivate, "A")
	require.True(t, f.members.AddMember(ctx, ch.ID, "B", domain.RoleMember))
	require.True(t, f.members.AddMember(ctx, ch.ID, "C", domain.RoleMember))

	_, err := f.messages.SendMessage(ctx, ch.ID, "A", "hello all", domain.SendOptions{})
	require.NoError(t, err)

	assert.Empty(t, f.notificationsFor(t, "B", domain.NotificationDirectMessage))
}

func TestTruncatePreview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		limit   int
		want    string
	}{
		{name: "short", content: "hello", limit: 50, want: "hello"},
		{name: "exact", content: strings.Repeat("a", 50), limit: 50, want: strings.Repeat("a", 50)},
		{name: "long", content: strings.Repeat("a", 60), limit: 50, want: strings.Repeat("a", 50) + "..."},
		{name: "multibyte", content: "안녕하세요 여러분", limit: 5, want: "안녕하세요..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncatePreview(tt.content, tt.limit))
		})
	}
}
