package service

import (
	"context"
	"sync"
	"testing"

	"github.com/KDim67/boostflow-backend/internal/domain"
	"github.com/KDim67/boostflow-backend/internal/repository"
	"github.com/KDim67/boostflow-backend/internal/testutil"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	clock *testutil.StepClock

	channelRepo      repository.ChannelRepository
	membershipRepo   repository.MembershipRepository
	messageRepo      repository.MessageRepository
	notificationRepo repository.NotificationRepository

	notifications *NotificationService
	members       MembershipService
	channels      ChannelService
	messages      MessageService

	events   *eventRecorder
	realtime *notifyRecorder
	pusher   *pushRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := testutil.NewStepClock()
	db := testutil.OpenDB(t, clock)

	f := &fixture{
		db:               db,
		clock:            clock,
		channelRepo:      repository.NewChannelRepository(db),
		membershipRepo:   repository.NewMembershipRepository(db),
		messageRepo:      repository.NewMessageRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
		events:           &eventRecorder{},
		realtime:         &notifyRecorder{},
		pusher:           &pushRecorder{},
	}

	opts := []Option{
		WithClock(clock.Now),
		WithEffects(NewLoggingEffects(zerolog.Nop())),
		WithEvents(f.events),
		WithRealtime(f.realtime),
	}

	profiles := repository.NewProfileRepository(db)
	f.notifications = NewNotificationService(f.notificationRepo, f.pusher)
	f.members = NewMembershipService(f.channelRepo, f.membershipRepo, f.notifications, opts...)
	f.channels = NewChannelService(f.channelRepo, f.membershipRepo, f.messageRepo, f.members, opts...)
	dm := NewDMNotifier(f.notifications, profiles, DefaultNotificationScanLimit, DefaultPreviewLength)
	f.messages = NewMessageService(f.messageRepo, f.channelRepo, dm, f.notifications, opts...)
	return f
}

func (f *fixture) createChannel(t *testing.T, name string, typ domain.ChannelType, creator string) *domain.Channel {
	t.Helper()
	ch, err := f.channels.CreateChannel(context.Background(), &domain.CreateChannelRequest{
		Name:           name,
		Type:           typ,
		CreatedBy:      creator,
		OrganizationID: "org1",
	})
	if err != nil {
		t.Fatalf("create channel: %v", err)
	}
	return ch
}

func (f *fixture) notificationsFor(t *testing.T, userID, typ string) []*domain.Notification {
	t.Helper()
	var out []*domain.Notification
	if err := f.db.Where("user_id = ? AND type = ?", userID, typ).Order("created_at ASC").Find(&out).Error; err != nil {
		t.Fatalf("query notifications: %v", err)
	}
	return out
}

type eventRecorder struct {
	mu     sync.Mutex
	topics []string
}

func (r *eventRecorder) Publish(topic, _ string, _ map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
}

func (r *eventRecorder) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.topics...)
}

type notifyRecorder struct {
	mu     sync.Mutex
	topics []string
}

func (r *notifyRecorder) Notify(_ context.Context, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
}

func (r *notifyRecorder) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.topics...)
}

type pushRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *pushRecorder) PushToUser(userID, eventType string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, userID+":"+eventType)
}

func (r *pushRecorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}
