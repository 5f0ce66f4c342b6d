// Package realtime delivers live query snapshots to subscribers.
//
// A subscription re-runs its query whenever its topic is notified and pushes
// the latest result. Pending changes coalesce: a slow consumer only ever sees
// the newest snapshot. Notifications are shared across instances through a
// Redis pub/sub channel when a client is configured.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/KDim67/boostflow-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// MessagesTopic is notified on every change to a channel's messages
func MessagesTopic(channelID string) string { return "messages:" + channelID }

// ChannelsTopic is notified on every change to an organization's channels
func ChannelsTopic(orgID string) string { return "channels:" + orgID }

// DefaultRedisChannel carries topic notifications between instances
const DefaultRedisChannel = "boostflow:realtime"

type listener interface {
	markDirty()
}

// Broker routes topic notifications to live subscriptions
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[listener]struct{}

	redisClient  *redis.Client
	redisChannel string
	origin       string

	ctx    context.Context
	cancel context.CancelFunc
}

// NewBroker creates a broker. redisClient may be nil for a single instance.
func NewBroker(redisClient *redis.Client, redisChannel string) *Broker {
	if redisChannel == "" {
		redisChannel = DefaultRedisChannel
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		subs:         make(map[string]map[listener]struct{}),
		redisClient:  redisClient,
		redisChannel: redisChannel,
		origin:       uuid.NewString(),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start begins listening for notifications from other instances
func (b *Broker) Start() {
	if b.redisClient != nil {
		go b.subscribeRedis()
	}
}

// Stop shuts down the Redis listener and every open subscription
func (b *Broker) Stop() {
	b.cancel()
}

// Done is closed once the broker is stopped
func (b *Broker) Done() <-chan struct{} {
	return b.ctx.Done()
}

// Notify marks every subscription on topic as stale
func (b *Broker) Notify(ctx context.Context, topic string) {
	b.notifyLocal(topic)

	if b.redisClient == nil {
		return
	}
	data, err := json.Marshal(&redisMessage{Origin: b.origin, Topic: topic})
	if err != nil {
		return
	}
	if err := b.redisClient.Publish(ctx, b.redisChannel, data).Err(); err != nil {
		logger.GetLogger().Warn().Err(err).Str("topic", topic).Msg("realtime publish failed")
	}
}

// Subscribers returns the number of live subscriptions on topic
func (b *Broker) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

func (b *Broker) notifyLocal(topic string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for l := range b.subs[topic] {
		l.markDirty()
	}
}

func (b *Broker) add(topic string, l listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[listener]struct{})
	}
	b.subs[topic][l] = struct{}{}
}

func (b *Broker) remove(topic string, l listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.subs[topic]; ok {
		delete(set, l)
		if len(set) == 0 {
			delete(b.subs, topic)
		}
	}
}

type redisMessage struct {
	Origin string `json:"origin"`
	Topic  string `json:"topic"`
}

func (b *Broker) subscribeRedis() {
	pubsub := b.redisClient.Subscribe(b.ctx, b.redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var rm redisMessage
			if err := json.Unmarshal([]byte(msg.Payload), &rm); err != nil {
				continue
			}
			// local subscribers were already notified by the publishing call
			if rm.Origin == b.origin {
				continue
			}
			b.notifyLocal(rm.Topic)
		case <-b.ctx.Done():
			return
		}
	}
}
