// Package events is an in-process publish/subscribe bus for domain events.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Domain event topics
const (
	TopicMessageSent    = "message.sent"
	TopicMessageEdited  = "message.edited"
	TopicMessageDeleted = "message.deleted"
	TopicMessagePinned  = "message.pinned"
	TopicChannelCreated = "channel.created"
	TopicChannelUpdated = "channel.updated"
	TopicChannelDeleted = "channel.deleted"
	TopicMemberAdded    = "member.added"
	TopicMemberRemoved  = "member.removed"

	// TopicAll receives every published event
	TopicAll = "*"
)

// Event is a domain change notification
type Event struct {
	Topic     string                 `json:"topic"`
	Key       string                 `json:"key"` // partition key, usually the channel id
	Payload   map[string]interface{} `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

// Handler processes an event
type Handler func(event Event)

// Publisher publishes domain events
type Publisher interface {
	Publish(topic, key string, payload map[string]interface{})
}

type subscription struct {
	name    string
	handler Handler
}

// Bus delivers events synchronously to subscribers. A panicking handler is
// logged and does not affect other handlers or the publisher.
type Bus struct {
	subscribers map[string][]subscription
	mu          sync.RWMutex
	logger      zerolog.Logger
	now         func() time.Time
}

// NewBus creates a bus
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[string][]subscription),
		logger:      logger,
		now:         time.Now,
	}
}

// Subscribe registers handler for topic under name
func (b *Bus) Subscribe(name, topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[topic] = append(b.subscribers[topic], subscription{name: name, handler: handler})
	b.logger.Debug().Str("subscriber", name).Str("topic", topic).Msg("event subscription added")
}

// Unsubscribe removes every subscription registered under name
func (b *Bus) Unsubscribe(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, subs := range b.subscribers {
		var remaining []subscription
		for _, s := range subs {
			if s.name != name {
				remaining = append(remaining, s)
			}
		}
		if len(remaining) == 0 {
			delete(b.subscribers, topic)
		} else {
			b.subscribers[topic] = remaining
		}
	}
}

// Publish delivers the event to topic subscribers, then to TopicAll subscribers
func (b *Bus) Publish(topic, key string, payload map[string]interface{}) {
	b.mu.RLock()
	subs := make([]subscription, 0, len(b.subscribers[topic])+len(b.subscribers[TopicAll]))
	subs = append(subs, b.subscribers[topic]...)
	if topic != TopicAll {
		subs = append(subs, b.subscribers[TopicAll]...)
	}
	b.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	event := Event{
		Topic:     topic,
		Key:       key,
		Payload:   payload,
		Timestamp: b.now().UTC(),
	}

	for _, s := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error().
						Str("topic", topic).
						Str("subscriber", s.name).
						Interface("panic", r).
						Msg("event handler panicked")
				}
			}()
			s.handler(event)
		}()
	}
}

// Subscriptions returns subscriber names per topic
func (b *Bus) Subscriptions() map[string][]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	result := make(map[string][]string)
	for topic, subs := range b.subscribers {
		for _, s := range subs {
			result[topic] = append(result[topic], s.name)
		}
	}
	return result
}
