package service

import (
	"context"
	"time"

	"github.com/KDim67/boostflow-backend/internal/events"
	"github.com/KDim67/boostflow-backend/pkg/logger"
)

// RealtimeNotifier marks live queries on a topic as stale
type RealtimeNotifier interface {
	Notify(ctx context.Context, topic string)
}

// Option configures a service
type Option func(*options)

type options struct {
	now      func() time.Time
	effects  Effects
	events   events.Publisher
	realtime RealtimeNotifier
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithEffects overrides the best-effort side effect runner
func WithEffects(e Effects) Option {
	return func(o *options) { o.effects = e }
}

// WithEvents publishes domain events to p
func WithEvents(p events.Publisher) Option {
	return func(o *options) { o.events = p }
}

// WithRealtime notifies live subscriptions through n
func WithRealtime(n RealtimeNotifier) Option {
	return func(o *options) { o.realtime = n }
}

func newOptions(opts []Option) options {
	o := options{
		now:      time.Now,
		events:   nopPublisher{},
		realtime: nopNotifier{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.effects == nil {
		o.effects = NewLoggingEffects(*logger.WithComponent("effects"))
	}
	return o
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, string, map[string]interface{}) {}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string) {}
