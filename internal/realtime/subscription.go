package realtime

import (
	"context"
	"sync"

	"github.com/KDim67/boostflow-backend/pkg/logger"
)

// Loader runs the subscribed query and returns its current result set
type Loader[T any] func(ctx context.Context) (T, error)

// Subscription is a live query. Updates delivers the initial result and then
// the latest result after every change. It is closed after Unsubscribe.
type Subscription[T any] struct {
	broker *Broker
	topic  string
	load   Loader[T]

	dirty   chan struct{}
	updates chan T
	done    chan struct{}
	once    sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

// Subscribe opens a live query on topic. The caller must call Unsubscribe.
func Subscribe[T any](b *Broker, topic string, load Loader[T]) *Subscription[T] {
	ctx, cancel := context.WithCancel(b.ctx)
	s := &Subscription[T]{
		broker:  b,
		topic:   topic,
		load:    load,
		dirty:   make(chan struct{}, 1),
		updates: make(chan T, 1),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	b.add(topic, s)
	s.markDirty()
	go s.run()
	return s
}

// Topic returns the subscribed topic
func (s *Subscription[T]) Topic() string { return s.topic }

// Updates returns the snapshot stream
func (s *Subscription[T]) Updates() <-chan T { return s.updates }

// Done is closed once the subscription is torn down
func (s *Subscription[T]) Done() <-chan struct{} { return s.done }

// Unsubscribe tears the subscription down. Safe to call more than once.
func (s *Subscription[T]) Unsubscribe() {
	s.once.Do(func() {
		s.broker.remove(s.topic, s)
		s.cancel()
		close(s.done)
	})
}

func (s *Subscription[T]) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Subscription[T]) run() {
	defer close(s.updates)
	for {
		select {
		case <-s.ctx.Done():
			s.Unsubscribe()
			return
		case <-s.dirty:
		}

		snapshot, err := s.load(s.ctx)
		if err != nil {
			if s.ctx.Err() == nil {
				logger.GetLogger().Warn().Err(err).Str("topic", s.topic).Msg("realtime query failed")
			}
			continue
		}
		s.deliver(snapshot)
	}
}

// deliver replaces any snapshot the consumer has not picked up yet
func (s *Subscription[T]) deliver(snapshot T) {
	for {
		select {
		case s.updates <- snapshot:
			return
		case <-s.ctx.Done():
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}
