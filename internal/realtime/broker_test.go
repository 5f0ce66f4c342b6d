package realtime

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, s *Subscription[T]) T {
	t.Helper()
	select {
	case v, ok := <-s.Updates():
		require.True(t, ok, "updates closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	var zero T
	return zero
}

func TestSubscribe_InitialSnapshot(t *testing.T) {
	b := NewBroker(nil, "")
	defer b.Stop()

	sub := Subscribe(b, MessagesTopic("c1"), func(ctx context.Context) ([]string, error) {
		return []string{"hello"}, nil
	})
	defer sub.Unsubscribe()

	assert.Equal(t, []string{"hello"}, receive(t, sub))
}

func TestNotify_RerunsQuery(t *testing.T) {
	b := NewBroker(nil, "")
	defer b.Stop()

	var n atomic.Int32
	sub := Subscribe(b, MessagesTopic("c1"), func(ctx context.Context) (int32, error) {
		return n.Load(), nil
	})
	defer sub.Unsubscribe()

	assert.Equal(t, int32(0), receive(t, sub))

	n.Store(7)
	b.Notify(context.Background(), MessagesTopic("c1"))
	assert.Equal(t, int32(7), receive(t, sub))
}

func TestNotify_OtherTopicIgnored(t *testing.T) {
	b := NewBroker(nil, "")
	defer b.Stop()

	var calls atomic.Int32
	sub := Subscribe(b, MessagesTopic("c1"), func(ctx context.Context) (int32, error) {
		return calls.Add(1), nil
	})
	defer sub.Unsubscribe()
	receive(t, sub)

	b.Notify(context.Background(), MessagesTopic("c2"))

	select {
	case v := <-sub.Updates():
		t.Fatalf("unexpected snapshot %d", v)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestSubscription_LatestWins(t *testing.T) {
	b := NewBroker(nil, "")
	defer b.Stop()

	var n atomic.Int32
	sub := Subscribe(b, ChannelsTopic("org"), func(ctx context.Context) (int32, error) {
		return n.Load(), nil
	})
	defer sub.Unsubscribe()

	for i := 1; i <= 5; i++ {
		n.Store(int32(i))
		b.Notify(context.Background(), ChannelsTopic("org"))
	}

	assert.Eventually(t, func() bool {
		select {
		case v := <-sub.Updates():
			return v == 5
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSubscription_LoadErrorKeepsStreamOpen(t *testing.T) {
	b := NewBroker(nil, "")
	defer b.Stop()

	var fail atomic.Bool
	fail.Store(true)
	sub := Subscribe(b, MessagesTopic("c1"), func(ctx context.Context) (string, error) {
		if fail.Load() {
			return "", errors.New("boom")
		}
		return "ok", nil
	})
	defer sub.Unsubscribe()

	fail.Store(false)
	assert.Eventually(t, func() bool {
		b.Notify(context.Background(), MessagesTopic("c1"))
		select {
		case v := <-sub.Updates():
			return v == "ok"
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	b := NewBroker(nil, "")
	defer b.Stop()

	topic := MessagesTopic("c1")
	sub := Subscribe(b, topic, func(ctx context.Context) (int, error) { return 1, nil })
	assert.Equal(t, 1, b.Subscribers(topic))

	sub.Unsubscribe()
	sub.Unsubscribe()

	assert.Equal(t, 0, b.Subscribers(topic))
	<-sub.Done()

	assert.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-sub.Updates():
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStop_ClosesSubscriptions(t *testing.T) {
	b := NewBroker(nil, "")

	sub := Subscribe(b, MessagesTopic("c1"), func(ctx context.Context) (int, error) { return 1, nil })
	b.Stop()

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not torn down")
	}
}
