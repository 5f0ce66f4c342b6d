package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/KDim67/boostflow-backend/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, userID string, buffer int) *Client {
	return &Client{
		hub:    hub,
		send:   make(chan []byte, buffer),
		userID: userID,
		done:   make(chan struct{}),
	}
}

func readEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestHub_PushToUser(t *testing.T) {
	hub := NewHub(nil, "")
	go hub.Run()
	defer hub.Stop()

	alice := newTestClient(hub, "alice", 4)
	bob := newTestClient(hub, "bob", 4)
	hub.Register(alice)
	hub.Register(bob)

	hub.PushToUser("alice", "unread_count", map[string]int{"total_unread": 2})

	ev := readEvent(t, alice)
	assert.Equal(t, "unread_count", ev.Type)
	assert.Equal(t, map[string]interface{}{"total_unread": float64(2)}, ev.Payload)

	select {
	case <-bob.send:
		t.Fatal("bob should not receive alice's event")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub(nil, "")
	go hub.Run()
	defer hub.Stop()

	c := newTestClient(hub, "alice", 1)
	hub.Register(c)
	assert.Eventually(t, func() bool { return hub.Connections("alice") == 1 }, time.Second, 5*time.Millisecond)

	hub.unregister <- c
	assert.Eventually(t, func() bool { return hub.Connections("alice") == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-c.send
	assert.False(t, ok)
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := NewHub(nil, "")
	go hub.Run()
	defer hub.Stop()

	c := newTestClient(hub, "alice", 1)
	hub.Register(c)

	hub.PushToUser("alice", "notification", "one")
	hub.PushToUser("alice", "notification", "two")

	assert.Eventually(t, func() bool { return hub.Connections("alice") == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_SendAfterStopDoesNotBlock(t *testing.T) {
	hub := NewHub(nil, "")
	hub.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			hub.PushToUser("alice", "notification", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("push blocked after stop")
	}
}

func TestForward_StreamsSnapshots(t *testing.T) {
	broker := realtime.NewBroker(nil, "")
	defer broker.Stop()

	c := newTestClient(nil, "alice", 4)
	topic := realtime.MessagesTopic("c1")
	sub := realtime.Subscribe(broker, topic, func(ctx context.Context) ([]string, error) {
		return []string{"hello"}, nil
	})

	go Forward(c, sub, "messages")

	ev := readEvent(t, c)
	assert.Equal(t, "messages", ev.Type)
	assert.Equal(t, []interface{}{"hello"}, ev.Payload)

	c.Close()
	assert.Eventually(t, func() bool { return broker.Subscribers(topic) == 0 }, time.Second, 5*time.Millisecond)
}
