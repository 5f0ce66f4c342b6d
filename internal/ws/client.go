package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/KDim67/boostflow-backend/internal/realtime"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client represents a single WebSocket connection. Notification clients are
// owned by a Hub; stream clients carry one live query subscription.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a hub-managed notification client
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
		done:   make(chan struct{}),
	}
}

// NewStreamClient creates a client that is fed by Forward
func NewStreamClient(conn *websocket.Conn, userID string) *Client {
	return NewClient(nil, conn, userID)
}

// Done is closed when the connection goes away
func (c *Client) Done() <-chan struct{} { return c.done }

// Close marks the client finished. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Forward streams every snapshot of sub to the client until either side ends.
// The subscription is torn down on return.
func Forward[T any](c *Client, sub *realtime.Subscription[T], eventType string) {
	defer sub.Unsubscribe()
	for {
		select {
		case <-c.done:
			return
		case snapshot, ok := <-sub.Updates():
			if !ok {
				c.Close()
				return
			}
			data, err := json.Marshal(&Event{Type: eventType, Payload: snapshot})
			if err != nil {
				continue
			}
			select {
			case c.send <- data:
			case <-c.done:
				return
			}
		}
	}
}

// ReadPump reads messages from the WebSocket (handles pong/close)
func (c *Client) ReadPump() {
	defer func() {
		c.Close()
		if c.hub != nil {
			select {
			case c.hub.unregister <- c:
			case <-c.hub.ctx.Done():
			}
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
		// Client messages are ignored (server-push only)
	}
}

// WritePump sends messages to the WebSocket
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message) //nolint:errcheck
			if err := w.Close(); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
