package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/KDim67/boostflow-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannel carries user events between instances
const DefaultRedisChannel = "boostflow:user-events"

// Event is a message pushed to a WebSocket client
type Event struct {
	Type    string      `json:"type"`    // "notification", "unread_count", "messages", "channels"
	Payload interface{} `json:"payload"` // event-specific data
}

// Hub tracks per-user notification connections and fans events out to them
type Hub struct {
	// Registered clients grouped by user ID
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *targetedEvent

	mu           sync.RWMutex
	redisClient  *redis.Client
	redisChannel string
	origin       string
	ctx          context.Context
	cancel       context.CancelFunc
}

type targetedEvent struct {
	UserID string
	Event  *Event
}

// NewHub creates a new Hub. redisClient may be nil for a single instance.
func NewHub(redisClient *redis.Client, redisChannel string) *Hub {
	if redisChannel == "" {
		redisChannel = DefaultRedisChannel
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:      make(map[string]map[*Client]bool),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		broadcast:    make(chan *targetedEvent, 256),
		redisClient:  redisClient,
		redisChannel: redisChannel,
		origin:       uuid.NewString(),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Connections returns the number of open connections of a user
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	if h.redisClient != nil {
		go h.subscribeRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[client.userID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)
			if len(clients) == 0 {
				delete(h.clients, client.userID)
			}
		}
	}
}

func (h *Hub) deliver(msg *targetedEvent) {
	data, err := json.Marshal(msg.Event)
	if err != nil {
		return
	}

	var slow []*Client
	h.mu.RLock()
	for client := range h.clients[msg.UserID] {
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	// drop clients that cannot keep up
	for _, client := range slow {
		h.remove(client)
	}
}

// PushToUser sends an event to every connection of a user on every instance
func (h *Hub) PushToUser(userID, eventType string, payload interface{}) {
	h.SendToUser(userID, &Event{Type: eventType, Payload: payload})
}

// SendToUser sends an event to a specific user (local + Redis publish)
func (h *Hub) SendToUser(userID string, event *Event) {
	select {
	case h.broadcast <- &targetedEvent{UserID: userID, Event: event}:
	case <-h.ctx.Done():
		return
	}

	if h.redisClient != nil {
		msg := &redisMessage{Origin: h.origin, UserID: userID, Event: event}
		data, err := json.Marshal(msg)
		if err == nil {
			if err := h.redisClient.Publish(h.ctx, h.redisChannel, data).Err(); err != nil {
				logger.GetLogger().Warn().Err(err).Str("user_id", userID).Msg("ws publish failed")
			}
		}
	}
}

type redisMessage struct {
	Origin string `json:"origin"`
	UserID string `json:"user_id"`
	Event  *Event `json:"event"`
}

// subscribeRedis listens for events published by other instances
func (h *Hub) subscribeRedis() {
	pubsub := h.redisClient.Subscribe(h.ctx, h.redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var rm redisMessage
			if err := json.Unmarshal([]byte(msg.Payload), &rm); err != nil || rm.Origin == h.origin {
				continue
			}
			// local broadcast only, never re-published
			select {
			case h.broadcast <- &targetedEvent{UserID: rm.UserID, Event: rm.Event}:
			case <-h.ctx.Done():
				return
			}
		case <-h.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the hub
func (h *Hub) Stop() {
	h.cancel()
}
