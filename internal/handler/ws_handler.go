package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/KDim67/boostflow-backend/internal/common"
	"github.com/KDim67/boostflow-backend/internal/domain"
	"github.com/KDim67/boostflow-backend/internal/middleware"
	"github.com/KDim67/boostflow-backend/internal/realtime"
	"github.com/KDim67/boostflow-backend/internal/service"
	"github.com/KDim67/boostflow-backend/internal/ws"
	"github.com/KDim67/boostflow-backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Stream event types
const (
	EventMessages = "messages"
	EventChannels = "channels"
)

// WSHandler handles WebSocket connections: the per-user notification socket
// and live query streams over channels and messages
type WSHandler struct {
	hub            *ws.Hub
	broker         *realtime.Broker
	channels       service.ChannelService
	messages       service.MessageService
	access         *ChannelAccess
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler. broker may be nil, streams then answer 503.
func NewWSHandler(
	hub *ws.Hub,
	broker *realtime.Broker,
	channels service.ChannelService,
	messages service.MessageService,
	access *ChannelAccess,
	allowedOrigins string,
) *WSHandler {
	h := &WSHandler{
		hub:            hub,
		broker:         broker,
		channels:       channels,
		messages:       messages,
		access:         access,
		allowedOrigins: parseOrigins(allowedOrigins),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// parseOrigins parses comma-separated origins string
func parseOrigins(origins string) []string {
	if origins == "" {
		return nil
	}
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// checkOrigin validates the request origin against allowed origins
func (h *WSHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.allowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
	}
	return false
}

// Connect handles GET /ws/notifications
func (h *WSHandler) Connect(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		common.ErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(h.hub, conn, userID)
	h.hub.Register(client)
	release := middleware.TrackWebSocket("notifications")
	go func() {
		<-client.Done()
		release()
	}()

	go client.WritePump()
	go client.ReadPump()
}

// StreamMessages handles GET /ws/channels/:id/messages.
// Every change to the channel's messages pushes the current window, oldest first.
func (h *WSHandler) StreamMessages(c *gin.Context) {
	q, err := ParseMessageQuery(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}
	if h.broker == nil {
		common.ErrorResponse(c, http.StatusServiceUnavailable, "Realtime is not available", common.ErrRealtimeUnavailable)
		return
	}
	ch, ok := h.access.Load(c, c.Param("id"))
	if !ok {
		return
	}

	channelID := ch.ID
	streamQuery[[]*domain.Message](h, c, "messages", realtime.MessagesTopic(channelID), EventMessages,
		func(ctx context.Context) ([]*domain.Message, error) {
			return h.messages.GetMessages(ctx, channelID, q)
		})
}

// StreamChannels handles GET /ws/organizations/:orgId/channels.
// Pushes the channels visible to the caller whenever the organization's directory changes.
func (h *WSHandler) StreamChannels(c *gin.Context) {
	if h.broker == nil {
		common.ErrorResponse(c, http.StatusServiceUnavailable, "Realtime is not available", common.ErrRealtimeUnavailable)
		return
	}

	orgID := c.Param("orgId")
	userID := middleware.GetUserID(c)
	streamQuery[[]*domain.Channel](h, c, "channels", realtime.ChannelsTopic(orgID), EventChannels,
		func(ctx context.Context) ([]*domain.Channel, error) {
			return h.channels.ListChannelsVisibleToUser(ctx, orgID, userID)
		})
}

// streamQuery upgrades the request and binds a live query to the connection.
// The subscription is released when the socket closes.
func streamQuery[T any](h *WSHandler, c *gin.Context, kind, topic, eventType string, load realtime.Loader[T]) {
	userID := middleware.GetUserID(c)
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewStreamClient(conn, userID)
	sub := realtime.Subscribe(h.broker, topic, load)
	release := middleware.TrackWebSocket(kind)
	logger.GetLogger().Debug().Str("user_id", userID).Str("topic", topic).Msg("stream opened")

	go func() {
		ws.Forward(client, sub, eventType)
		release()
		logger.GetLogger().Debug().Str("user_id", userID).Str("topic", topic).Msg("stream closed")
	}()
	go client.WritePump()
	go client.ReadPump()
}
