package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/KDim67/boostflow-backend/internal/common"
	"github.com/KDim67/boostflow-backend/internal/domain"
	"github.com/KDim67/boostflow-backend/internal/middleware"
	"github.com/KDim67/boostflow-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// MaxMessageLimit caps the window a client may request
const MaxMessageLimit = 200

// MessageHandler handles message log requests
type MessageHandler struct {
	messages service.MessageService
	access   *ChannelAccess
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messages service.MessageService, access *ChannelAccess) *MessageHandler {
	return &MessageHandler{messages: messages, access: access}
}

// ParseMessageQuery reads limit, before and after (RFC 3339) query parameters
func ParseMessageQuery(c *gin.Context) (domain.MessageQuery, error) {
	var q domain.MessageQuery
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return q, common.ErrInvalidInput
		}
		if n > MaxMessageLimit {
			n = MaxMessageLimit
		}
		q.Limit = n
	}
	for param, dst := range map[string]**time.Time{"before": &q.Before, "after": &q.After} {
		v := c.Query(param)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return q, common.ErrInvalidInput
		}
		*dst = &t
	}
	return q.WithDefaults(), nil
}

// ListMessages handles GET /api/v1/channels/:id/messages
func (h *MessageHandler) ListMessages(c *gin.Context) {
	q, err := ParseMessageQuery(c)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}
	ch, ok := h.access.Load(c, c.Param("id"))
	if !ok {
		return
	}

	messages, err := h.messages.GetMessages(c.Request.Context(), ch.ID, q)
	if err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to load messages", err)
		return
	}
	common.SuccessResponse(c, messages, &common.Meta{ChannelID: ch.ID, Limit: q.Limit})
}

// SendMessage handles POST /api/v1/channels/:id/messages
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ch, ok := h.access.Load(c, c.Param("id"))
	if !ok {
		return
	}
	if ch.IsArchived {
		common.ErrorResponse(c, http.StatusConflict, "Channel is archived", nil)
		return
	}

	msg, err := h.messages.SendMessage(c.Request.Context(), ch.ID, middleware.GetUserID(c), req.Content, domain.SendOptions{
		AuthorName: middleware.GetNickname(c),
		Mentions:   req.Mentions,
		ThreadID:   req.ThreadID,
	})
	if err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to send message", err)
		return
	}
	common.CreatedResponse(c, msg)
}

// ListPinned handles GET /api/v1/channels/:id/pins
func (h *MessageHandler) ListPinned(c *gin.Context) {
	ch, ok := h.access.Load(c, c.Param("id"))
	if !ok {
		return
	}

	pinned, err := h.messages.ListPinned(c.Request.Context(), ch.ID)
	if err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to load pinned messages", err)
		return
	}
	common.SuccessResponse(c, pinned, &common.Meta{ChannelID: ch.ID, Total: int64(len(pinned))})
}

// loadMessage resolves a message and the channel it belongs to
func (h *MessageHandler) loadMessage(c *gin.Context) (*domain.Message, *domain.Channel, bool) {
	msg, err := h.messages.GetMessage(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to load message", err)
		return nil, nil, false
	}
	if msg == nil {
		common.ErrorResponse(c, http.StatusNotFound, "Message not found", nil)
		return nil, nil, false
	}
	ch, ok := h.access.Load(c, msg.ChannelID)
	if !ok {
		return nil, nil, false
	}
	return msg, ch, true
}

// EditMessage handles PATCH /api/v1/messages/:id. Only the author may edit.
func (h *MessageHandler) EditMessage(c *gin.Context) {
	var req domain.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	msg, _, ok := h.loadMessage(c)
	if !ok {
		return
	}
	if msg.Author != middleware.GetUserID(c) {
		common.ErrorResponse(c, http.StatusForbidden, "Only the author can edit a message", nil)
		return
	}

	edited, err := h.messages.EditMessage(c.Request.Context(), msg.ID, req.Content)
	if err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to edit message", err)
		return
	}
	if edited == nil {
		common.ErrorResponse(c, http.StatusNotFound, "Message not found", nil)
		return
	}
	common.SuccessResponse(c, edited, nil)
}

// DeleteMessage handles DELETE /api/v1/messages/:id. The author or a channel admin may delete.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	msg, ch, ok := h.loadMessage(c)
	if !ok {
		return
	}
	if msg.Author != middleware.GetUserID(c) {
		allowed, err := h.access.CanManage(c, ch)
		if err != nil {
			common.ErrorResponse(c, common.StatusFor(err), "Failed to check channel role", err)
			return
		}
		if !allowed {
			common.ErrorResponse(c, http.StatusForbidden, "Not allowed to delete this message", nil)
			return
		}
	}

	if !h.messages.DeleteMessage(c.Request.Context(), msg.ID) {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to delete message", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// PinMessage handles POST /api/v1/messages/:id/pin
func (h *MessageHandler) PinMessage(c *gin.Context) {
	h.setPinned(c, true)
}

// UnpinMessage handles DELETE /api/v1/messages/:id/pin
func (h *MessageHandler) UnpinMessage(c *gin.Context) {
	h.setPinned(c, false)
}

func (h *MessageHandler) setPinned(c *gin.Context, pinned bool) {
	msg, _, ok := h.loadMessage(c)
	if !ok {
		return
	}

	var done bool
	if pinned {
		done = h.messages.PinMessage(c.Request.Context(), msg.ID)
	} else {
		done = h.messages.UnpinMessage(c.Request.Context(), msg.ID)
	}
	if !done {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to update pin", nil)
		return
	}
	common.SuccessResponse(c, gin.H{"id": msg.ID, "is_pinned": pinned}, nil)
}
