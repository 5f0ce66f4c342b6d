package handler

import (
	"net/http"

	"github.com/KDim67/boostflow-backend/internal/common"
	"github.com/KDim67/boostflow-backend/internal/domain"
	"github.com/KDim67/boostflow-backend/internal/middleware"
	"github.com/KDim67/boostflow-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ChannelHandler handles channel directory and membership requests
type ChannelHandler struct {
	channels service.ChannelService
	members  service.MembershipService
	orgs     middleware.OrgMembershipChecker
	access   *ChannelAccess
}

// NewChannelHandler creates a new ChannelHandler
func NewChannelHandler(channels service.ChannelService, members service.MembershipService, orgs middleware.OrgMembershipChecker, access *ChannelAccess) *ChannelHandler {
	return &ChannelHandler{channels: channels, members: members, orgs: orgs, access: access}
}

// CreateChannel handles POST /api/v1/organizations/:orgId/channels
func (h *ChannelHandler) CreateChannel(c *gin.Context) {
	var req domain.CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req.CreatedBy = middleware.GetUserID(c)
	req.OrganizationID = c.Param("orgId")

	ch, err := h.channels.CreateChannel(c.Request.Context(), &req)
	if err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to create channel", err)
		return
	}
	common.CreatedResponse(c, ch)
}

// ListChannels handles GET /api/v1/organizations/:orgId/channels
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	channels, err := h.channels.ListChannelsForOrganization(c.Request.Context(), c.Param("orgId"))
	if err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to list channels", err)
		return
	}
	common.SuccessResponse(c, channels, &common.Meta{Total: int64(len(channels))})
}

// ListVisibleChannels handles GET /api/v1/organizations/:orgId/channels/visible
func (h *ChannelHandler) ListVisibleChannels(c *gin.Context) {
	channels, err := h.channels.ListChannelsVisibleToUser(c.Request.Context(), c.Param("orgId"), middleware.GetUserID(c))
	if err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to list channels", err)
		return
	}
	common.SuccessResponse(c, channels, &common.Meta{Total: int64(len(channels))})
}

// OpenDirectMessage handles POST /api/v1/organizations/:orgId/dm
func (h *ChannelHandler) OpenDirectMessage(c *gin.Context) {
	var req domain.DirectMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	orgID := c.Param("orgId")

	if h.orgs != nil {
		ok, err := h.orgs.IsOrganizationMember(c.Request.Context(), orgID, req.UserID)
		if err != nil {
			common.ErrorResponse(c, http.StatusInternalServerError, "Failed to check organization access", err)
			return
		}
		if !ok {
			common.ErrorResponse(c, http.StatusBadRequest, "User is not a member of this organization", nil)
			return
		}
	}

	ch, err := h.channels.GetOrCreateDirectMessageChannel(c.Request.Context(), middleware.GetUserID(c), req.UserID, orgID)
	if err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to open direct message", err)
		return
	}
	common.SuccessResponse(c, ch, nil)
}

// GetChannel handles GET /api/v1/channels/:id
func (h *ChannelHandler) GetChannel(c *gin.Context) {
	ch, ok := h.access.Load(c, c.Param("id"))
	if !ok {
		return
	}
	common.SuccessResponse(c, ch, nil)
}

// UpdateChannel handles PATCH /api/v1/channels/:id
func (h *ChannelHandler) UpdateChannel(c *gin.Context) {
	var req domain.UpdateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ch, ok := h.access.LoadManaged(c, c.Param("id"))
	if !ok {
		return
	}

	updated, err := h.channels.UpdateChannel(c.Request.Context(), ch.ID, &req)
	if err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to update channel", err)
		return
	}
	if updated == nil {
		common.ErrorResponse(c, http.StatusNotFound, "Channel not found", nil)
		return
	}
	common.SuccessResponse(c, updated, nil)
}

type archiveRequest struct {
	Archived *bool `json:"archived" binding:"required"`
}

// ArchiveChannel handles POST /api/v1/channels/:id/archive
func (h *ChannelHandler) ArchiveChannel(c *gin.Context) {
	var req archiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ch, ok := h.access.LoadManaged(c, c.Param("id"))
	if !ok {
		return
	}

	updated, err := h.channels.ArchiveChannel(c.Request.Context(), ch.ID, *req.Archived)
	if err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to archive channel", err)
		return
	}
	if updated == nil {
		common.ErrorResponse(c, http.StatusNotFound, "Channel not found", nil)
		return
	}
	common.SuccessResponse(c, updated, nil)
}

// DeleteChannel handles DELETE /api/v1/channels/:id
func (h *ChannelHandler) DeleteChannel(c *gin.Context) {
	ch, ok := h.access.LoadManaged(c, c.Param("id"))
	if !ok {
		return
	}

	deleted, err := h.channels.DeleteChannel(c.Request.Context(), ch.ID)
	if err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to delete channel", err)
		return
	}
	if !deleted {
		common.ErrorResponse(c, http.StatusNotFound, "Channel not found", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMembers handles GET /api/v1/channels/:id/members
func (h *ChannelHandler) ListMembers(c *gin.Context) {
	ch, ok := h.access.Load(c, c.Param("id"))
	if !ok {
		return
	}

	members, err := h.members.ListMembers(c.Request.Context(), ch.ID)
	if err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to list members", err)
		return
	}
	common.SuccessResponse(c, members, &common.Meta{ChannelID: ch.ID, Total: int64(len(members))})
}

// AddMember handles POST /api/v1/channels/:id/members.
// Anyone who can see a public channel may join it; adding others or joining a private channel needs the admin role.
func (h *ChannelHandler) AddMember(c *gin.Context) {
	var req domain.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var ch *domain.Channel
	var ok bool
	if req.UserID == middleware.GetUserID(c) && req.Role != domain.RoleAdmin {
		ch, ok = h.access.Load(c, c.Param("id"))
	} else {
		ch, ok = h.access.LoadManaged(c, c.Param("id"))
	}
	if !ok {
		return
	}
	if ch.IsArchived {
		common.ErrorResponse(c, http.StatusConflict, "Channel is archived", nil)
		return
	}
	if ch.IsDirect {
		common.ErrorResponse(c, http.StatusConflict, "Direct message membership is fixed", nil)
		return
	}

	if !h.members.AddMember(c.Request.Context(), ch.ID, req.UserID, req.Role) {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to add member", nil)
		return
	}
	membership, err := h.members.GetMembership(c.Request.Context(), ch.ID, req.UserID)
	if err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to load membership", err)
		return
	}
	common.CreatedResponse(c, membership)
}

// RemoveMember handles DELETE /api/v1/channels/:id/members/:userId.
// Members may always leave; removing someone else needs the admin role.
func (h *ChannelHandler) RemoveMember(c *gin.Context) {
	target := c.Param("userId")

	var ch *domain.Channel
	var ok bool
	if target == middleware.GetUserID(c) {
		ch, ok = h.access.Load(c, c.Param("id"))
	} else {
		ch, ok = h.access.LoadManaged(c, c.Param("id"))
	}
	if !ok {
		return
	}
	if ch.IsDirect {
		common.ErrorResponse(c, http.StatusConflict, "Direct message membership is fixed", nil)
		return
	}

	if !h.members.RemoveMember(c.Request.Context(), ch.ID, target) {
		common.ErrorResponse(c, http.StatusInternalServerError, "Failed to remove member", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkRead handles POST /api/v1/channels/:id/read
func (h *ChannelHandler) MarkRead(c *gin.Context) {
	ch, ok := h.access.Load(c, c.Param("id"))
	if !ok {
		return
	}

	if !h.members.MarkRead(c.Request.Context(), ch.ID, middleware.GetUserID(c)) {
		common.ErrorResponse(c, http.StatusNotFound, "Not a member of this channel", nil)
		return
	}
	common.SuccessResponse(c, gin.H{"success": true}, nil)
}
