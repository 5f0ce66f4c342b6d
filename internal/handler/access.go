package handler

import (
	"net/http"

	"github.com/KDim67/boostflow-backend/internal/common"
	"github.com/KDim67/boostflow-backend/internal/domain"
	"github.com/KDim67/boostflow-backend/internal/middleware"
	"github.com/KDim67/boostflow-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ChannelAccess resolves a channel and checks the caller may see it:
// the caller must belong to the channel's organization, and to the channel itself if it is private.
type ChannelAccess struct {
	channels service.ChannelService
	members  service.MembershipService
	orgs     middleware.OrgMembershipChecker
}

// NewChannelAccess creates a ChannelAccess. orgs may be nil to skip the organization check.
func NewChannelAccess(channels service.ChannelService, members service.MembershipService, orgs middleware.OrgMembershipChecker) *ChannelAccess {
	return &ChannelAccess{channels: channels, members: members, orgs: orgs}
}

// Load returns the channel or writes the error response and returns false
func (a *ChannelAccess) Load(c *gin.Context, channelID string) (*domain.Channel, bool) {
	ch, err := a.channels.GetChannel(c.Request.Context(), channelID)
	if err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to load channel", err)
		return nil, false
	}
	if ch == nil {
		common.ErrorResponse(c, http.StatusNotFound, "Channel not found", nil)
		return nil, false
	}

	userID := middleware.GetUserID(c)
	if a.orgs != nil && middleware.GetTokenOrgID(c) != ch.OrganizationID {
		ok, err := a.orgs.IsOrganizationMember(c.Request.Context(), ch.OrganizationID, userID)
		if err != nil {
			common.ErrorResponse(c, http.StatusInternalServerError, "Failed to check organization access", err)
			return nil, false
		}
		if !ok {
			common.ErrorResponse(c, http.StatusForbidden, "Not a member of this organization", nil)
			return nil, false
		}
	}

	if ch.Type == domain.ChannelPrivate {
		ok, err := a.members.IsMember(c.Request.Context(), ch.ID, userID)
		if err != nil {
			common.ErrorResponse(c, common.StatusFor(err), "Failed to check channel membership", err)
			return nil, false
		}
		if !ok {
			// private channels are invisible to non-members
			common.ErrorResponse(c, http.StatusNotFound, "Channel not found", nil)
			return nil, false
		}
	}
	return ch, true
}

// CanManage reports whether the caller created the channel or is one of its admins
func (a *ChannelAccess) CanManage(c *gin.Context, ch *domain.Channel) (bool, error) {
	userID := middleware.GetUserID(c)
	if ch.CreatedBy == userID {
		return true, nil
	}
	m, err := a.members.GetMembership(c.Request.Context(), ch.ID, userID)
	if err != nil {
		return false, err
	}
	return m != nil && m.Role == domain.RoleAdmin, nil
}

// LoadManaged is Load plus a CanManage check
func (a *ChannelAccess) LoadManaged(c *gin.Context, channelID string) (*domain.Channel, bool) {
	ch, ok := a.Load(c, channelID)
	if !ok {
		return nil, false
	}
	allowed, err := a.CanManage(c, ch)
	if err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to check channel role", err)
		return nil, false
	}
	if !allowed {
		common.ErrorResponse(c, http.StatusForbidden, "Channel admin role required", nil)
		return nil, false
	}
	return ch, true
}
