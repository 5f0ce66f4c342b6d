package middleware

import (
	"context"
	"net/http"

	"github.com/KDim67/boostflow-backend/internal/common"
	"github.com/KDim67/boostflow-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// OrgMembershipChecker answers whether a user belongs to an organization
type OrgMembershipChecker interface {
	IsOrganizationMember(ctx context.Context, orgID, userID string) (bool, error)
}

// OrgAccess rejects requests for an :orgId the authenticated user does not belong to.
// Must run after JWTAuth.
func OrgAccess(checker OrgMembershipChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.Param("orgId")
		userID := GetUserID(c)
		if orgID == "" || userID == "" {
			common.ErrorResponse(c, http.StatusUnauthorized, "Authentication required", nil)
			c.Abort()
			return
		}

		// a token scoped to this organization needs no lookup
		if GetTokenOrgID(c) == orgID {
			c.Next()
			return
		}

		ok, err := checker.IsOrganizationMember(c.Request.Context(), orgID, userID)
		if err != nil {
			logger.GetLogger().Error().Err(err).Str("org_id", orgID).Str("user_id", userID).Msg("organization access check failed")
			common.ErrorResponse(c, http.StatusInternalServerError, "Failed to check organization access", err)
			c.Abort()
			return
		}
		if !ok {
			common.ErrorResponse(c, http.StatusForbidden, "Not a member of this organization", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
