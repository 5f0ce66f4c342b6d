package middleware

import (
	"errors"
	"strings"

	"github.com/KDim67/boostflow-backend/internal/common"
	"github.com/KDim67/boostflow-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
)

const (
	ctxUserID   = "userID"
	ctxNickname = "nickname"
	ctxOrgID    = "orgID"
)

// JWTAuth JWT authentication middleware.
// Browsers cannot set headers on a WebSocket upgrade, so an access_token
// query parameter is accepted on upgrade requests.
func JWTAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			common.ErrorResponse(c, 401, "Missing authorization header", nil)
			c.Abort()
			return
		}

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.ErrorResponse(c, 401, "Token expired", err)
			} else {
				common.ErrorResponse(c, 401, "Invalid token", err)
			}
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxNickname, claims.Nickname)
		c.Set(ctxOrgID, claims.OrgID)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if isWebSocketUpgrade(c) {
		if token := c.Query("access_token"); token != "" {
			return token, true
		}
	}
	return "", false
}

func isWebSocketUpgrade(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) string {
	return getString(c, ctxUserID)
}

// GetNickname extracts nickname from context
func GetNickname(c *gin.Context) string {
	return getString(c, ctxNickname)
}

// GetTokenOrgID extracts the organization claim of the token, if any
func GetTokenOrgID(c *gin.Context) string {
	return getString(c, ctxOrgID)
}

func getString(c *gin.Context, key string) string {
	v, exists := c.Get(key)
	if !exists {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return ""
}
