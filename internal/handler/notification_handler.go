package handler

import (
	"net/http"
	"strconv"

	"github.com/KDim67/boostflow-backend/internal/common"
	"github.com/KDim67/boostflow-backend/internal/middleware"
	"github.com/KDim67/boostflow-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// NotificationHandler handles notification requests
type NotificationHandler struct {
	service *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(service *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// GetUnreadCount handles GET /api/v1/notifications/unread-count
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	summary, err := h.service.GetUnreadCount(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to count notifications", err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{Data: summary})
}

// GetList handles GET /api/v1/notifications
func (h *NotificationHandler) GetList(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.service.GetList(c.Request.Context(), middleware.GetUserID(c), page, limit)
	if err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to list notifications", err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{Data: result})
}

// MarkAsRead handles POST /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	if err := h.service.MarkAsRead(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to mark notification as read", err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{Data: gin.H{"success": true}})
}

// MarkAllAsRead handles POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	if err := h.service.MarkAllAsRead(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to mark notifications as read", err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{Data: gin.H{"success": true}})
}

// Hide handles POST /api/v1/notifications/:id/hide
func (h *NotificationHandler) Hide(c *gin.Context) {
	if err := h.service.Hide(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to hide notification", err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{Data: gin.H{"success": true}})
}

// Delete handles DELETE /api/v1/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		common.ErrorResponse(c, common.StatusFor(err), "Failed to delete notification", err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{Data: gin.H{"success": true}})
}
