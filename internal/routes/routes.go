package routes

import (
	"github.com/KDim67/boostflow-backend/internal/handler"
	"github.com/KDim67/boostflow-backend/internal/middleware"
	"github.com/KDim67/boostflow-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// Handlers bundles the HTTP handlers mounted by Setup
type Handlers struct {
	Channels      *handler.ChannelHandler
	Messages      *handler.MessageHandler
	Notifications *handler.NotificationHandler
	WS            *handler.WSHandler
}

// Setup configures all API routes
func Setup(router *gin.Engine, h *Handlers, jwtManager *jwt.Manager, orgs middleware.OrgMembershipChecker) {
	auth := middleware.JWTAuth(jwtManager)
	orgAccess := middleware.OrgAccess(orgs)

	api := router.Group("/api/v1", auth)

	// Organization scoped directory
	org := api.Group("/organizations/:orgId", orgAccess)
	{
		org.POST("/channels", h.Channels.CreateChannel)
		org.GET("/channels", h.Channels.ListChannels)
		org.GET("/channels/visible", h.Channels.ListVisibleChannels)
		org.POST("/dm", h.Channels.OpenDirectMessage)
	}

	// Channels
	channels := api.Group("/channels/:id")
	{
		channels.GET("", h.Channels.GetChannel)
		channels.PATCH("", h.Channels.UpdateChannel)
		channels.DELETE("", h.Channels.DeleteChannel)
		channels.POST("/archive", h.Channels.ArchiveChannel)

		channels.GET("/members", h.Channels.ListMembers)
		channels.POST("/members", h.Channels.AddMember)
		channels.DELETE("/members/:userId", h.Channels.RemoveMember)
		channels.POST("/read", h.Channels.MarkRead)

		channels.GET("/messages", h.Messages.ListMessages)
		channels.POST("/messages", h.Messages.SendMessage)
		channels.GET("/pins", h.Messages.ListPinned)
	}

	// Messages
	messages := api.Group("/messages/:id")
	{
		messages.PATCH("", h.Messages.EditMessage)
		messages.DELETE("", h.Messages.DeleteMessage)
		messages.POST("/pin", h.Messages.PinMessage)
		messages.DELETE("/pin", h.Messages.UnpinMessage)
	}

	// Notifications
	notifications := api.Group("/notifications")
	{
		notifications.GET("", h.Notifications.GetList)
		notifications.GET("/unread-count", h.Notifications.GetUnreadCount)
		notifications.POST("/read-all", h.Notifications.MarkAllAsRead)
		notifications.POST("/:id/read", h.Notifications.MarkAsRead)
		notifications.POST("/:id/hide", h.Notifications.Hide)
		notifications.DELETE("/:id", h.Notifications.Delete)
	}

	// WebSocket
	wsGroup := router.Group("/ws", auth)
	{
		wsGroup.GET("/notifications", h.WS.Connect)
		wsGroup.GET("/channels/:id/messages", h.WS.StreamMessages)
		wsGroup.GET("/organizations/:orgId/channels", orgAccess, h.WS.StreamChannels)
	}
}
