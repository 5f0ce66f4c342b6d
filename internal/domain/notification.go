package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types
const (
	NotificationDirectMessage = "direct_message"
	NotificationChannelAdded  = "channel_added"
	NotificationMention       = "mention"
)

// NotificationMetadata links a notification back to its source
type NotificationMetadata struct {
	SenderID  string `json:"sender_id,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// Notification represents a user notification
type Notification struct {
	ID        string                                   `gorm:"column:id;primaryKey;size:64" json:"id"`
	UserID    string                                   `gorm:"column:user_id;size:191;index:idx_notifications_user_updated,priority:1" json:"user_id"`
	Type      string                                   `gorm:"column:type;size:32" json:"type"`
	Title     string                                   `gorm:"column:title;size:255" json:"title"`
	Message   string                                   `gorm:"column:message;type:text" json:"message"`
	Metadata  datatypes.JSONType[NotificationMetadata] `gorm:"column:metadata" json:"metadata"`
	Read      bool                                     `gorm:"column:is_read;default:false" json:"read"`
	Hidden    bool                                     `gorm:"column:is_hidden;default:false" json:"hidden"`
	CreatedAt time.Time                                `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time                                `gorm:"column:updated_at;index:idx_notifications_user_updated,priority:2" json:"updated_at"`
}

// TableName returns the table name
func (Notification) TableName() string {
	return "notifications"
}

// Meta returns the decoded metadata
func (n *Notification) Meta() NotificationMetadata {
	return n.Metadata.Data()
}

// NotificationSummaryResponse represents unread count response
type NotificationSummaryResponse struct {
	TotalUnread int `json:"total_unread"`
}

// NotificationListResponse represents notification list response
type NotificationListResponse struct {
	Items       []NotificationItem `json:"items"`
	Total       int64              `json:"total"`
	UnreadCount int64              `json:"unread_count"`
	Page        int                `json:"page"`
	Limit       int                `json:"limit"`
	TotalPages  int                `json:"total_pages"`
}

// NotificationItem represents a single notification in list
type NotificationItem struct {
	ID        string               `json:"id"`
	Type      string               `json:"type"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Metadata  NotificationMetadata `json:"metadata"`
	Read      bool                 `json:"read"`
	CreatedAt string               `json:"created_at"`
	UpdatedAt string               `json:"updated_at"`
}
