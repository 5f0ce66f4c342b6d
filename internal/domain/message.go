package domain

import (
	"time"

	"gorm.io/datatypes"
)

// DefaultMessageLimit is the window size when none is requested
const DefaultMessageLimit = 50

// Message is a single chat message. Author and ChannelID never change after creation;
// only Content (via edit) and IsPinned are mutable.
type Message struct {
	ID         string                      `gorm:"column:id;primaryKey;size:64" json:"id"`
	ChannelID  string                      `gorm:"column:channel_id;size:191;index:idx_messages_channel_created,priority:1" json:"channel_id"`
	Content    string                      `gorm:"column:content;type:text" json:"content"`
	Author     string                      `gorm:"column:author;size:191" json:"author"`
	AuthorName *string                     `gorm:"column:author_name;size:191" json:"author_name,omitempty"`
	CreatedAt  time.Time                   `gorm:"column:created_at;index:idx_messages_channel_created,priority:2" json:"created_at"`
	UpdatedAt  *time.Time                  `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at,omitempty"`
	IsEdited   bool                        `gorm:"column:is_edited;default:false" json:"is_edited"`
	IsPinned   bool                        `gorm:"column:is_pinned;default:false" json:"is_pinned"`
	Mentions   datatypes.JSONSlice[string] `gorm:"column:mentions" json:"mentions,omitempty"`
	ThreadID   *string                     `gorm:"column:thread_id;size:64;index" json:"thread_id,omitempty"`
	ReplyCount int                         `gorm:"column:reply_count;default:0" json:"reply_count"`
}

// TableName returns the table name
func (Message) TableName() string {
	return "messages"
}

// SendOptions optional fields of a new message
type SendOptions struct {
	AuthorName string
	Mentions   []string
	ThreadID   string
}

// MessageQuery bounds a message window. Before/After are exclusive createdAt bounds.
type MessageQuery struct {
	Limit  int
	Before *time.Time
	After  *time.Time
}

// WithDefaults fills the default limit
func (q MessageQuery) WithDefaults() MessageQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultMessageLimit
	}
	return q
}

// SendMessageRequest represents a send message request
type SendMessageRequest struct {
	Content  string   `json:"content" binding:"required,max=10000"`
	Mentions []string `json:"mentions"`
	ThreadID string   `json:"thread_id"`
}

// EditMessageRequest replaces a message's content
type EditMessageRequest struct {
	Content string `json:"content" binding:"required,max=10000"`
}
