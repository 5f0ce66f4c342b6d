package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ChannelType public or private
type ChannelType string

const (
	ChannelPublic  ChannelType = "public"
	ChannelPrivate ChannelType = "private"
)

// Valid reports whether t is a known channel type
func (t ChannelType) Valid() bool {
	return t == ChannelPublic || t == ChannelPrivate
}

// Channel is a named conversation space scoped to an organization.
// MemberIDs mirrors the Membership rows and is only ever recomputed from them.
// IsDirect marks direct message channels, whose membership is fixed at creation.
type Channel struct {
	ID             string                      `gorm:"column:id;primaryKey;size:191" json:"id"`
	Name           string                      `gorm:"column:name;size:191" json:"name"`
	Description    *string                     `gorm:"column:description;type:text" json:"description,omitempty"`
	Type           ChannelType                 `gorm:"column:type;size:16" json:"type"`
	MemberIDs      datatypes.JSONSlice[string] `gorm:"column:member_ids" json:"member_ids"`
	CreatedBy      string                      `gorm:"column:created_by;size:191" json:"created_by"`
	CreatedAt      time.Time                   `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time                   `gorm:"column:updated_at" json:"updated_at"`
	IsArchived     bool                        `gorm:"column:is_archived;default:false" json:"is_archived"`
	IsDirect       bool                        `gorm:"column:is_direct;default:false" json:"is_direct"`
	LastActivity   time.Time                   `gorm:"column:last_activity;index" json:"last_activity"`
	OrganizationID string                      `gorm:"column:organization_id;size:191;index" json:"organization_id"`
	ProjectID      *string                     `gorm:"column:project_id;size:191" json:"project_id,omitempty"`
}

// TableName returns the table name
func (Channel) TableName() string {
	return "channels"
}

// HasMember reports whether userID is in the denormalized member list
func (c *Channel) HasMember(userID string) bool {
	for _, id := range c.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsDirectMessage reports whether the channel is a two-member private conversation
func (c *Channel) IsDirectMessage() bool {
	if c.Type != ChannelPrivate || len(c.MemberIDs) != 2 {
		return false
	}
	return c.MemberIDs[0] != c.MemberIDs[1]
}

// CounterpartOf returns the other member of a direct message channel
func (c *Channel) CounterpartOf(userID string) (string, bool) {
	if !c.IsDirectMessage() || !c.HasMember(userID) {
		return "", false
	}
	if c.MemberIDs[0] == userID {
		return c.MemberIDs[1], true
	}
	return c.MemberIDs[0], true
}

// CreateChannelRequest carries the caller-settable channel fields
type CreateChannelRequest struct {
	Name           string      `json:"name" binding:"required,channelname"`
	Description    *string     `json:"description" binding:"omitempty,max=1000"`
	Type           ChannelType `json:"type" binding:"required,oneof=public private"`
	ProjectID      *string     `json:"project_id"`
	CreatedBy      string      `json:"-"`
	OrganizationID string      `json:"-"`
}

// UpdateChannelRequest partial update; only name and description are mutable
type UpdateChannelRequest struct {
	Name        *string `json:"name" binding:"omitempty,channelname"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
}

// DirectMessageRequest opens a DM with another user
type DirectMessageRequest struct {
	UserID string `json:"user_id" binding:"required"`
}
