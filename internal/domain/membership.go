package domain

import "time"

// MemberRole role within a channel
type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// Valid reports whether r is a known role
func (r MemberRole) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Membership is the authoritative per-user, per-channel record of role and read state
type Membership struct {
	ChannelID  string     `gorm:"column:channel_id;primaryKey;size:191" json:"channel_id"`
	UserID     string     `gorm:"column:user_id;primaryKey;size:191;index" json:"user_id"`
	Role       MemberRole `gorm:"column:role;size:16" json:"role"`
	JoinedAt   time.Time  `gorm:"column:joined_at;autoCreateTime" json:"joined_at"`
	LastReadAt *time.Time `gorm:"column:last_read_at" json:"last_read_at,omitempty"`
}

// TableName returns the table name
func (Membership) TableName() string {
	return "channel_memberships"
}

// Normalize converts timestamps to UTC
func (m *Membership) Normalize() {
	m.JoinedAt = m.JoinedAt.UTC()
	if m.LastReadAt != nil {
		t := m.LastReadAt.UTC()
		m.LastReadAt = &t
	}
}

// AddMemberRequest adds a user to a channel
type AddMemberRequest struct {
	UserID string     `json:"user_id" binding:"required"`
	Role   MemberRole `json:"role" binding:"omitempty,oneof=admin member"`
}
