package domain

import "time"

// UserProfile is the display information of a user
type UserProfile struct {
	ID          string    `gorm:"column:id;primaryKey;size:191" json:"id"`
	DisplayName string    `gorm:"column:display_name;size:191" json:"display_name"`
	Email       string    `gorm:"column:email;size:255" json:"email,omitempty"`
	AvatarURL   string    `gorm:"column:avatar_url;size:500" json:"avatar_url,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName returns the table name
func (UserProfile) TableName() string {
	return "user_profiles"
}

// OrganizationMember grants a user access to an organization's channels
type OrganizationMember struct {
	OrganizationID string    `gorm:"column:organization_id;primaryKey;size:191" json:"organization_id"`
	UserID         string    `gorm:"column:user_id;primaryKey;size:191;index" json:"user_id"`
	Role           string    `gorm:"column:role;size:32" json:"role"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName returns the table name
func (OrganizationMember) TableName() string {
	return "organization_members"
}
