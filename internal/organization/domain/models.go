// Package domain contains persistence models for the organization service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Organization represents a tenant.
type Organization struct {
	ID                 snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name               string            `gorm:"type:text;not null" json:"name"`
	Slug               string            `gorm:"type:text;not null;uniqueIndex:ux_organizations_slug" json:"slug"`
	LogoURL            string            `gorm:"type:text;column:logo_url" json:"logo_url"`
	Settings           datatypes.JSONMap `gorm:"not null;default:'{}'" json:"settings"`
	SubscriptionTier   string            `gorm:"type:text;not null;default:'free';column:subscription_tier" json:"subscription_tier"`
	SubscriptionStatus string            `gorm:"type:text;not null;default:'trial';column:subscription_status" json:"subscription_status"`
	TrialEndsAt        *time.Time        `gorm:"column:trial_ends_at" json:"trial_ends_at,omitempty"`
	CreatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }

// OrganizationMember represents membership of a principal in an organization.
// A principal belongs to at most one organization.
type OrganizationMember struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_org_user,priority:1" json:"org_id"`
	UserID   uuid.UUID    `gorm:"type:uuid;not null;index;uniqueIndex:ux_org_user,priority:2" json:"user_id"`
	Role     string       `gorm:"type:text;not null" json:"role"`
	JoinedAt time.Time    `gorm:"column:joined_at;not null;default:CURRENT_TIMESTAMP" json:"joined_at"`
}

// TableName sets the database table name.
func (OrganizationMember) TableName() string { return "organization_members" }

// OrganizationInvite tracks a pending invite to an organization.
type OrganizationInvite struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"org_id"`
	Email     string       `gorm:"type:text;not null" json:"email"`
	Role      string       `gorm:"type:text;not null" json:"role"`
	Status    string       `gorm:"type:text;not null" json:"status"`
	InvitedBy uuid.UUID    `gorm:"type:uuid;column:invited_by;not null" json:"invited_by"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (OrganizationInvite) TableName() string { return "organization_invites" }

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusRevoked  = "revoked"
)

// User mirrors identity-provider accounts so member listings can show
// emails and names. Rows are optional; membership never depends on them.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email    string    `gorm:"type:text" json:"email"`
	FullName string    `gorm:"type:text;column:full_name" json:"full_name"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }
