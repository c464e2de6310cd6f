package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Service interface {
	// ResolveTenant maps a principal to its single organization membership.
	ResolveTenant(ctx context.Context, userID uuid.UUID) (*Tenant, error)
	Update(ctx context.Context, orgID snowflake.ID, req UpdateOrganizationRequest) (*Organization, error)
	ListMembers(ctx context.Context, orgID snowflake.ID) ([]MemberView, error)
	InviteMember(ctx context.Context, orgID snowflake.ID, invitedBy uuid.UUID, req InviteRequest) (*OrganizationInvite, error)
	RemoveMember(ctx context.Context, orgID, memberID snowflake.ID) error
	UsageStats(ctx context.Context, orgID snowflake.ID) (*UsageStatsResponse, error)
}

// Tenant is the resolved request tenancy: the organization and the
// principal's role inside it.
type Tenant struct {
	OrgID        snowflake.ID
	Role         Role
	Organization Organization
}

// LeadCounter reports lead volume for usage accounting.
type LeadCounter interface {
	CountSince(ctx context.Context, orgID snowflake.ID, since time.Time) (int64, error)
}

type UpdateOrganizationRequest struct {
	Name     *string
	LogoURL  *string
	Settings datatypes.JSONMap
}

type InviteRequest struct {
	Email string
	Role  string
}

type MemberView struct {
	ID       snowflake.ID `json:"id"`
	UserID   uuid.UUID    `json:"user_id"`
	Role     string       `json:"role"`
	JoinedAt time.Time    `json:"joined_at"`
	Email    *string      `json:"email"`
	FullName *string      `json:"full_name"`
}

// TierLimits is the plan ceiling for a subscription tier.
type TierLimits struct {
	MaxLeads     int     `json:"max_leads"`
	MaxUsers     int     `json:"max_users"`
	MaxStorageGB float64 `json:"max_storage_gb"`
}

var tierLimits = map[string]TierLimits{
	"free":       {MaxLeads: 50, MaxUsers: 1, MaxStorageGB: 0.5},
	"pro":        {MaxLeads: 500, MaxUsers: 5, MaxStorageGB: 10},
	"enterprise": {MaxLeads: 999999, MaxUsers: 999, MaxStorageGB: 1000},
}

// LimitsForTier returns the plan limits; unknown tiers fall back to free.
func LimitsForTier(tier string) TierLimits {
	if limits, ok := tierLimits[tier]; ok {
		return limits
	}
	return tierLimits["free"]
}

// UsageStatsResponse is the flat usage payload: current counts next to
// their plan limits.
type UsageStatsResponse struct {
	LeadsCount     int64   `json:"leads_count"`
	LeadsLimit     int     `json:"leads_limit"`
	UsersCount     int64   `json:"users_count"`
	UsersLimit     int     `json:"users_limit"`
	StorageUsedGB  float64 `json:"storage_used_gb"`
	StorageLimitGB float64 `json:"storage_limit_gb"`
	Tier           string  `json:"tier"`
}

var (
	// ErrMembershipNotFound means the principal has no organization.
	ErrMembershipNotFound = errors.New("membership_not_found")
	// ErrAmbiguousMembership means more than one membership row exists,
	// which violates the single-membership invariant and must fail loudly.
	ErrAmbiguousMembership = errors.New("ambiguous_membership")

	ErrNotFound     = errors.New("organization_not_found")
	ErrSlugTaken    = errors.New("slug_taken")
	ErrInviteExists = errors.New("invite_exists")
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidRole  = errors.New("invalid_role")
)
