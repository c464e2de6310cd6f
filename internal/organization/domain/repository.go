package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Membership pairs a member row with its organization.
type Membership struct {
	Member       OrganizationMember
	Organization Organization
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	// FindMemberships returns up to limit membership rows for the user,
	// oldest first, each joined with its organization.
	FindMemberships(ctx context.Context, userID uuid.UUID, limit int) ([]Membership, error)
	GetOrganization(ctx context.Context, orgID snowflake.ID) (*Organization, error)
	UpdateOrganization(ctx context.Context, org *Organization) error
	ListMembers(ctx context.Context, orgID snowflake.ID) ([]MemberView, error)
	CountMembers(ctx context.Context, orgID snowflake.ID) (int64, error)
	InsertInvite(ctx context.Context, invite OrganizationInvite) error
	HasPendingInvite(ctx context.Context, orgID snowflake.ID, email string) (bool, error)
	DeleteMember(ctx context.Context, orgID, memberID snowflake.ID) (int64, error)
}
