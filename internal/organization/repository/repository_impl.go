package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clientcare/crm/internal/organization/domain"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

type membershipRow struct {
	MemberID           snowflake.ID      `gorm:"column:member_id"`
	OrgID              snowflake.ID      `gorm:"column:org_id"`
	UserID             uuid.UUID         `gorm:"column:user_id"`
	Role               string            `gorm:"column:role"`
	JoinedAt           time.Time         `gorm:"column:joined_at"`
	Name               string            `gorm:"column:name"`
	Slug               string            `gorm:"column:slug"`
	LogoURL            string            `gorm:"column:logo_url"`
	Settings           datatypes.JSONMap `gorm:"column:settings"`
	SubscriptionTier   string            `gorm:"column:subscription_tier"`
	SubscriptionStatus string            `gorm:"column:subscription_status"`
	TrialEndsAt        *time.Time        `gorm:"column:trial_ends_at"`
	OrgCreatedAt       time.Time         `gorm:"column:org_created_at"`
	OrgUpdatedAt       time.Time         `gorm:"column:org_updated_at"`
}

func (r *repository) FindMemberships(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Membership, error) {
	var rows []membershipRow
	err := r.db.WithContext(ctx).Raw(
		`SELECT m.id AS member_id, m.org_id, m.user_id, m.role, m.joined_at,
		        o.name, o.slug, o.logo_url, o.settings,
		        o.subscription_tier, o.subscription_status, o.trial_ends_at,
		        o.created_at AS org_created_at, o.updated_at AS org_updated_at
		 FROM organization_members m
		 JOIN organizations o ON o.id = m.org_id
		 WHERE m.user_id = ?
		 ORDER BY m.joined_at ASC
		 LIMIT ?`,
		userID,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	memberships := make([]domain.Membership, 0, len(rows))
	for _, row := range rows {
		memberships = append(memberships, domain.Membership{
			Member: domain.OrganizationMember{
				ID:       row.MemberID,
				OrgID:    row.OrgID,
				UserID:   row.UserID,
				Role:     row.Role,
				JoinedAt: row.JoinedAt,
			},
			Organization: domain.Organization{
				ID:                 row.OrgID,
				Name:               row.Name,
				Slug:               row.Slug,
				LogoURL:            row.LogoURL,
				Settings:           row.Settings,
				SubscriptionTier:   row.SubscriptionTier,
				SubscriptionStatus: row.SubscriptionStatus,
				TrialEndsAt:        row.TrialEndsAt,
				CreatedAt:          row.OrgCreatedAt,
				UpdatedAt:          row.OrgUpdatedAt,
			},
		})
	}

	return memberships, nil
}

func (r *repository) GetOrganization(ctx context.Context, orgID snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).First(&org, "id = ?", orgID).Error
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *repository) UpdateOrganization(ctx context.Context, org *domain.Organization) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE organizations
		 SET name = ?, slug = ?, logo_url = ?, settings = ?, updated_at = ?
		 WHERE id = ?`,
		org.Name,
		org.Slug,
		org.LogoURL,
		org.Settings,
		org.UpdatedAt,
		org.ID,
	).Error
}

func (r *repository) ListMembers(ctx context.Context, orgID snowflake.ID) ([]domain.MemberView, error) {
	var members []domain.MemberView
	err := r.db.WithContext(ctx).Raw(
		`SELECT m.id, m.user_id, m.role, m.joined_at, u.email, u.full_name
		 FROM organization_members m
		 LEFT JOIN users u ON u.id = m.user_id
		 WHERE m.org_id = ?
		 ORDER BY m.joined_at ASC`,
		orgID,
	).Scan(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repository) CountMembers(ctx context.Context, orgID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.OrganizationMember{}).
		Where("org_id = ?", orgID).
		Count(&count).Error
	return count, err
}

func (r *repository) InsertInvite(ctx context.Context, invite domain.OrganizationInvite) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO organization_invites (id, org_id, email, role, status, invited_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		invite.ID,
		invite.OrgID,
		invite.Email,
		invite.Role,
		invite.Status,
		invite.InvitedBy,
		invite.CreatedAt,
	).Error
}

func (r *repository) HasPendingInvite(ctx context.Context, orgID snowflake.ID, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.OrganizationInvite{}).
		Where("org_id = ? AND lower(email) = ? AND status = ?", orgID, strings.ToLower(email), domain.InviteStatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) DeleteMember(ctx context.Context, orgID, memberID snowflake.ID) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		`DELETE FROM organization_members WHERE id = ? AND org_id = ?`,
		memberID,
		orgID,
	)
	return result.RowsAffected, result.Error
}
