package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/clientcare/crm/internal/clock"
	"github.com/clientcare/crm/internal/organization/domain"
	pkgdb "github.com/clientcare/crm/pkg/db"
)

type service struct {
	repo        domain.Repository
	leadCounter domain.LeadCounter
	genID       *snowflake.Node
	clk         clock.Clock
}

func NewService(repo domain.Repository, leadCounter domain.LeadCounter, genID *snowflake.Node, clk clock.Clock) domain.Service {
	return &service{
		repo:        repo,
		leadCounter: leadCounter,
		genID:       genID,
		clk:         clk,
	}
}

// ResolveTenant looks up the caller's membership with a two-row probe so a
// violated single-membership invariant is detected instead of silently
// picking a winner.
func (s *service) ResolveTenant(ctx context.Context, userID uuid.UUID) (*domain.Tenant, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrMembershipNotFound
	}

	memberships, err := s.repo.FindMemberships(ctx, userID, 2)
	if err != nil {
		return nil, fmt.Errorf("resolve tenant: %w", err)
	}

	switch len(memberships) {
	case 0:
		return nil, domain.ErrMembershipNotFound
	case 1:
	default:
		zap.L().Error("principal has multiple organization memberships",
			zap.String("user_id", userID.String()),
		)
		return nil, domain.ErrAmbiguousMembership
	}

	membership := memberships[0]
	role, err := domain.ParseRole(membership.Member.Role)
	if err != nil {
		return nil, fmt.Errorf("resolve tenant: stored role %q: %w", membership.Member.Role, err)
	}

	return &domain.Tenant{
		OrgID:        membership.Member.OrgID,
		Role:         role,
		Organization: membership.Organization,
	}, nil
}

func (s *service) Update(ctx context.Context, orgID snowflake.ID, req domain.UpdateOrganizationRequest) (*domain.Organization, error) {
	org, err := s.repo.GetOrganization(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		org.Name = name
		org.Slug = slug.Make(name)
	}
	if req.LogoURL != nil {
		org.LogoURL = strings.TrimSpace(*req.LogoURL)
	}
	if req.Settings != nil {
		org.Settings = req.Settings
	}
	org.UpdatedAt = s.clk.Now()

	if err := s.repo.UpdateOrganization(ctx, org); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	return org, nil
}

func (s *service) ListMembers(ctx context.Context, orgID snowflake.ID) ([]domain.MemberView, error) {
	return s.repo.ListMembers(ctx, orgID)
}

func (s *service) InviteMember(ctx context.Context, orgID snowflake.ID, invitedBy uuid.UUID, req domain.InviteRequest) (*domain.OrganizationInvite, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, domain.ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.ErrInvalidEmail
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}

	pending, err := s.repo.HasPendingInvite(ctx, orgID, email)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, domain.ErrInviteExists
	}

	invite := domain.OrganizationInvite{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Email:     email,
		Role:      role.String(),
		Status:    domain.InviteStatusPending,
		InvitedBy: invitedBy,
		CreatedAt: s.clk.Now(),
	}

	if err := s.repo.InsertInvite(ctx, invite); err != nil {
		return nil, err
	}

	return &invite, nil
}

func (s *service) RemoveMember(ctx context.Context, orgID, memberID snowflake.ID) error {
	affected, err := s.repo.DeleteMember(ctx, orgID, memberID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *service) UsageStats(ctx context.Context, orgID snowflake.ID) (*domain.UsageStatsResponse, error) {
	org, err := s.repo.GetOrganization(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	monthStart := clock.MonthStart(s.clk.Now())
	leads, err := s.leadCounter.CountSince(ctx, orgID, monthStart)
	if err != nil {
		return nil, err
	}

	members, err := s.repo.CountMembers(ctx, orgID)
	if err != nil {
		return nil, err
	}

	limits := domain.LimitsForTier(org.SubscriptionTier)
	return &domain.UsageStatsResponse{
		LeadsCount:     leads,
		LeadsLimit:     limits.MaxLeads,
		UsersCount:     members,
		UsersLimit:     limits.MaxUsers,
		StorageUsedGB:  0,
		StorageLimitGB: limits.MaxStorageGB,
		Tier:           org.SubscriptionTier,
	}, nil
}
