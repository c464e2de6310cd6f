package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"

	"github.com/clientcare/crm/internal/clock"
	"github.com/clientcare/crm/internal/note/domain"
)

type service struct {
	repo  domain.Repository
	genID *snowflake.Node
	clk   clock.Clock
}

func NewService(repo domain.Repository, genID *snowflake.Node, clk clock.Clock) domain.Service {
	return &service{repo: repo, genID: genID, clk: clk}
}

func (s *service) ListByLead(ctx context.Context, orgID, leadID snowflake.ID) ([]domain.Note, error) {
	exists, err := s.repo.LeadExists(ctx, orgID, leadID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	return s.repo.ListByLead(ctx, leadID)
}

func (s *service) Create(ctx context.Context, orgID snowflake.ID, createdBy uuid.UUID, req domain.CreateRequest) (*domain.Note, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, domain.ErrInvalidContent
	}

	exists, err := s.repo.LeadExists(ctx, orgID, req.LeadID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	now := s.clk.Now()
	note := domain.Note{
		ID:        s.genID.Generate(),
		LeadID:    req.LeadID,
		Content:   content,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, &note); err != nil {
		return nil, err
	}

	return &note, nil
}

func (s *service) Update(ctx context.Context, orgID, noteID snowflake.ID, content string) (*domain.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrInvalidContent
	}

	affected, err := s.repo.Update(ctx, orgID, noteID, map[string]any{
		"content":    content,
		"updated_at": s.clk.Now(),
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrNotFound
	}

	return s.repo.FindByID(ctx, orgID, noteID)
}

func (s *service) Delete(ctx context.Context, orgID, noteID snowflake.ID) error {
	affected, err := s.repo.Delete(ctx, orgID, noteID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
