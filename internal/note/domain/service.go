package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

type Service interface {
	ListByLead(ctx context.Context, orgID, leadID snowflake.ID) ([]Note, error)
	Create(ctx context.Context, orgID snowflake.ID, createdBy uuid.UUID, req CreateRequest) (*Note, error)
	Update(ctx context.Context, orgID, noteID snowflake.ID, content string) (*Note, error)
	Delete(ctx context.Context, orgID, noteID snowflake.ID) error
}

type CreateRequest struct {
	LeadID  snowflake.ID
	Content string
}

var (
	// ErrNotFound covers a missing note, a missing parent lead, and a
	// parent lead owned by another tenant alike.
	ErrNotFound       = errors.New("note_not_found")
	ErrInvalidContent = errors.New("invalid_content")
)
