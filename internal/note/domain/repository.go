package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	LeadExists(ctx context.Context, orgID, leadID snowflake.ID) (bool, error)
	Insert(ctx context.Context, note *Note) error
	ListByLead(ctx context.Context, leadID snowflake.ID) ([]Note, error)
	// FindByID joins through the parent lead so the lookup is tenant-scoped.
	FindByID(ctx context.Context, orgID, noteID snowflake.ID) (*Note, error)
	Update(ctx context.Context, orgID, noteID snowflake.ID, values map[string]any) (int64, error)
	Delete(ctx context.Context, orgID, noteID snowflake.ID) (int64, error)
}
