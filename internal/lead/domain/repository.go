package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clientcare/crm/pkg/db/pagination"
	"gorm.io/gorm"
)

// ListFilter narrows the tenant-scoped lead listing.
type ListFilter struct {
	Status string
	Source string
	Search string
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Insert(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, orgID, id snowflake.ID) (*Lead, error)
	List(ctx context.Context, orgID snowflake.ID, filter ListFilter, page pagination.Pagination) ([]Lead, int64, error)
	// Update applies values to the lead scoped by org, returning rows affected.
	Update(ctx context.Context, orgID, id snowflake.ID, values map[string]any) (int64, error)
	Delete(ctx context.Context, orgID, id snowflake.ID) (int64, error)
	CountSince(ctx context.Context, orgID snowflake.ID, since time.Time) (int64, error)
}
