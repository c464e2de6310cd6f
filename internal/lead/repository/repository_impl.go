package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clientcare/crm/internal/lead/domain"
	"github.com/clientcare/crm/pkg/db/pagination"
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

func (r *repository) Insert(ctx context.Context, lead *domain.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

// FindByID scopes the lookup by organization in the query itself so a
// foreign tenant's lead is indistinguishable from a missing one.
func (r *repository) FindByID(ctx context.Context, orgID, id snowflake.ID) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.WithContext(ctx).
		Where("id = ? AND org_id = ?", id, orgID).
		First(&lead).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &lead, nil
}

func (r *repository) List(ctx context.Context, orgID snowflake.ID, filter domain.ListFilter, page pagination.Pagination) ([]domain.Lead, int64, error) {
	stmt := r.db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("org_id = ?", orgID)

	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.Source != "" {
		stmt = stmt.Where("source = ?", filter.Source)
	}
	if term := strings.ToLower(strings.TrimSpace(filter.Search)); term != "" {
		like := "%" + term + "%"
		stmt = stmt.Where("lower(name) LIKE ? OR lower(phone) LIKE ? OR lower(email) LIKE ?", like, like, like)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var leads []domain.Lead
	err := stmt.
		Order("created_at desc, id desc").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&leads).Error
	if err != nil {
		return nil, 0, err
	}

	return leads, total, nil
}

func (r *repository) Update(ctx context.Context, orgID, id snowflake.ID, values map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("id = ? AND org_id = ?", id, orgID).
		Updates(values)
	return result.RowsAffected, result.Error
}

func (r *repository) Delete(ctx context.Context, orgID, id snowflake.ID) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		`DELETE FROM leads WHERE id = ? AND org_id = ?`,
		id,
		orgID,
	)
	return result.RowsAffected, result.Error
}

func (r *repository) CountSince(ctx context.Context, orgID snowflake.ID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("org_id = ? AND created_at >= ?", orgID, since).
		Count(&count).Error
	return count, err
}
