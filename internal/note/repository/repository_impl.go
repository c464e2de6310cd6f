package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/clientcare/crm/internal/note/domain"
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

func (r *repository) LeadExists(ctx context.Context, orgID, leadID snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("leads").
		Where("id = ? AND org_id = ?", leadID, orgID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) Insert(ctx context.Context, note *domain.Note) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO notes (id, lead_id, content, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		note.ID,
		note.LeadID,
		note.Content,
		note.CreatedBy,
		note.CreatedAt,
		note.UpdatedAt,
	).Error
}

func (r *repository) ListByLead(ctx context.Context, leadID snowflake.ID) ([]domain.Note, error) {
	var notes []domain.Note
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at desc, id desc").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *repository) FindByID(ctx context.Context, orgID, noteID snowflake.ID) (*domain.Note, error) {
	var note domain.Note
	err := r.db.WithContext(ctx).Raw(
		`SELECT n.id, n.lead_id, n.content, n.created_by, n.created_at, n.updated_at
		 FROM notes n
		 JOIN leads l ON l.id = n.lead_id
		 WHERE n.id = ? AND l.org_id = ?`,
		noteID,
		orgID,
	).Scan(&note).Error
	if err != nil {
		return nil, err
	}
	if note.ID == 0 {
		return nil, domain.ErrNotFound
	}
	return &note, nil
}

func (r *repository) Update(ctx context.Context, orgID, noteID snowflake.ID, values map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Note{}).
		Where("id = ? AND lead_id IN (SELECT id FROM leads WHERE org_id = ?)", noteID, orgID).
		Updates(values)
	return result.RowsAffected, result.Error
}

func (r *repository) Delete(ctx context.Context, orgID, noteID snowflake.ID) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		`DELETE FROM notes
		 WHERE id = ? AND lead_id IN (SELECT id FROM leads WHERE org_id = ?)`,
		noteID,
		orgID,
	)
	return result.RowsAffected, result.Error
}
