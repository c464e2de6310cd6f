// Package domain contains persistence models for the note service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// Note is free-form text attached to a lead. It carries no org_id of its
// own; tenancy is always derived through the parent lead.
type Note struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	LeadID    snowflake.ID `gorm:"not null;index" json:"lead_id"`
	Content   string       `gorm:"type:text;not null" json:"content"`
	CreatedBy uuid.UUID    `gorm:"type:uuid;column:created_by;not null" json:"created_by"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Note) TableName() string { return "notes" }
