// Package domain contains persistence models for the lead service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Lead is a prospective client. Every row is owned by exactly one
// organization; org_id and created_by are stamped server-side.
type Lead struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"org_id"`
	CreatedBy uuid.UUID    `gorm:"type:uuid;column:created_by;not null" json:"created_by"`

	Name           string `gorm:"type:text;not null" json:"name"`
	Phone          string `gorm:"type:text;not null;index" json:"phone"`
	Email          string `gorm:"type:text" json:"email"`
	AlternatePhone string `gorm:"type:text;column:alternate_phone" json:"alternate_phone"`
	WhatsAppNumber string `gorm:"type:text;column:whatsapp_number" json:"whatsapp_number"`

	Service    string `gorm:"type:text" json:"service"`
	ClinicName string `gorm:"type:text;column:clinic_name" json:"clinic_name"`
	City       string `gorm:"type:text" json:"city"`
	State      string `gorm:"type:text" json:"state"`
	Pincode    string `gorm:"type:text" json:"pincode"`
	Address    string `gorm:"type:text" json:"address"`

	Source     string `gorm:"type:text;not null;index" json:"source"`
	Status     string `gorm:"type:text;not null;index" json:"status"`
	AssignedTo string `gorm:"type:text;column:assigned_to" json:"assigned_to"`

	Birthday              string `gorm:"type:text" json:"birthday"`
	Age                   int    `json:"age"`
	Gender                string `gorm:"type:text" json:"gender"`
	Occupation            string `gorm:"type:text" json:"occupation"`
	CompanyName           string `gorm:"type:text;column:company_name" json:"company_name"`
	ReferredBy            string `gorm:"type:text;column:referred_by" json:"referred_by"`
	LanguagePreference    string `gorm:"type:text;column:language_preference" json:"language_preference"`
	BestTimeToCall        string `gorm:"type:text;column:best_time_to_call" json:"best_time_to_call"`
	PreviousClinicVisited string `gorm:"type:text;column:previous_clinic_visited" json:"previous_clinic_visited"`
	Budget                string `gorm:"type:text" json:"budget"`
	Urgency               string `gorm:"type:text" json:"urgency"`

	MetaData   datatypes.JSONMap `gorm:"column:meta_data" json:"meta_data"`
	GoogleData datatypes.JSONMap `gorm:"column:google_data" json:"google_data"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Lead) TableName() string { return "leads" }

const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQualified = "qualified"
	StatusConverted = "converted"
	StatusLost      = "lost"
)

const (
	SourceMeta     = "meta"
	SourceGoogle   = "google"
	SourceManual   = "manual"
	SourceWebsite  = "website"
	SourceReferral = "referral"
)

// ValidStatus reports whether raw is in the closed status set.
func ValidStatus(raw string) bool {
	switch raw {
	case StatusNew, StatusContacted, StatusQualified, StatusConverted, StatusLost:
		return true
	default:
		return false
	}
}

// ValidSource reports whether raw is in the closed source set.
func ValidSource(raw string) bool {
	switch raw {
	case SourceMeta, SourceGoogle, SourceManual, SourceWebsite, SourceReferral:
		return true
	default:
		return false
	}
}
