package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/clientcare/crm/pkg/db/pagination"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Service interface {
	List(ctx context.Context, orgID snowflake.ID, req ListRequest) (*ListResponse, error)
	GetByID(ctx context.Context, orgID, id snowflake.ID) (*Lead, error)
	Create(ctx context.Context, orgID snowflake.ID, createdBy uuid.UUID, req CreateRequest) (*Lead, error)
	Update(ctx context.Context, orgID, id snowflake.ID, req UpdateRequest) (*Lead, error)
	Delete(ctx context.Context, orgID, id snowflake.ID) error
	CountSince(ctx context.Context, orgID snowflake.ID, since time.Time) (int64, error)
}

type ListRequest struct {
	Status string
	Source string
	Search string
	Page   pagination.Pagination
}

type ListResponse struct {
	Items    []Lead `json:"items"`
	Total    int64  `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

type CreateRequest struct {
	Name           string
	Phone          string
	Email          string
	AlternatePhone string
	WhatsAppNumber string

	Service    string
	ClinicName string
	City       string
	State      string
	Pincode    string
	Address    string

	Source     string
	Status     string
	AssignedTo string

	Birthday              string
	Age                   int
	Gender                string
	Occupation            string
	CompanyName           string
	ReferredBy            string
	LanguagePreference    string
	BestTimeToCall        string
	PreviousClinicVisited string
	Budget                string
	Urgency               string

	MetaData   datatypes.JSONMap
	GoogleData datatypes.JSONMap
}

// UpdateRequest applies only its non-nil fields.
type UpdateRequest struct {
	Name           *string
	Phone          *string
	Email          *string
	AlternatePhone *string
	WhatsAppNumber *string

	Service    *string
	ClinicName *string
	City       *string
	State      *string
	Pincode    *string
	Address    *string

	Source     *string
	Status     *string
	AssignedTo *string

	Birthday              *string
	Age                   *int
	Gender                *string
	Occupation            *string
	CompanyName           *string
	ReferredBy            *string
	LanguagePreference    *string
	BestTimeToCall        *string
	PreviousClinicVisited *string
	Budget                *string
	Urgency               *string

	MetaData   datatypes.JSONMap
	GoogleData datatypes.JSONMap
}

var (
	ErrNotFound      = errors.New("lead_not_found")
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidPhone  = errors.New("invalid_phone")
	ErrInvalidStatus = errors.New("invalid_status")
	ErrInvalidSource = errors.New("invalid_source")
)
