package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"

	"github.com/clientcare/crm/internal/clock"
	"github.com/clientcare/crm/internal/lead/domain"
)

type service struct {
	repo  domain.Repository
	genID *snowflake.Node
	clk   clock.Clock
}

func NewService(repo domain.Repository, genID *snowflake.Node, clk clock.Clock) domain.Service {
	return &service{repo: repo, genID: genID, clk: clk}
}

func (s *service) List(ctx context.Context, orgID snowflake.ID, req domain.ListRequest) (*domain.ListResponse, error) {
	if req.Status != "" && !domain.ValidStatus(req.Status) {
		return nil, domain.ErrInvalidStatus
	}
	if req.Source != "" && !domain.ValidSource(req.Source) {
		return nil, domain.ErrInvalidSource
	}

	page := req.Page.Normalize()
	items, total, err := s.repo.List(ctx, orgID, domain.ListFilter{
		Status: req.Status,
		Source: req.Source,
		Search: req.Search,
	}, page)
	if err != nil {
		return nil, err
	}

	return &domain.ListResponse{
		Items:    items,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}

func (s *service) GetByID(ctx context.Context, orgID, id snowflake.ID) (*domain.Lead, error) {
	return s.repo.FindByID(ctx, orgID, id)
}

func (s *service) Create(ctx context.Context, orgID snowflake.ID, createdBy uuid.UUID, req domain.CreateRequest) (*domain.Lead, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return nil, domain.ErrInvalidPhone
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = domain.SourceManual
	}
	if !domain.ValidSource(source) {
		return nil, domain.ErrInvalidSource
	}

	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = domain.StatusNew
	}
	if !domain.ValidStatus(status) {
		return nil, domain.ErrInvalidStatus
	}

	now := s.clk.Now()
	lead := domain.Lead{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		CreatedBy: createdBy,

		Name:           name,
		Phone:          phone,
		Email:          strings.TrimSpace(req.Email),
		AlternatePhone: strings.TrimSpace(req.AlternatePhone),
		WhatsAppNumber: strings.TrimSpace(req.WhatsAppNumber),

		Service:    strings.TrimSpace(req.Service),
		ClinicName: strings.TrimSpace(req.ClinicName),
		City:       strings.TrimSpace(req.City),
		State:      strings.TrimSpace(req.State),
		Pincode:    strings.TrimSpace(req.Pincode),
		Address:    strings.TrimSpace(req.Address),

		Source:     source,
		Status:     status,
		AssignedTo: strings.TrimSpace(req.AssignedTo),

		Birthday:              strings.TrimSpace(req.Birthday),
		Age:                   req.Age,
		Gender:                strings.TrimSpace(req.Gender),
		Occupation:            strings.TrimSpace(req.Occupation),
		CompanyName:           strings.TrimSpace(req.CompanyName),
		ReferredBy:            strings.TrimSpace(req.ReferredBy),
		LanguagePreference:    strings.TrimSpace(req.LanguagePreference),
		BestTimeToCall:        strings.TrimSpace(req.BestTimeToCall),
		PreviousClinicVisited: strings.TrimSpace(req.PreviousClinicVisited),
		Budget:                strings.TrimSpace(req.Budget),
		Urgency:               strings.TrimSpace(req.Urgency),

		MetaData:   req.MetaData,
		GoogleData: req.GoogleData,

		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, &lead); err != nil {
		return nil, err
	}

	return &lead, nil
}

// Update applies only the non-nil fields. Tenant ownership is enforced by
// the scoped UPDATE itself, not a prior read.
func (s *service) Update(ctx context.Context, orgID, id snowflake.ID, req domain.UpdateRequest) (*domain.Lead, error) {
	values := map[string]any{}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		values["name"] = name
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			return nil, domain.ErrInvalidPhone
		}
		values["phone"] = phone
	}
	if req.Status != nil {
		if !domain.ValidStatus(*req.Status) {
			return nil, domain.ErrInvalidStatus
		}
		values["status"] = *req.Status
	}
	if req.Source != nil {
		if !domain.ValidSource(*req.Source) {
			return nil, domain.ErrInvalidSource
		}
		values["source"] = *req.Source
	}

	setString(values, "email", req.Email)
	setString(values, "alternate_phone", req.AlternatePhone)
	setString(values, "whatsapp_number", req.WhatsAppNumber)
	setString(values, "service", req.Service)
	setString(values, "clinic_name", req.ClinicName)
	setString(values, "city", req.City)
	setString(values, "state", req.State)
	setString(values, "pincode", req.Pincode)
	setString(values, "address", req.Address)
	setString(values, "assigned_to", req.AssignedTo)
	setString(values, "birthday", req.Birthday)
	setString(values, "gender", req.Gender)
	setString(values, "occupation", req.Occupation)
	setString(values, "company_name", req.CompanyName)
	setString(values, "referred_by", req.ReferredBy)
	setString(values, "language_preference", req.LanguagePreference)
	setString(values, "best_time_to_call", req.BestTimeToCall)
	setString(values, "previous_clinic_visited", req.PreviousClinicVisited)
	setString(values, "budget", req.Budget)
	setString(values, "urgency", req.Urgency)

	if req.Age != nil {
		values["age"] = *req.Age
	}
	if req.MetaData != nil {
		values["meta_data"] = req.MetaData
	}
	if req.GoogleData != nil {
		values["google_data"] = req.GoogleData
	}

	values["updated_at"] = s.clk.Now()

	affected, err := s.repo.Update(ctx, orgID, id, values)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrNotFound
	}

	return s.repo.FindByID(ctx, orgID, id)
}

func (s *service) Delete(ctx context.Context, orgID, id snowflake.ID) error {
	affected, err := s.repo.Delete(ctx, orgID, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *service) CountSince(ctx context.Context, orgID snowflake.ID, since time.Time) (int64, error) {
	return s.repo.CountSince(ctx, orgID, since)
}

func setString(values map[string]any, column string, value *string) {
	if value == nil {
		return
	}
	values[column] = strings.TrimSpace(*value)
}
