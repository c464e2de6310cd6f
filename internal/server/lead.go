package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	leaddomain "github.com/clientcare/crm/internal/lead/domain"
	"github.com/clientcare/crm/pkg/db/pagination"
)

type listLeadsRequest struct {
	Status string `form:"status"`
	Source string `form:"source"`
	Search string `form:"search"`
	pagination.Pagination
}

type createLeadRequest struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	AlternatePhone string `json:"alternate_phone"`
	WhatsAppNumber string `json:"whatsapp_number"`

	Service    string `json:"service"`
	ClinicName string `json:"clinic_name"`
	City       string `json:"city"`
	State      string `json:"state"`
	Pincode    string `json:"pincode"`
	Address    string `json:"address"`

	Source     string `json:"source"`
	Status     string `json:"status"`
	AssignedTo string `json:"assigned_to"`

	Birthday              string `json:"birthday"`
	Age                   int    `json:"age"`
	Gender                string `json:"gender"`
	Occupation            string `json:"occupation"`
	CompanyName           string `json:"company_name"`
	ReferredBy            string `json:"referred_by"`
	LanguagePreference    string `json:"language_preference"`
	BestTimeToCall        string `json:"best_time_to_call"`
	PreviousClinicVisited string `json:"previous_clinic_visited"`
	Budget                string `json:"budget"`
	Urgency               string `json:"urgency"`

	MetaData   datatypes.JSONMap `json:"meta_data"`
	GoogleData datatypes.JSONMap `json:"google_data"`
}

type updateLeadRequest struct {
	Name           *string `json:"name"`
	Phone          *string `json:"phone"`
	Email          *string `json:"email"`
	AlternatePhone *string `json:"alternate_phone"`
	WhatsAppNumber *string `json:"whatsapp_number"`

	Service    *string `json:"service"`
	ClinicName *string `json:"clinic_name"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	Pincode    *string `json:"pincode"`
	Address    *string `json:"address"`

	Source     *string `json:"source"`
	Status     *string `json:"status"`
	AssignedTo *string `json:"assigned_to"`

	Birthday              *string `json:"birthday"`
	Age                   *int    `json:"age"`
	Gender                *string `json:"gender"`
	Occupation            *string `json:"occupation"`
	CompanyName           *string `json:"company_name"`
	ReferredBy            *string `json:"referred_by"`
	LanguagePreference    *string `json:"language_preference"`
	BestTimeToCall        *string `json:"best_time_to_call"`
	PreviousClinicVisited *string `json:"previous_clinic_visited"`
	Budget                *string `json:"budget"`
	Urgency               *string `json:"urgency"`

	MetaData   datatypes.JSONMap `json:"meta_data"`
	GoogleData datatypes.JSONMap `json:"google_data"`
}

func (s *Server) ListLeads(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req listLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.leadSvc.List(c.Request.Context(), tenant.OrgID, leaddomain.ListRequest{
		Status: strings.TrimSpace(req.Status),
		Source: strings.TrimSpace(req.Source),
		Search: strings.TrimSpace(req.Search),
		Page:   req.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateLead(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	principal, ok := principalFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	created, err := s.leadSvc.Create(c.Request.Context(), tenant.OrgID, principal.ID, leaddomain.CreateRequest{
		Name:                  req.Name,
		Phone:                 req.Phone,
		Email:                 req.Email,
		AlternatePhone:        req.AlternatePhone,
		WhatsAppNumber:        req.WhatsAppNumber,
		Service:               req.Service,
		ClinicName:            req.ClinicName,
		City:                  req.City,
		State:                 req.State,
		Pincode:               req.Pincode,
		Address:               req.Address,
		Source:                req.Source,
		Status:                req.Status,
		AssignedTo:            req.AssignedTo,
		Birthday:              req.Birthday,
		Age:                   req.Age,
		Gender:                req.Gender,
		Occupation:            req.Occupation,
		CompanyName:           req.CompanyName,
		ReferredBy:            req.ReferredBy,
		LanguagePreference:    req.LanguagePreference,
		BestTimeToCall:        req.BestTimeToCall,
		PreviousClinicVisited: req.PreviousClinicVisited,
		Budget:                req.Budget,
		Urgency:               req.Urgency,
		MetaData:              req.MetaData,
		GoogleData:            req.GoogleData,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordLeadMutation(c, "create")
	c.JSON(http.StatusCreated, created)
}

func (s *Server) GetLead(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := parsePathID(c.Param("id"))
	if err != nil {
		AbortWithError(c, leaddomain.ErrNotFound)
		return
	}

	item, err := s.leadSvc.GetByID(c.Request.Context(), tenant.OrgID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (s *Server) UpdateLead(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := parsePathID(c.Param("id"))
	if err != nil {
		AbortWithError(c, leaddomain.ErrNotFound)
		return
	}

	var req updateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.leadSvc.Update(c.Request.Context(), tenant.OrgID, id, leaddomain.UpdateRequest{
		Name:                  req.Name,
		Phone:                 req.Phone,
		Email:                 req.Email,
		AlternatePhone:        req.AlternatePhone,
		WhatsAppNumber:        req.WhatsAppNumber,
		Service:               req.Service,
		ClinicName:            req.ClinicName,
		City:                  req.City,
		State:                 req.State,
		Pincode:               req.Pincode,
		Address:               req.Address,
		Source:                req.Source,
		Status:                req.Status,
		AssignedTo:            req.AssignedTo,
		Birthday:              req.Birthday,
		Age:                   req.Age,
		Gender:                req.Gender,
		Occupation:            req.Occupation,
		CompanyName:           req.CompanyName,
		ReferredBy:            req.ReferredBy,
		LanguagePreference:    req.LanguagePreference,
		BestTimeToCall:        req.BestTimeToCall,
		PreviousClinicVisited: req.PreviousClinicVisited,
		Budget:                req.Budget,
		Urgency:               req.Urgency,
		MetaData:              req.MetaData,
		GoogleData:            req.GoogleData,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordLeadMutation(c, "update")
	c.JSON(http.StatusOK, updated)
}

func (s *Server) DeleteLead(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	id, err := parsePathID(c.Param("id"))
	if err != nil {
		AbortWithError(c, leaddomain.ErrNotFound)
		return
	}

	if err := s.leadSvc.Delete(c.Request.Context(), tenant.OrgID, id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordLeadMutation(c, "delete")
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) recordLeadMutation(c *gin.Context, action string) {
	if s.obsMetrics != nil {
		s.obsMetrics.RecordLeadMutation(c.Request.Context(), action)
	}
}

func parsePathID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, ErrNotFound
	}
	return id, nil
}
