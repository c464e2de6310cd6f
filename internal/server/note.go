package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	notedomain "github.com/clientcare/crm/internal/note/domain"
)

type createNoteRequest struct {
	LeadID  snowflake.ID `json:"lead_id"`
	Content string       `json:"content"`
}

type updateNoteRequest struct {
	Content string `json:"content"`
}

func (s *Server) ListNotesByLead(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	leadID, err := parsePathID(c.Param("leadId"))
	if err != nil {
		AbortWithError(c, notedomain.ErrNotFound)
		return
	}

	items, err := s.noteSvc.ListByLead(c.Request.Context(), tenant.OrgID, leadID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) CreateNote(c *gin.Context) {
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

	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.LeadID == 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	created, err := s.noteSvc.Create(c.Request.Context(), tenant.OrgID, principal.ID, notedomain.CreateRequest{
		LeadID:  req.LeadID,
		Content: req.Content,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (s *Server) UpdateNote(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	noteID, err := parsePathID(c.Param("id"))
	if err != nil {
		AbortWithError(c, notedomain.ErrNotFound)
		return
	}

	var req updateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	updated, err := s.noteSvc.Update(c.Request.Context(), tenant.OrgID, noteID, req.Content)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (s *Server) DeleteNote(c *gin.Context) {
	tenant, ok := tenantFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	noteID, err := parsePathID(c.Param("id"))
	if err != nil {
		AbortWithError(c, notedomain.ErrNotFound)
		return
	}

	if err := s.noteSvc.Delete(c.Request.Context(), tenant.OrgID, noteID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
