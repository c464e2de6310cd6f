package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clientcare/crm/internal/whatsapp"
)

type testConnectionRequest struct {
	AccessToken   string `json:"access_token"`
	PhoneNumberID string `json:"phone_number_id"`
}

type sendMessageRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type sendTemplateRequest struct {
	Phone        string                       `json:"phone"`
	TemplateName string                       `json:"template_name"`
	LanguageCode string                       `json:"language_code"`
	Components   []whatsapp.TemplateComponent `json:"components"`
}

// defaultBulkDelayMS spaces bulk sends when the request omits delay_ms.
// An explicit zero is honored and sends back to back.
const defaultBulkDelayMS = 1000

type sendBulkRequest struct {
	Recipients []string `json:"recipients"`
	Message    string   `json:"message"`
	DelayMS    *int     `json:"delay_ms"`
}

func (r sendBulkRequest) delay() time.Duration {
	if r.DelayMS == nil {
		return defaultBulkDelayMS * time.Millisecond
	}
	return time.Duration(*r.DelayMS) * time.Millisecond
}

func (s *Server) WhatsAppStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.whatsappClient.Status())
}

func (s *Server) TestWhatsAppConnection(c *gin.Context) {
	var req testConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.AccessToken) == "" || strings.TrimSpace(req.PhoneNumberID) == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	info, err := s.whatsappClient.TestConnection(c.Request.Context(), req.AccessToken, req.PhoneNumberID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"display_phone_number": info.DisplayPhoneNumber,
		"verified_name":        info.VerifiedName,
		"quality_rating":       info.QualityRating,
	})
}

func (s *Server) SendWhatsAppMessage(c *gin.Context) {
	if !s.whatsappClient.IsConfigured() {
		AbortWithError(c, whatsapp.ErrNotConfigured)
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.Message) == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	result := s.whatsappClient.SendText(c.Request.Context(), req.Phone, req.Message)
	if !result.Success {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) SendWhatsAppTemplate(c *gin.Context) {
	if !s.whatsappClient.IsConfigured() {
		AbortWithError(c, whatsapp.ErrNotConfigured)
		return
	}

	var req sendTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.TemplateName) == "" {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.LanguageCode == "" {
		req.LanguageCode = "en"
	}

	result := s.whatsappClient.SendTemplate(c.Request.Context(), req.Phone, req.TemplateName, req.LanguageCode, req.Components)
	if !result.Success {
		c.JSON(http.StatusBadRequest, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) SendWhatsAppBulk(c *gin.Context) {
	if !s.whatsappClient.IsConfigured() {
		AbortWithError(c, whatsapp.ErrNotConfigured)
		return
	}

	var req sendBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.Recipients) == 0 || strings.TrimSpace(req.Message) == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	result := s.whatsappClient.SendBulk(c.Request.Context(), req.Recipients, req.Message, req.delay())
	c.JSON(http.StatusOK, result)
}

func (s *Server) ListWhatsAppTemplates(c *gin.Context) {
	templates, err := s.whatsappClient.GetTemplates(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": templates})
}

// VerifyWhatsAppWebhook answers the Cloud API subscription handshake. The
// provider expects the challenge echoed back as an integer.
func (s *Server) VerifyWhatsAppWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	echoed, ok := s.whatsappClient.VerifyWebhook(mode, token, challenge)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "verification failed"})
		return
	}

	n, err := strconv.Atoi(echoed)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "verification failed"})
		return
	}
	c.JSON(http.StatusOK, n)
}

// ReceiveWhatsAppWebhook always acknowledges with 200 so the provider
// never retries; processing faults stay internal.
func (s *Server) ReceiveWhatsAppWebhook(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		if s.obsMetrics != nil {
			s.obsMetrics.RecordWebhookFailure(c.Request.Context(), "malformed_body")
		}
		c.JSON(http.StatusOK, gin.H{"status": "error"})
		return
	}

	s.webhookProcessor.Process(c.Request.Context(), payload)
	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
