package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/clientcare/crm/internal/config"
	"github.com/clientcare/crm/internal/observability/metrics"
)

const defaultGraphBaseURL = "https://graph.facebook.com/v18.0"

var (
	ErrNotConfigured          = errors.New("whatsapp_not_configured")
	ErrBusinessAccountMissing = errors.New("business_account_id_not_configured")
)

// SendResult reports the outcome of a single Cloud API send. Delivery
// failures are data, not Go errors: callers inspect Success.
type SendResult struct {
	Success    bool   `json:"success"`
	MessageID  string `json:"message_id,omitempty"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

type BulkSendDetail struct {
	Phone     string `json:"phone"`
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

type BulkSendResult struct {
	Total   int              `json:"total"`
	Sent    int              `json:"sent"`
	Failed  int              `json:"failed"`
	Details []BulkSendDetail `json:"details"`
}

type TemplateComponent struct {
	Type       string              `json:"type"`
	Parameters []map[string]string `json:"parameters,omitempty"`
}

type ConnectionInfo struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	VerifiedName       string `json:"verified_name"`
	QualityRating      string `json:"quality_rating"`
}

type Status struct {
	Configured         bool   `json:"configured"`
	PhoneNumberID      string `json:"phone_number_id,omitempty"`
	HasBusinessAccount bool   `json:"has_business_account"`
}

type Client struct {
	cfg        config.WhatsAppConfig
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
	metrics    *metrics.Metrics
}

func NewClient(cfg config.Config, log *zap.Logger, m *metrics.Metrics) *Client {
	return &Client{
		cfg:        cfg.WhatsApp,
		baseURL:    defaultGraphBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
		metrics:    m,
	}
}

func (c *Client) IsConfigured() bool {
	return c.cfg.AccessToken != "" && c.cfg.PhoneNumberID != ""
}

// Status masks the phone number id so the endpoint never leaks a full
// credential identifier.
func (c *Client) Status() Status {
	s := Status{
		Configured:         c.IsConfigured(),
		HasBusinessAccount: c.cfg.BusinessAccountID != "",
	}
	if c.cfg.PhoneNumberID != "" {
		masked := c.cfg.PhoneNumberID
		if len(masked) > 8 {
			masked = masked[:8]
		}
		s.PhoneNumberID = masked + "..."
	}
	return s
}

func (c *Client) SendText(ctx context.Context, to, body string) SendResult {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "text",
		"text": map[string]any{
			"preview_url": false,
			"body":        body,
		},
	}
	return c.send(ctx, "text", payload)
}

func (c *Client) SendTemplate(ctx context.Context, to, templateName, languageCode string, components []TemplateComponent) SendResult {
	template := map[string]any{
		"name":     templateName,
		"language": map[string]string{"code": languageCode},
	}
	if len(components) > 0 {
		template["components"] = components
	}
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "template",
		"template":          template,
	}
	return c.send(ctx, "template", payload)
}

func (c *Client) SendImage(ctx context.Context, to, imageURL, caption string) SendResult {
	image := map[string]any{"link": imageURL}
	if caption != "" {
		image["caption"] = caption
	}
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                to,
		"type":              "image",
		"image":             image,
	}
	return c.send(ctx, "image", payload)
}

// SendBulk delivers the message to each recipient in order, pausing for
// delay after every send. A zero delay sends back to back. A failed
// recipient never aborts the rest of the batch.
func (c *Client) SendBulk(ctx context.Context, phones []string, body string, delay time.Duration) BulkSendResult {
	result := BulkSendResult{
		Total:   len(phones),
		Details: make([]BulkSendDetail, 0, len(phones)),
	}

	for _, phone := range phones {
		sent := c.SendText(ctx, phone, body)
		detail := BulkSendDetail{
			Phone:     phone,
			Success:   sent.Success,
			MessageID: sent.MessageID,
			Error:     sent.Error,
		}
		result.Details = append(result.Details, detail)
		if sent.Success {
			result.Sent++
		} else {
			result.Failed++
		}

		if interruptedBetweenSends(ctx, delay) {
			c.log.Warn("bulk send interrupted",
				zap.Int("sent", result.Sent),
				zap.Int("failed", result.Failed),
				zap.Int("total", result.Total),
			)
			return result
		}
	}

	return result
}

func interruptedBetweenSends(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return ctx.Err() != nil
	}
	select {
	case <-ctx.Done():
		return true
	case <-time.After(delay):
		return false
	}
}

func (c *Client) GetTemplates(ctx context.Context) ([]map[string]any, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if c.cfg.BusinessAccountID == "" {
		return nil, ErrBusinessAccountMissing
	}

	url := fmt.Sprintf("%s/%s/message_templates", c.baseURL, c.cfg.BusinessAccountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("template fetch failed with status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, err
	}
	return parsed.Data, nil
}

// TestConnection probes the phone number endpoint with caller-supplied
// credentials so an operator can validate them before saving.
func (c *Client) TestConnection(ctx context.Context, accessToken, phoneNumberID string) (*ConnectionInfo, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("connection test failed with status %d: %s", resp.StatusCode, string(raw))
	}

	var info ConnectionInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// VerifyWebhook implements the Cloud API subscription handshake. The
// comparison is plain equality against the configured verify token.
func (c *Client) VerifyWebhook(mode, token, challenge string) (string, bool) {
	if mode == "subscribe" && token != "" && token == c.cfg.WebhookVerifyToken {
		return challenge, true
	}
	return "", false
}

func (c *Client) send(ctx context.Context, messageType string, payload map[string]any) SendResult {
	if !c.IsConfigured() {
		return SendResult{Success: false, Error: "whatsapp is not configured"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return SendResult{Success: false, Error: err.Error()}
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return SendResult{Success: false, Error: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("whatsapp send transport fault",
			zap.String("message_type", messageType),
			zap.Error(err),
		)
		c.recordSend(ctx, messageType, false)
		return SendResult{Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		c.recordSend(ctx, messageType, false)
		return SendResult{Success: false, Error: readErr.Error(), StatusCode: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("whatsapp send rejected",
			zap.String("message_type", messageType),
			zap.Int("status_code", resp.StatusCode),
		)
		c.recordSend(ctx, messageType, false)
		return SendResult{Success: false, Error: string(raw), StatusCode: resp.StatusCode}
	}

	var parsed struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil || len(parsed.Messages) == 0 {
		c.recordSend(ctx, messageType, false)
		return SendResult{Success: false, Error: "unexpected response body", StatusCode: resp.StatusCode}
	}

	c.recordSend(ctx, messageType, true)
	return SendResult{Success: true, MessageID: parsed.Messages[0].ID, StatusCode: resp.StatusCode}
}

func (c *Client) recordSend(ctx context.Context, messageType string, success bool) {
	if c.metrics != nil {
		c.metrics.RecordWhatsAppSend(ctx, messageType, success)
	}
}
