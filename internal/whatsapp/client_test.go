package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clientcare/crm/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(config.Config{
		WhatsApp: config.WhatsAppConfig{
			AccessToken:        "test-token",
			PhoneNumberID:      "1234567890",
			BusinessAccountID:  "9876543210",
			WebhookVerifyToken: "verify-secret",
		},
	}, zap.NewNop(), nil)
	c.baseURL = srv.URL
	return c, srv
}

func TestSendTextSuccess(t *testing.T) {
	var gotPayload map[string]any
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1234567890/messages", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.abc123"}]}`))
	}))

	result := c.SendText(context.Background(), "919900112233", "hello there")

	assert.True(t, result.Success)
	assert.Equal(t, "wamid.abc123", result.MessageID)
	assert.Empty(t, result.Error)
	assert.Equal(t, "whatsapp", gotPayload["messaging_product"])
	assert.Equal(t, "919900112233", gotPayload["to"])
	assert.Equal(t, "text", gotPayload["type"])
}

func TestSendTextAPIFailure(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid recipient"}}`))
	}))

	result := c.SendText(context.Background(), "not-a-number", "hello")

	assert.False(t, result.Success)
	assert.Empty(t, result.MessageID)
	assert.Contains(t, result.Error, "invalid recipient")
	assert.Equal(t, http.StatusBadRequest, result.StatusCode)
}

func TestSendTextNotConfigured(t *testing.T) {
	c := NewClient(config.Config{}, zap.NewNop(), nil)

	result := c.SendText(context.Background(), "919900112233", "hello")

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestSendTemplateEnvelope(t *testing.T) {
	var gotPayload map[string]any
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.tpl"}]}`))
	}))

	result := c.SendTemplate(context.Background(), "919900112233", "appointment_reminder", "en", nil)

	require.True(t, result.Success)
	template, ok := gotPayload["template"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "appointment_reminder", template["name"])
	language, ok := template["language"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "en", language["code"])
	assert.NotContains(t, template, "components")
}

func TestSendBulkOneFailureDoesNotAbort(t *testing.T) {
	var calls atomic.Int64
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.bulk"}]}`))
	}))

	result := c.SendBulk(context.Background(), []string{"911", "912", "913"}, "bulk hello", time.Millisecond)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Details, 3)
	assert.True(t, result.Details[0].Success)
	assert.False(t, result.Details[1].Success)
	assert.True(t, result.Details[2].Success)
	assert.Equal(t, "912", result.Details[1].Phone)
}

func TestSendBulkZeroDelaySendsBackToBack(t *testing.T) {
	var calls atomic.Int64
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.fast"}]}`))
	}))

	start := time.Now()
	result := c.SendBulk(context.Background(), []string{"911", "912", "913"}, "hello", 0)

	assert.Equal(t, 3, result.Sent)
	assert.Equal(t, int64(3), calls.Load())
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestSendBulkCancelledMidBatch(t *testing.T) {
	var calls atomic.Int64
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.partial"}]}`))
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	result := c.SendBulk(ctx, []string{"911", "912", "913"}, "hello", 5*time.Second)

	// Only the first recipient was reached before the deadline cut the
	// inter-message pause short.
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Sent)
	assert.Zero(t, result.Failed)
	require.Len(t, result.Details, 1)
	assert.Equal(t, int64(1), calls.Load())
}

func TestSendImageEnvelope(t *testing.T) {
	var gotPayload map[string]any
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.img"}]}`))
	}))

	result := c.SendImage(context.Background(), "919900112233", "https://cdn.example/offer.png", "March offer")

	require.True(t, result.Success)
	assert.Equal(t, "image", gotPayload["type"])
	image, ok := gotPayload["image"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example/offer.png", image["link"])
	assert.Equal(t, "March offer", image["caption"])

	result = c.SendImage(context.Background(), "919900112233", "https://cdn.example/offer.png", "")
	require.True(t, result.Success)
	image, ok = gotPayload["image"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, image, "caption")
}

func TestGetTemplatesRequiresBusinessAccount(t *testing.T) {
	c := NewClient(config.Config{
		WhatsApp: config.WhatsAppConfig{
			AccessToken:   "test-token",
			PhoneNumberID: "1234567890",
		},
	}, zap.NewNop(), nil)

	_, err := c.GetTemplates(context.Background())
	assert.ErrorIs(t, err, ErrBusinessAccountMissing)
}

func TestGetTemplates(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/9876543210/message_templates", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[{"name":"welcome","status":"APPROVED"}]}`))
	}))

	templates, err := c.GetTemplates(context.Background())

	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "welcome", templates[0]["name"])
}

func TestTestConnection(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/555000", r.URL.Path)
		assert.Equal(t, "Bearer probe-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"display_phone_number":"+91 99001 12233","verified_name":"Acme Clinic","quality_rating":"GREEN"}`))
	}))

	info, err := c.TestConnection(context.Background(), "probe-token", "555000")

	require.NoError(t, err)
	assert.Equal(t, "+91 99001 12233", info.DisplayPhoneNumber)
	assert.Equal(t, "Acme Clinic", info.VerifiedName)
	assert.Equal(t, "GREEN", info.QualityRating)
}

func TestVerifyWebhook(t *testing.T) {
	c, _ := newTestClient(t, http.NotFoundHandler())

	challenge, ok := c.VerifyWebhook("subscribe", "verify-secret", "424242")
	assert.True(t, ok)
	assert.Equal(t, "424242", challenge)

	_, ok = c.VerifyWebhook("subscribe", "wrong", "424242")
	assert.False(t, ok)

	_, ok = c.VerifyWebhook("unsubscribe", "verify-secret", "424242")
	assert.False(t, ok)
}

func TestStatusMasksPhoneNumberID(t *testing.T) {
	c, _ := newTestClient(t, http.NotFoundHandler())

	status := c.Status()

	assert.True(t, status.Configured)
	assert.True(t, status.HasBusinessAccount)
	assert.Equal(t, "12345678...", status.PhoneNumberID)
}
