package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clientcare/crm/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(authURL string) *Client {
	return NewClient(config.Config{
		AuthURL:        authURL,
		AuthServiceKey: "service-key",
	}, zap.NewNop())
}

func TestVerifyResolvesPrincipal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"6f1c7956-5bd1-4a55-9b60-6b9c7bca3a6b","email":"agent@clinic.example"}`))
	}))
	defer srv.Close()

	principal, err := newTestClient(srv.URL).Verify(context.Background(), "token-123")
	require.NoError(t, err)
	assert.Equal(t, "6f1c7956-5bd1-4a55-9b60-6b9c7bca3a6b", principal.ID.String())
	assert.Equal(t, "agent@clinic.example", principal.Email)
}

func TestVerifyRejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Verify(context.Background(), "bad-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestVerifyProviderFaultMapsToUnauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Verify(context.Background(), "token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestVerifyEmptyToken(t *testing.T) {
	_, err := newTestClient("http://localhost:1").Verify(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestVerifyMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"not-a-uuid"`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Verify(context.Background(), "token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
