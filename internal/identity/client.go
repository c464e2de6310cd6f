package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clientcare/crm/internal/config"
)

// Client verifies tokens via the identity provider's user endpoint.
type Client struct {
	authURL    string
	serviceKey string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(cfg config.Config, log *zap.Logger) *Client {
	return &Client{
		authURL:    strings.TrimRight(cfg.AuthURL, "/"),
		serviceKey: cfg.AuthServiceKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verify resolves the token to a Principal. No retries: any failure maps
// to ErrUnauthenticated.
func (c *Client) Verify(ctx context.Context, token string) (*Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" || c.authURL == "" {
		return nil, ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.authURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("identity provider unreachable", zap.Error(err))
		return nil, ErrUnauthenticated
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrUnauthenticated
	}

	var user userResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		c.log.Debug("identity provider returned malformed body", zap.Error(err))
		return nil, ErrUnauthenticated
	}

	id, err := uuid.Parse(strings.TrimSpace(user.ID))
	if err != nil {
		return nil, ErrUnauthenticated
	}

	return &Principal{ID: id, Email: strings.TrimSpace(user.Email)}, nil
}
