// Package identity verifies bearer tokens against the external identity provider.
package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Principal is the authenticated caller. It is resolved per request and
// never persisted.
type Principal struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Verifier resolves a bearer token to a Principal.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// ErrUnauthenticated covers every verification failure: missing or malformed
// tokens, provider rejections, and transport faults alike. Callers cannot
// distinguish the cause.
var ErrUnauthenticated = errors.New("unauthenticated")
