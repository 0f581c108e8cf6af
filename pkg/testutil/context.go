package testutil

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"medbee/internal/platform/logger"
	id "medbee/pkg/domain"
	authmw "medbee/pkg/platform/middleware/auth"
	"medbee/pkg/platform/sentinel"
)

// Identities is an in-memory identity directory with one bearer token per
// identity. It backs a real Guard so handler tests run the full auth path.
type Identities struct {
	byID    map[id.UserID]authmw.Identity
	byToken map[string]id.UserID
}

// NewIdentities returns an empty directory.
func NewIdentities() *Identities {
	return &Identities{
		byID:    make(map[id.UserID]authmw.Identity),
		byToken: make(map[string]id.UserID),
	}
}

// Add registers an identity with the given role and returns it with its token.
func (d *Identities) Add(role authmw.Role) (authmw.Identity, string) {
	identity := authmw.Identity{
		ID:        id.NewUserID(),
		Email:     uuid.NewString()[:8] + "@example.com",
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
	}
	token := "token-" + identity.ID.String()
	d.byID[identity.ID] = identity
	d.byToken[token] = identity.ID
	return identity, token
}

// Guard builds a guard in JSON failure mode over the directory.
func (d *Identities) Guard(opts ...authmw.Option) *authmw.Guard {
	return authmw.NewGuard(d, d, logger.Discard(), opts...)
}

func (d *Identities) ValidateToken(token string) (*authmw.TokenClaims, error) {
	userID, ok := d.byToken[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return &authmw.TokenClaims{UserID: userID.String()}, nil
}

func (d *Identities) ResolveIdentity(_ context.Context, userID id.UserID) (*authmw.Identity, error) {
	identity, ok := d.byID[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &identity, nil
}

// WithBearer sets the Authorization header.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
