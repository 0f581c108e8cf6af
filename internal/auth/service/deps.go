package service

import (
	"context"
	"time"

	id "medbee/pkg/domain"
)

type TokenIssuer interface {
	GenerateToken(userID id.UserID, ttl time.Duration) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}

// TxRunner runs fn in one transaction. Stores pick the transaction up from ctx.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Metrics interface {
	IncrementUsersCreated()
	IncrementLoginsFailed()
}
