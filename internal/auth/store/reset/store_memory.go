package reset

import (
	"context"
	"sync"

	"medbee/internal/auth/models"
	"medbee/pkg/platform/sentinel"
)

// InMemoryStore keeps password reset tokens in a map keyed by token.
type InMemoryStore struct {
	mu     sync.Mutex
	tokens map[string]models.PasswordReset
}

func New() *InMemoryStore {
	return &InMemoryStore{tokens: make(map[string]models.PasswordReset)}
}

func (s *InMemoryStore) Create(_ context.Context, reset *models.PasswordReset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tokens[reset.Token]; exists {
		return sentinel.ErrConflict
	}
	s.tokens[reset.Token] = *reset
	return nil
}

func (s *InMemoryStore) FindByToken(_ context.Context, token string) (*models.PasswordReset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.tokens[token]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &r, nil
}

// MarkUsed flips the used flag once. A second call returns ErrAlreadyUsed.
func (s *InMemoryStore) MarkUsed(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.tokens[token]
	if !ok {
		return sentinel.ErrNotFound
	}
	if r.Used {
		return sentinel.ErrAlreadyUsed
	}
	r.Used = true
	s.tokens[token] = r
	return nil
}
