package user

import (
	"context"
	"slices"
	"strings"
	"sync"

	"medbee/internal/auth/models"
	id "medbee/pkg/domain"
	authmw "medbee/pkg/platform/middleware/auth"
	"medbee/pkg/platform/sentinel"
)

// InMemoryUserStore backs the user directory when no database is configured.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		byID:    make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

// Create stores a new user. Emails are unique regardless of case.
func (s *InMemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(user.Email)
	if _, taken := s.byEmail[key]; taken {
		return sentinel.ErrConflict
	}
	stored := *user
	s.byID[user.ID] = &stored
	s.byEmail[key] = user.ID
	return nil
}

func (s *InMemoryUserStore) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[user.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	oldKey := strings.ToLower(existing.Email)
	newKey := strings.ToLower(user.Email)
	if newKey != oldKey {
		if _, taken := s.byEmail[newKey]; taken {
			return sentinel.ErrConflict
		}
		delete(s.byEmail, oldKey)
		s.byEmail[newKey] = user.ID
	}
	stored := *user
	s.byID[user.ID] = &stored
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *u
	return &found, nil
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *s.byID[userID]
	return &found, nil
}

func (s *InMemoryUserStore) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byEmail, strings.ToLower(u.Email))
	delete(s.byID, userID)
	return nil
}

func (s *InMemoryUserStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

func (s *InMemoryUserStore) CountByRole(_ context.Context, role authmw.Role) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.byID {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// ListLatest returns up to limit users, newest first.
func (s *InMemoryUserStore) ListLatest(_ context.Context, limit int) ([]*models.User, error) {
	s.mu.RLock()
	out := make([]*models.User, 0, len(s.byID))
	for _, u := range s.byID {
		c := *u
		out = append(out, &c)
	}
	s.mu.RUnlock()
	slices.SortFunc(out, func(a, b *models.User) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
