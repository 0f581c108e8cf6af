package adapters

import (
	"context"

	"medbee/internal/admin"
	authModels "medbee/internal/auth/models"
	authmw "medbee/pkg/platform/middleware/auth"
)

// AuthUserStore is the part of the auth user store the dashboard reads.
type AuthUserStore interface {
	Count(ctx context.Context) (int, error)
	CountByRole(ctx context.Context, role authmw.Role) (int, error)
	ListLatest(ctx context.Context, limit int) ([]*authModels.User, error)
}

// UserStoreAdapter adapts an auth user store to admin's UserDirectory.
type UserStoreAdapter struct {
	store AuthUserStore
}

func NewUserStoreAdapter(store AuthUserStore) *UserStoreAdapter {
	return &UserStoreAdapter{store: store}
}

func (a *UserStoreAdapter) Stats(ctx context.Context) (admin.UserStats, error) {
	var stats admin.UserStats
	var err error
	if stats.Total, err = a.store.Count(ctx); err != nil {
		return stats, err
	}
	if stats.Admins, err = a.store.CountByRole(ctx, authmw.RoleAdmin); err != nil {
		return stats, err
	}
	stats.Users, err = a.store.CountByRole(ctx, authmw.RoleUser)
	return stats, err
}

// Latest returns the newest users mapped to admin summaries.
func (a *UserStoreAdapter) Latest(ctx context.Context, limit int) ([]*admin.UserSummary, error) {
	users, err := a.store.ListLatest(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := make([]*admin.UserSummary, len(users))
	for i, u := range users {
		result[i] = mapUser(u)
	}
	return result, nil
}

func mapUser(u *authModels.User) *admin.UserSummary {
	return &admin.UserSummary{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
