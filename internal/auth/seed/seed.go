// Package seed creates the bootstrap accounts used by fresh installs and demos.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medbee/internal/auth/models"
	id "medbee/pkg/domain"
	authmw "medbee/pkg/platform/middleware/auth"
	"medbee/pkg/platform/sentinel"
)

type Store interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	CountByRole(ctx context.Context, role authmw.Role) (int, error)
}

type Hasher interface {
	Hash(password string) (string, error)
}

// Account describes a bootstrap user.
type Account struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      authmw.Role
}

// Admin and DemoUser are the accounts the seed commands create by default.
var (
	Admin = Account{
		Email:     "admin@medbee.com",
		Password:  "admin123",
		FirstName: "Admin",
		LastName:  "User",
		Role:      authmw.RoleAdmin,
	}
	DemoUser = Account{
		Email:     "test@medbee.com",
		Password:  "test123",
		FirstName: "Test",
		LastName:  "User",
		Role:      authmw.RoleUser,
	}
)

func demoProfile() models.HealthProfile {
	height, weight := 170.0, 70.0
	return models.HealthProfile{
		Gender:             "Not Specified",
		Height:             &height,
		Weight:             &weight,
		Allergies:          "None",
		ExistingConditions: "None",
	}
}

// Seeder creates accounts that do not exist yet.
type Seeder struct {
	users  Store
	hasher Hasher
	now    func() time.Time
}

func New(users Store, hasher Hasher) *Seeder {
	return &Seeder{users: users, hasher: hasher, now: time.Now}
}

// Result reports the account and whether this run created it.
type Result struct {
	User    *models.User
	Created bool
}

// EnsureAdmin creates acct unless any admin already exists. The existing
// admin is not returned; Result.User is nil in that case.
func (s *Seeder) EnsureAdmin(ctx context.Context, acct Account) (Result, error) {
	n, err := s.users.CountByRole(ctx, authmw.RoleAdmin)
	if err != nil {
		return Result{}, fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return Result{}, nil
	}
	acct.Role = authmw.RoleAdmin
	return s.create(ctx, acct, models.HealthProfile{})
}

// EnsureUser creates acct unless its email is already registered.
func (s *Seeder) EnsureUser(ctx context.Context, acct Account) (Result, error) {
	existing, err := s.users.FindByEmail(ctx, acct.Email)
	switch {
	case err == nil:
		return Result{User: existing}, nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return Result{}, fmt.Errorf("find %s: %w", acct.Email, err)
	}
	return s.create(ctx, acct, demoProfile())
}

func (s *Seeder) create(ctx context.Context, acct Account, profile models.HealthProfile) (Result, error) {
	hash, err := s.hasher.Hash(acct.Password)
	if err != nil {
		return Result{}, fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	u := &models.User{
		ID:            id.NewUserID(),
		Email:         acct.Email,
		PasswordHash:  hash,
		FirstName:     acct.FirstName,
		LastName:      acct.LastName,
		Role:          acct.Role,
		HealthProfile: profile,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return Result{}, fmt.Errorf("create %s: %w", acct.Email, err)
	}
	return Result{User: u, Created: true}, nil
}
