package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"medbee/internal/auth/models"
	"medbee/internal/auth/secrets"
	"medbee/internal/notification/email"
	id "medbee/pkg/domain"
	dErrors "medbee/pkg/domain-errors"
	authmw "medbee/pkg/platform/middleware/auth"
	"medbee/pkg/platform/sentinel"
	"medbee/pkg/requestcontext"
)

// UserStore is the user directory.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type ResetStore interface {
	Create(ctx context.Context, reset *models.PasswordReset) error
	FindByToken(ctx context.Context, token string) (*models.PasswordReset, error)
	MarkUsed(ctx context.Context, token string) error
}

type Mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

const (
	MsgUserExists          = "User already exists"
	MsgCredentialsRequired = "Email and password are required"
	MsgInvalidCredentials  = "Invalid credentials"
	MsgUserNotFound        = "User not found"
	MsgResetRequested      = "If a user with this email exists, a password reset link will be sent"
	MsgInvalidResetToken   = "Invalid or expired reset token"
	MsgResetSucceeded      = "Password reset successful"
)

type Config struct {
	TokenTTL      time.Duration
	ResetTokenTTL time.Duration
	FrontendURL   string
}

// Service owns registration, login, profile edits, and password resets.
type Service struct {
	users   UserStore
	resets  ResetStore
	tokens  TokenIssuer
	hasher  PasswordHasher
	mailer  Mailer
	tx      TxRunner
	logger  *slog.Logger
	metrics Metrics
	cfg     Config
}

type Option func(*Service)

func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTx(tx TxRunner) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

func New(users UserStore, resets ResetStore, tokens TokenIssuer, hasher PasswordHasher, mailer Mailer, logger *slog.Logger, cfg Config, opts ...Option) *Service {
	s := &Service{
		users:  users,
		resets: resets,
		tokens: tokens,
		hasher: hasher,
		mailer: mailer,
		logger: logger,
		cfg:    cfg,
		tx:     noTx{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type noTx struct{}

func (noTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

// Register creates a user with the default role and returns a fresh token.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResponse, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if errs := req.Validate(); len(errs) > 0 {
		return nil, dErrors.Validation("Validation error", errs)
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, MsgUserExists)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup user")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	user := &models.User{
		ID:           id.NewUserID(),
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         authmw.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeBadRequest, MsgUserExists)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	if s.metrics != nil {
		s.metrics.IncrementUsersCreated()
	}
	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return s.authResponse(user)
}

// Login verifies credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, MsgCredentialsRequired)
	}
	req.Normalize()
	if req.Email == "" || req.Password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, MsgCredentialsRequired)
	}

	user, err := s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user logged in",
		"user_id", user.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return s.authResponse(user)
}

// Authenticate returns the user owning email when password matches.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.loginFailed(ctx, "unknown email")
			return nil, dErrors.New(dErrors.CodeUnauthorized, MsgInvalidCredentials)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup user")
	}
	if err := s.hasher.Verify(password, user.PasswordHash); err != nil {
		if !errors.Is(err, secrets.ErrMismatch) {
			s.logger.ErrorContext(ctx, "password comparison failed", "error", err, "user_id", user.ID.String())
		}
		s.loginFailed(ctx, "password mismatch")
		return nil, dErrors.New(dErrors.CodeUnauthorized, MsgInvalidCredentials)
	}
	return user, nil
}

func (s *Service) loginFailed(ctx context.Context, reason string) {
	s.logger.WarnContext(ctx, "login failed",
		"reason", reason,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.metrics != nil {
		s.metrics.IncrementLoginsFailed()
	}
}

// Me returns the stored user without the password hash.
func (s *Service) Me(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, MsgUserNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup user")
	}
	user.PasswordHash = ""
	return user, nil
}

// ResolveIdentity implements the access guard's identity lookup.
func (s *Service) ResolveIdentity(ctx context.Context, userID id.UserID) (*authmw.Identity, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	identity := user.Identity()
	return &identity, nil
}

// UpdateProfile applies non-empty fields, merges the health profile, and
// issues a fresh token.
func (s *Service) UpdateProfile(ctx context.Context, userID id.UserID, req *models.UpdateProfileRequest) (*models.ProfileResponse, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if errs := req.Validate(); len(errs) > 0 {
		return nil, dErrors.Validation("Validation error", errs)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, MsgUserNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup user")
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Password != "" {
		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if req.HealthProfile != nil {
		user.HealthProfile = user.HealthProfile.Merge(*req.HealthProfile)
	}
	user.UpdatedAt = requestcontext.Now(ctx)

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeBadRequest, MsgUserExists)
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, MsgUserNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}

	token, err := s.tokens.GenerateToken(user.ID, s.cfg.TokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return &models.ProfileResponse{
		ID:            user.ID.String(),
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		Email:         user.Email,
		HealthProfile: user.HealthProfile,
		Token:         token,
	}, nil
}

func (s *Service) authResponse(user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, s.cfg.TokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return &models.AuthResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Token:     token,
	}, nil
}
