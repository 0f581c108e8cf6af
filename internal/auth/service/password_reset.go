package service

import (
	"context"
	"errors"
	"strings"

	"medbee/internal/auth/models"
	"medbee/internal/auth/secrets"
	"medbee/internal/notification/email"
	dErrors "medbee/pkg/domain-errors"
	"medbee/pkg/platform/sentinel"
	"medbee/pkg/requestcontext"
)

// ForgotPassword mails a reset link when the email belongs to a user. The
// caller gets the same answer either way.
func (s *Service) ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) error {
	if req == nil {
		return nil
	}
	req.Normalize()
	if req.Email == "" {
		return nil
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.logger.InfoContext(ctx, "password reset requested for unknown email",
				"request_id", requestcontext.RequestID(ctx),
			)
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup user")
	}

	token, err := secrets.GenerateResetToken()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate reset token")
	}
	now := requestcontext.Now(ctx)
	reset := &models.PasswordReset{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.cfg.ResetTokenTTL),
		CreatedAt: now,
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store reset token")
	}

	resetURL := strings.TrimRight(s.cfg.FrontendURL, "/") + "/reset-password/" + token
	if err := s.mailer.Send(ctx, email.PasswordResetRequested(user.Email, resetURL)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to send reset email")
	}
	s.logger.InfoContext(ctx, "password reset requested",
		"user_id", user.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// ResetPassword sets a new password and consumes the token in one
// transaction, then sends a confirmation.
func (s *Service) ResetPassword(ctx context.Context, token string, req *models.ResetPasswordRequest) error {
	if req == nil {
		req = &models.ResetPasswordRequest{}
	}
	reset, err := s.resets.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeBadRequest, MsgInvalidResetToken)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lookup reset token")
	}
	if !reset.Usable(requestcontext.Now(ctx)) {
		return dErrors.New(dErrors.CodeBadRequest, MsgInvalidResetToken)
	}
	if errs := req.Validate(); len(errs) > 0 {
		return dErrors.Validation("Validation error", errs)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return err
	}

	var recipient string
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.users.FindByID(ctx, reset.UserID)
		if err != nil {
			return err
		}
		if err := s.resets.MarkUsed(ctx, token); err != nil {
			return err
		}
		user.PasswordHash = hash
		user.UpdatedAt = requestcontext.Now(ctx)
		if err := s.users.Update(ctx, user); err != nil {
			return err
		}
		recipient = user.Email
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) || errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeBadRequest, MsgInvalidResetToken)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reset password")
	}

	if err := s.mailer.Send(ctx, email.PasswordResetCompleted(recipient)); err != nil {
		s.logger.WarnContext(ctx, "reset confirmation email failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return nil
}
