package application

import (
	"context"
	"crypto/hmac"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/inkwell/internal/domain/apperr"
	repo "github.com/oksasatya/inkwell/internal/domain/repository"
	"github.com/oksasatya/inkwell/internal/notification"
	"github.com/oksasatya/inkwell/pkg/helpers"
)

// ResetTokenSigner issues and verifies password reset tokens bound to an
// account fingerprint.
type ResetTokenSigner interface {
	Fingerprint(userID, passwordHash string, lastLogin *time.Time) string
	Sign(userID, fingerprint string) (string, time.Time, error)
	Verify(token string) (userID, fingerprint string, err error)
}

// PasswordResetService runs the request/confirm reset flow. A token stays
// valid until it expires or the account's password or last login changes.
type PasswordResetService struct {
	Users    repo.UserRepository
	Tokens   ResetTokenSigner
	Queue    notification.Enqueuer
	ResetURL string
	Logger   *logrus.Logger
}

// Request issues a token for the account behind email and queues the reset
// mail. Unknown addresses are NotFound.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperr.NewValidation("email", "is required")
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	fp := s.Tokens.Fingerprint(u.ID, u.Password, u.LastLoginAt)
	token, exp, err := s.Tokens.Sign(u.ID, fp)
	if err != nil {
		return fmt.Errorf("sign reset token: %w", err)
	}
	notification.EnqueueLogged(s.Queue, s.Logger, notification.KindPasswordReset, notification.PasswordResetPayload{
		UserID:    u.ID,
		Email:     u.Email,
		Username:  u.Username,
		ResetURL:  s.resetLink(helpers.EncodeUID(u.ID), token),
		ExpiresAt: exp,
	})
	s.log().WithField("user_id", u.ID).Info("password reset requested")
	return nil
}

// Confirm replaces the password when uidb64 and token still match the
// account. Every token failure is reported as apperr.ErrInvalidToken before
// the new password is looked at.
func (s *PasswordResetService) Confirm(ctx context.Context, uidb64, token, newPassword string) error {
	uid, err := helpers.DecodeUID(uidb64)
	if err != nil || uid == "" {
		return apperr.ErrInvalidToken
	}
	u, err := s.Users.GetByID(ctx, uid)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.ErrInvalidToken
	}
	if err != nil {
		return err
	}
	tokUID, tokFP, err := s.Tokens.Verify(token)
	if errors.Is(err, helpers.ErrResetTokenExpired) {
		return fmt.Errorf("expired: %w", apperr.ErrInvalidToken)
	}
	if err != nil || tokUID != u.ID {
		return apperr.ErrInvalidToken
	}
	current := s.Tokens.Fingerprint(u.ID, u.Password, u.LastLoginAt)
	if !hmac.Equal([]byte(current), []byte(tokFP)) {
		return apperr.ErrInvalidToken
	}

	if newPassword == "" {
		return apperr.NewValidation("new_password", "is required")
	}
	if msg := passwordProblem(newPassword); msg != "" {
		return apperr.NewValidation("new_password", msg)
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	// The write only lands while the hash is still the one the token was
	// checked against, so a token is spent by the first confirm that wins.
	err = s.Users.UpdatePassword(ctx, u.ID, u.Password, hash)
	if errors.Is(err, apperr.ErrConflict) || errors.Is(err, apperr.ErrNotFound) {
		return apperr.ErrInvalidToken
	}
	if err != nil {
		return err
	}
	s.log().WithField("user_id", u.ID).Info("password reset confirmed")
	return nil
}

func (s *PasswordResetService) resetLink(uidb64, token string) string {
	return strings.TrimRight(s.ResetURL, "/") + "/" + uidb64 + "/" + token + "/"
}

func (s *PasswordResetService) log() *logrus.Logger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}
