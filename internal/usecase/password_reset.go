package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adolfbenedict/bytehub/internal/core/domain"
	"github.com/adolfbenedict/bytehub/internal/core/port"
	"github.com/adolfbenedict/bytehub/internal/infra/logger"
	"github.com/adolfbenedict/bytehub/internal/infra/security"
	"github.com/adolfbenedict/bytehub/internal/repository"
)

const (
	defaultResetTokenTTL = time.Hour
	resetTokenByteSize   = 32
)

var (
	// ErrResetTokenInvalid indicates the reset token does not match any outstanding request.
	ErrResetTokenInvalid = errors.New("password reset token invalid")
	// ErrResetTokenExpired indicates the reset token matched but is past its expiry.
	ErrResetTokenExpired = errors.New("password reset token expired")
)

// PasswordResetService owns the forgot-password and reset-password flows.
type PasswordResetService struct {
	accounts port.AccountRepository
	tokens   port.TokenRepository
	notifier port.Notifier
	events   port.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
	tokenTTL time.Duration
}

// NewPasswordResetService constructs a password reset service.
func NewPasswordResetService(accounts port.AccountRepository, tokens port.TokenRepository, notifier port.Notifier, events port.EventPublisher, log *zap.Logger) *PasswordResetService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PasswordResetService{
		accounts: accounts,
		tokens:   tokens,
		notifier: notifier,
		events:   events,
		logger:   log,
		now:      time.Now,
		tokenTTL: defaultResetTokenTTL,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *PasswordResetService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// WithTokenTTL overrides the reset token lifetime.
func (s *PasswordResetService) WithTokenTTL(ttl time.Duration) {
	if ttl > 0 {
		s.tokenTTL = ttl
	}
}

// RequestReset issues a single-use reset token and emails it. The response
// is identical whether or not the email belongs to an account, so the
// endpoint cannot be used to enumerate registered addresses.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if s.accounts == nil || s.tokens == nil {
		return fmt.Errorf("password reset service not configured")
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("password reset requested for unknown email",
				zap.String("email", logger.MaskEmail(email)))
			return nil
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	raw, err := security.GenerateSecureToken(resetTokenByteSize)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.tokenTTL)
	token := domain.PasswordResetToken{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		TokenHash: security.HashToken(raw),
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}

	if err := s.tokens.ReplacePasswordResetToken(ctx, token); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.SendPasswordReset(ctx, account.Email, raw, expiresAt); err != nil {
			s.logger.Warn("password reset email delivery failed",
				zap.String("email", logger.MaskEmail(account.Email)), zap.Error(err))
		}
	}

	s.publishResetRequestedEvent(ctx, *account, token, now)

	return nil
}

// ResetPassword consumes a reset token, replaces the password hash, and
// revokes every active refresh token for the account.
func (s *PasswordResetService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return ErrResetTokenInvalid
	}
	newPassword = strings.TrimSpace(newPassword)
	if newPassword == "" {
		return fmt.Errorf("password is required")
	}
	if s.accounts == nil || s.tokens == nil {
		return fmt.Errorf("password reset service not configured")
	}

	stored, err := s.tokens.GetPasswordResetTokenByHash(ctx, security.HashToken(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}

	now := s.now().UTC()
	if now.After(stored.ExpiresAt) {
		if err := s.tokens.DeletePasswordResetToken(ctx, stored.ID); err != nil {
			s.logger.Warn("purge expired reset token failed",
				zap.String("account_id", stored.AccountID), zap.Error(err))
		}
		return ErrResetTokenExpired
	}

	account, err := s.accounts.GetByID(ctx, stored.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	policy := security.DefaultPasswordPolicy(account.Username, account.Email)
	if err := policy.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, account.ID, passwordHash, now); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.tokens.DeletePasswordResetToken(ctx, stored.ID); err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}

	revoked, err := s.tokens.DeleteRefreshTokensForAccount(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}

	s.publishPasswordChangedEvent(ctx, account.ID, now, revoked)

	return nil
}

func (s *PasswordResetService) publishResetRequestedEvent(ctx context.Context, account domain.Account, token domain.PasswordResetToken, at time.Time) {
	if s.events == nil {
		return
	}

	event := domain.PasswordResetRequestedEvent{
		EventID:           uuid.NewString(),
		AccountID:         account.ID,
		RequestID:         token.ID,
		RequestedAt:       at,
		MaskedDestination: logger.MaskEmail(account.Email),
		ExpiresAt:         token.ExpiresAt,
	}

	if err := s.events.PublishPasswordResetRequested(ctx, event); err != nil {
		s.logger.Warn("publish password reset requested event failed",
			zap.String("account_id", account.ID), zap.Error(err))
	}
}

func (s *PasswordResetService) publishPasswordChangedEvent(ctx context.Context, accountID string, at time.Time, revoked int) {
	if s.events == nil {
		return
	}

	event := domain.PasswordChangedEvent{
		EventID:       uuid.NewString(),
		AccountID:     accountID,
		ChangedAt:     at,
		TokensRevoked: revoked,
	}

	if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
		s.logger.Warn("publish password changed event failed",
			zap.String("account_id", accountID), zap.Error(err))
	}
}
