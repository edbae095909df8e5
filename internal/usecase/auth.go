package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adolfbenedict/bytehub/internal/core/domain"
	"github.com/adolfbenedict/bytehub/internal/core/port"
	"github.com/adolfbenedict/bytehub/internal/infra/security"
	"github.com/adolfbenedict/bytehub/internal/repository"
)

const (
	defaultMaxFailedLogins = 5
	defaultLockoutDuration = 15 * time.Minute
)

var (
	// ErrInvalidCredentials indicates the provided identifier or password are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrVerificationRequired indicates the account has not completed email verification.
	ErrVerificationRequired = errors.New("account pending verification")
	// ErrInvalidRefreshToken indicates the refresh token is malformed, forged, or revoked.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrExpiredRefreshToken indicates the refresh token has expired.
	ErrExpiredRefreshToken = errors.New("refresh token expired")
	// ErrInvalidAccessToken indicates the access token is malformed or its signature is wrong.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrExpiredAccessToken indicates the access token has expired.
	ErrExpiredAccessToken = errors.New("access token expired")
)

// AccountLockedError reports a login rejected because the account is locked out.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, retry after %s", e.RetryAfter)
}

// InvalidCredentialsError reports a failed password check together with the
// number of attempts left before the account locks.
type InvalidCredentialsError struct {
	AttemptsRemaining int
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials, %d attempts remaining", e.AttemptsRemaining)
}

// Unwrap lets callers match the sentinel without caring about the count.
func (e *InvalidCredentialsError) Unwrap() error {
	return ErrInvalidCredentials
}

// LoginResult carries the artifacts of a successful authentication.
type LoginResult struct {
	Account          domain.Account
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AuthService coordinates authentication flows.
type AuthService struct {
	accounts     port.AccountRepository
	tokens       port.TokenRepository
	issuer       *security.TokenIssuer
	registration *RegistrationService
	events       port.EventPublisher
	logger       *zap.Logger
	now          func() time.Time
	maxAttempts  int
	lockDuration time.Duration
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	accounts port.AccountRepository,
	tokens port.TokenRepository,
	issuer *security.TokenIssuer,
	registration *RegistrationService,
	events port.EventPublisher,
	log *zap.Logger,
) (*AuthService, error) {
	if issuer == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		accounts:     accounts,
		tokens:       tokens,
		issuer:       issuer,
		registration: registration,
		events:       events,
		logger:       log,
		now:          time.Now,
		maxAttempts:  defaultMaxFailedLogins,
		lockDuration: defaultLockoutDuration,
	}, nil
}

// WithClock allows tests to override the clock used by the service.
func (s *AuthService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// WithLockoutPolicy overrides the failed-login threshold and lockout duration.
func (s *AuthService) WithLockoutPolicy(maxAttempts int, duration time.Duration) {
	if maxAttempts > 0 {
		s.maxAttempts = maxAttempts
	}
	if duration > 0 {
		s.lockDuration = duration
	}
}

// Login validates credentials and issues an access/refresh token pair.
//
// The checks run in a fixed order: unknown identifier, active lockout,
// pending verification, password mismatch, then success. A mismatch goes
// through the repository's atomic counter so racing attempts cannot lose
// an increment or miss the lockout threshold.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	if identifier == "" {
		return nil, fmt.Errorf("identifier is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}
	if s.accounts == nil || s.tokens == nil {
		return nil, fmt.Errorf("auth service not configured")
	}

	account, err := s.accounts.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	now := s.now().UTC()
	if account.IsLocked(now) {
		return nil, &AccountLockedError{RetryAfter: account.LockedUntil.Sub(now)}
	}

	if account.Status == domain.AccountStatusPending {
		if s.registration != nil {
			if err := s.registration.issueVerificationCode(ctx, *account); err != nil {
				s.logger.Warn("re-issue verification code failed",
					zap.String("account_id", account.ID), zap.Error(err))
			}
		}
		return nil, ErrVerificationRequired
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, s.recordFailedAttempt(ctx, account, now)
	}

	if err := s.accounts.RecordSuccessfulLogin(ctx, account.ID, now); err != nil {
		return nil, fmt.Errorf("record successful login: %w", err)
	}

	accessToken, err := s.issuer.IssueAccessToken(account.ID, account.Username, account.Email)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, refreshExpiresAt, err := s.issuer.IssueRefreshToken(account.ID, account.Username)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	record := domain.RefreshToken{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		TokenHash: security.HashToken(refreshToken),
		CreatedAt: now,
		ExpiresAt: refreshExpiresAt,
	}
	if err := s.tokens.CreateRefreshToken(ctx, record); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	sanitized := *account
	sanitized.PasswordHash = ""
	sanitized.FailedLoginCount = 0
	sanitized.LockedUntil = nil
	sanitized.LastLogin = &now

	return &LoginResult{
		Account:          sanitized,
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

func (s *AuthService) recordFailedAttempt(ctx context.Context, account *domain.Account, now time.Time) error {
	lockedUntil := now.Add(s.lockDuration)
	result, err := s.accounts.RecordFailedLogin(ctx, account.ID, s.maxAttempts, lockedUntil)
	if err != nil {
		return fmt.Errorf("record failed login: %w", err)
	}

	if result.LockedUntil != nil {
		s.publishLockedEvent(ctx, *account, now, *result.LockedUntil)
		return &AccountLockedError{RetryAfter: result.LockedUntil.Sub(now)}
	}

	return &InvalidCredentialsError{AttemptsRemaining: s.maxAttempts - result.FailedLoginCount}
}

// AccessTokenTTL reports the lifetime of issued access tokens.
func (s *AuthService) AccessTokenTTL() time.Duration {
	return s.issuer.AccessTokenTTL()
}

// RefreshTokenTTL reports the lifetime of issued refresh tokens.
func (s *AuthService) RefreshTokenTTL() time.Duration {
	return s.issuer.RefreshTokenTTL()
}

// RefreshAccessToken exchanges a valid refresh token for a new access token.
// The refresh token itself is not rotated; it stays valid until it expires
// or is revoked.
func (s *AuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrInvalidRefreshToken
	}
	if s.tokens == nil {
		return "", fmt.Errorf("auth service not configured")
	}

	claims, err := s.issuer.ParseRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			s.purgeExpiredRefreshToken(ctx, refreshToken)
			return "", ErrExpiredRefreshToken
		}
		return "", ErrInvalidRefreshToken
	}

	hash := security.HashToken(refreshToken)
	stored, err := s.tokens.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidRefreshToken
		}
		return "", fmt.Errorf("lookup refresh token: %w", err)
	}

	now := s.now().UTC()
	if now.After(stored.ExpiresAt) {
		if err := s.tokens.DeleteRefreshTokenByHash(ctx, stored.AccountID, hash); err != nil {
			s.logger.Warn("purge expired refresh token failed",
				zap.String("account_id", stored.AccountID), zap.Error(err))
		}
		return "", ErrExpiredRefreshToken
	}

	account, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidRefreshToken
		}
		return "", fmt.Errorf("lookup account: %w", err)
	}

	accessToken, err := s.issuer.IssueAccessToken(account.ID, account.Username, account.Email)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}

	return accessToken, nil
}

// Logout removes the refresh token from the account's active set. Logging
// out with a token that is already gone is not an error.
func (s *AuthService) Logout(ctx context.Context, accountID, refreshToken string) error {
	if accountID == "" {
		return fmt.Errorf("account id is required")
	}
	if refreshToken == "" {
		return nil
	}
	if s.tokens == nil {
		return fmt.Errorf("auth service not configured")
	}

	if err := s.tokens.DeleteRefreshTokenByHash(ctx, accountID, security.HashToken(refreshToken)); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// ParseAccessToken verifies an access token and reports which way it failed.
func (s *AuthService) ParseAccessToken(token string) (*security.AccessTokenClaims, error) {
	claims, err := s.issuer.ParseAccessToken(token)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return nil, ErrExpiredAccessToken
		}
		return nil, ErrInvalidAccessToken
	}
	return claims, nil
}

func (s *AuthService) purgeExpiredRefreshToken(ctx context.Context, refreshToken string) {
	hash := security.HashToken(refreshToken)
	stored, err := s.tokens.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		return
	}
	if err := s.tokens.DeleteRefreshTokenByHash(ctx, stored.AccountID, hash); err != nil {
		s.logger.Warn("purge expired refresh token failed",
			zap.String("account_id", stored.AccountID), zap.Error(err))
	}
}

func (s *AuthService) publishLockedEvent(ctx context.Context, account domain.Account, lockedAt, lockedUntil time.Time) {
	if s.events == nil {
		return
	}

	event := domain.AccountLockedEvent{
		EventID:        uuid.NewString(),
		AccountID:      account.ID,
		Username:       account.Username,
		LockedAt:       lockedAt,
		LockedUntil:    lockedUntil,
		FailedAttempts: s.maxAttempts,
	}

	if err := s.events.PublishAccountLocked(ctx, event); err != nil {
		s.logger.Warn("publish account locked event failed",
			zap.String("account_id", account.ID), zap.Error(err))
	}
}
