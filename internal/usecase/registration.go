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
	defaultVerificationTTL    = time.Hour
	verificationTokenByteSize = 32
)

var (
	// ErrAccountExists indicates the username or email is already taken.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountNotFound indicates no account matches the provided identifier.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAlreadyVerified indicates the account does not need verification.
	ErrAlreadyVerified = errors.New("account already verified")
	// ErrVerificationCodeInvalid indicates the provided verification code does not match.
	ErrVerificationCodeInvalid = errors.New("verification code invalid")
	// ErrVerificationCodeExpired indicates the code matched but is past its expiry.
	ErrVerificationCodeExpired = errors.New("verification code expired")
	// ErrPasswordPolicyViolation indicates the password does not satisfy complexity requirements.
	ErrPasswordPolicyViolation = errors.New("password does not meet complexity requirements")
)

// RegistrationService handles new account onboarding and email verification.
type RegistrationService struct {
	accounts port.AccountRepository
	tokens   port.TokenRepository
	notifier port.Notifier
	events   port.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
	codeTTL  time.Duration
}

// NewRegistrationService constructs a registration service.
func NewRegistrationService(accounts port.AccountRepository, tokens port.TokenRepository, notifier port.Notifier, events port.EventPublisher, log *zap.Logger) *RegistrationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RegistrationService{
		accounts: accounts,
		tokens:   tokens,
		notifier: notifier,
		events:   events,
		logger:   log,
		now:      time.Now,
		codeTTL:  defaultVerificationTTL,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *RegistrationService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// WithCodeTTL overrides the verification code lifetime.
func (s *RegistrationService) WithCodeTTL(ttl time.Duration) {
	if ttl > 0 {
		s.codeTTL = ttl
	}
}

// Register creates a pending account and emails its verification code.
func (s *RegistrationService) Register(ctx context.Context, username, email, password string) (domain.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Account{}, fmt.Errorf("username is required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.Account{}, fmt.Errorf("email is required")
	}
	password = strings.TrimSpace(password)
	if password == "" {
		return domain.Account{}, fmt.Errorf("password is required")
	}
	if s.accounts == nil || s.tokens == nil {
		return domain.Account{}, fmt.Errorf("registration service not configured")
	}

	policy := security.DefaultPasswordPolicy(username, email)
	if err := policy.Validate(password); err != nil {
		return domain.Account{}, fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	if _, err := s.accounts.GetByIdentifier(ctx, username); err == nil {
		return domain.Account{}, ErrAccountExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}
	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return domain.Account{}, ErrAccountExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	account := domain.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Status:       domain.AccountStatusPending,
		RegisteredAt: now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		// A racing signup can slip past the lookups above.
		if errors.Is(err, repository.ErrConflict) {
			return domain.Account{}, ErrAccountExists
		}
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	if err := s.issueVerificationCode(ctx, account); err != nil {
		return domain.Account{}, err
	}

	s.publishRegisteredEvent(ctx, account)

	sanitized := account
	sanitized.PasswordHash = ""
	return sanitized, nil
}

// VerifyCode activates a pending account when the submitted code matches.
func (s *RegistrationService) VerifyCode(ctx context.Context, email, code string) (domain.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.Account{}, fmt.Errorf("email is required")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Account{}, fmt.Errorf("verification code is required")
	}
	if s.accounts == nil || s.tokens == nil {
		return domain.Account{}, fmt.Errorf("registration service not configured")
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrVerificationCodeInvalid
		}
		return domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}

	if account.Status == domain.AccountStatusVerified {
		return domain.Account{}, ErrAlreadyVerified
	}

	stored, err := s.tokens.GetVerificationCodeByAccount(ctx, account.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrVerificationCodeInvalid
		}
		return domain.Account{}, fmt.Errorf("lookup verification code: %w", err)
	}

	now := s.now().UTC()
	if now.After(stored.ExpiresAt) {
		// Lazy purge: expired rows are removed on read.
		if err := s.tokens.DeleteVerificationCodes(ctx, account.ID); err != nil {
			s.logger.Warn("purge expired verification code failed",
				zap.String("account_id", account.ID), zap.Error(err))
		}
		return domain.Account{}, ErrVerificationCodeExpired
	}

	if security.HashToken(code) != stored.CodeHash {
		return domain.Account{}, ErrVerificationCodeInvalid
	}

	if err := s.accounts.UpdateStatus(ctx, account.ID, domain.AccountStatusVerified); err != nil {
		return domain.Account{}, fmt.Errorf("activate account: %w", err)
	}

	if err := s.tokens.DeleteVerificationCodes(ctx, account.ID); err != nil {
		return domain.Account{}, fmt.Errorf("consume verification code: %w", err)
	}

	account.Status = domain.AccountStatusVerified
	s.publishVerifiedEvent(ctx, *account, now)

	sanitized := *account
	sanitized.PasswordHash = ""
	return sanitized, nil
}

// ResendCode overwrites any outstanding verification code with a fresh one
// and emails it. The email is the deliverable here, so notifier failures
// fail the operation.
func (s *RegistrationService) ResendCode(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if s.accounts == nil || s.tokens == nil {
		return fmt.Errorf("registration service not configured")
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if account.Status == domain.AccountStatusVerified {
		return ErrAlreadyVerified
	}

	return s.issueVerificationCodeStrict(ctx, *account)
}

func (s *RegistrationService) issueVerificationCode(ctx context.Context, account domain.Account) error {
	raw, expiresAt, err := s.storeVerificationCode(ctx, account)
	if err != nil {
		return err
	}

	if s.notifier == nil {
		return nil
	}
	if err := s.notifier.SendVerificationCode(ctx, account.Email, raw, expiresAt); err != nil {
		s.logger.Warn("verification email delivery failed",
			zap.String("email", logger.MaskEmail(account.Email)), zap.Error(err))
	}
	return nil
}

func (s *RegistrationService) issueVerificationCodeStrict(ctx context.Context, account domain.Account) error {
	raw, expiresAt, err := s.storeVerificationCode(ctx, account)
	if err != nil {
		return err
	}

	if s.notifier == nil {
		return fmt.Errorf("notifier not configured")
	}
	if err := s.notifier.SendVerificationCode(ctx, account.Email, raw, expiresAt); err != nil {
		return fmt.Errorf("send verification code: %w", err)
	}
	return nil
}

func (s *RegistrationService) storeVerificationCode(ctx context.Context, account domain.Account) (string, time.Time, error) {
	raw, err := security.GenerateSecureToken(verificationTokenByteSize)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate verification code: %w", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.codeTTL)
	code := domain.VerificationCode{
		ID:        uuid.NewString(),
		AccountID: account.ID,
		CodeHash:  security.HashToken(raw),
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}

	if err := s.tokens.ReplaceVerificationCode(ctx, code); err != nil {
		return "", time.Time{}, fmt.Errorf("store verification code: %w", err)
	}

	return raw, expiresAt, nil
}

func (s *RegistrationService) publishRegisteredEvent(ctx context.Context, account domain.Account) {
	if s.events == nil {
		return
	}

	event := domain.AccountRegisteredEvent{
		EventID:      uuid.NewString(),
		AccountID:    account.ID,
		Username:     account.Username,
		Email:        account.Email,
		Status:       string(account.Status),
		RegisteredAt: account.RegisteredAt,
	}

	if err := s.events.PublishAccountRegistered(ctx, event); err != nil {
		s.logger.Warn("publish account registered event failed",
			zap.String("account_id", account.ID), zap.Error(err))
	}
}

func (s *RegistrationService) publishVerifiedEvent(ctx context.Context, account domain.Account, at time.Time) {
	if s.events == nil {
		return
	}

	event := domain.AccountVerifiedEvent{
		EventID:    uuid.NewString(),
		AccountID:  account.ID,
		Username:   account.Username,
		VerifiedAt: at,
	}

	if err := s.events.PublishAccountVerified(ctx, event); err != nil {
		s.logger.Warn("publish account verified event failed",
			zap.String("account_id", account.ID), zap.Error(err))
	}
}
