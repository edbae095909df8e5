package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adolfbenedict/bytehub/internal/core/domain"
	"github.com/adolfbenedict/bytehub/internal/core/port"
	"github.com/adolfbenedict/bytehub/internal/repository"
)

// memoryAccountStore is a stateful fake shared by the flow tests below.
type memoryAccountStore struct {
	accounts map[string]*domain.Account
}

func newMemoryAccountStore() *memoryAccountStore {
	return &memoryAccountStore{accounts: map[string]*domain.Account{}}
}

func (s *memoryAccountStore) Create(_ context.Context, account domain.Account) error {
	for _, existing := range s.accounts {
		if existing.Username == account.Username || existing.Email == account.Email {
			return repository.ErrConflict
		}
	}
	copy := account
	s.accounts[account.ID] = &copy
	return nil
}

func (s *memoryAccountStore) GetByID(_ context.Context, id string) (*domain.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *account
	return &copy, nil
}

func (s *memoryAccountStore) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	for _, account := range s.accounts {
		if account.Email == email {
			copy := *account
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memoryAccountStore) GetByIdentifier(_ context.Context, identifier string) (*domain.Account, error) {
	for _, account := range s.accounts {
		if account.Username == identifier || account.Email == identifier {
			copy := *account
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memoryAccountStore) UpdateStatus(_ context.Context, id string, status domain.AccountStatus) error {
	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.Status = status
	return nil
}

func (s *memoryAccountStore) UpdatePassword(_ context.Context, id, passwordHash string, _ time.Time) error {
	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.PasswordHash = passwordHash
	return nil
}

func (s *memoryAccountStore) RecordFailedLogin(_ context.Context, id string, threshold int, lockedUntil time.Time) (port.FailedLoginResult, error) {
	account, ok := s.accounts[id]
	if !ok {
		return port.FailedLoginResult{}, repository.ErrNotFound
	}
	account.FailedLoginCount++
	if account.FailedLoginCount >= threshold {
		account.FailedLoginCount = 0
		until := lockedUntil
		account.LockedUntil = &until
		return port.FailedLoginResult{FailedLoginCount: 0, LockedUntil: &until}, nil
	}
	return port.FailedLoginResult{FailedLoginCount: account.FailedLoginCount}, nil
}

func (s *memoryAccountStore) RecordSuccessfulLogin(_ context.Context, id string, at time.Time) error {
	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.FailedLoginCount = 0
	account.LockedUntil = nil
	account.LastLogin = &at
	return nil
}

func (s *memoryAccountStore) Delete(_ context.Context, id string) error {
	if _, ok := s.accounts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

// memoryTokenStore is a stateful fake for every token kind.
type memoryTokenStore struct {
	verifications map[string]domain.VerificationCode
	resets        map[string]domain.PasswordResetToken
	refresh       map[string]domain.RefreshToken
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{
		verifications: map[string]domain.VerificationCode{},
		resets:        map[string]domain.PasswordResetToken{},
		refresh:       map[string]domain.RefreshToken{},
	}
}

func (s *memoryTokenStore) ReplaceVerificationCode(_ context.Context, code domain.VerificationCode) error {
	for id, existing := range s.verifications {
		if existing.AccountID == code.AccountID {
			delete(s.verifications, id)
		}
	}
	s.verifications[code.ID] = code
	return nil
}

func (s *memoryTokenStore) GetVerificationCodeByAccount(_ context.Context, accountID string) (*domain.VerificationCode, error) {
	for _, code := range s.verifications {
		if code.AccountID == accountID {
			copy := code
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memoryTokenStore) DeleteVerificationCodes(_ context.Context, accountID string) error {
	for id, code := range s.verifications {
		if code.AccountID == accountID {
			delete(s.verifications, id)
		}
	}
	return nil
}

func (s *memoryTokenStore) ReplacePasswordResetToken(_ context.Context, token domain.PasswordResetToken) error {
	for id, existing := range s.resets {
		if existing.AccountID == token.AccountID {
			delete(s.resets, id)
		}
	}
	s.resets[token.ID] = token
	return nil
}

func (s *memoryTokenStore) GetPasswordResetTokenByHash(_ context.Context, hash string) (*domain.PasswordResetToken, error) {
	for _, token := range s.resets {
		if token.TokenHash == hash {
			copy := token
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memoryTokenStore) DeletePasswordResetToken(_ context.Context, id string) error {
	delete(s.resets, id)
	return nil
}

func (s *memoryTokenStore) CreateRefreshToken(_ context.Context, token domain.RefreshToken) error {
	s.refresh[token.TokenHash] = token
	return nil
}

func (s *memoryTokenStore) GetRefreshTokenByHash(_ context.Context, hash string) (*domain.RefreshToken, error) {
	token, ok := s.refresh[hash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := token
	return &copy, nil
}

func (s *memoryTokenStore) DeleteRefreshTokenByHash(_ context.Context, _, hash string) error {
	delete(s.refresh, hash)
	return nil
}

func (s *memoryTokenStore) DeleteRefreshTokensForAccount(_ context.Context, accountID string) (int, error) {
	removed := 0
	for hash, token := range s.refresh {
		if token.AccountID == accountID {
			delete(s.refresh, hash)
			removed++
		}
	}
	return removed, nil
}

func TestAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	accounts := newMemoryAccountStore()
	tokens := newMemoryTokenStore()
	notifier := &mockNotifier{}
	issuer := newTestTokenIssuer(t)

	registration := NewRegistrationService(accounts, tokens, notifier, nil, nil)
	auth, err := NewAuthService(accounts, tokens, issuer, registration, nil, nil)
	if err != nil {
		t.Fatalf("NewAuthService returned error: %v", err)
	}

	// Signup leaves the account pending and emails a code.
	created, err := registration.Register(ctx, "alice", "alice@example.com", strongTestPassword)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if created.Status != domain.AccountStatusPending {
		t.Fatalf("expected pending account after signup")
	}

	// Logging in before verification fails and re-sends the code.
	if _, err := auth.Login(ctx, "alice", strongTestPassword); !errors.Is(err, ErrVerificationRequired) {
		t.Fatalf("expected ErrVerificationRequired before verification, got %v", err)
	}
	if notifier.verificationCalls != 2 {
		t.Fatalf("expected code to be re-sent on premature login, got %d emails", notifier.verificationCalls)
	}

	// Verify with the most recently emailed code.
	if _, err := registration.VerifyCode(ctx, "alice@example.com", notifier.lastVerification.code); err != nil {
		t.Fatalf("VerifyCode returned error: %v", err)
	}

	// Login now issues a token pair.
	result, err := auth.Login(ctx, "alice", strongTestPassword)
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	// The refresh token mints new access tokens without rotating.
	if _, err := auth.RefreshAccessToken(ctx, result.RefreshToken); err != nil {
		t.Fatalf("first refresh returned error: %v", err)
	}
	if _, err := auth.RefreshAccessToken(ctx, result.RefreshToken); err != nil {
		t.Fatalf("second refresh returned error: %v", err)
	}

	// Logout revokes the refresh token; further refreshes are rejected.
	if err := auth.Logout(ctx, result.Account.ID, result.RefreshToken); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if _, err := auth.RefreshAccessToken(ctx, result.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected refresh to fail after logout, got %v", err)
	}
}

func TestLockoutAfterFiveFailures(t *testing.T) {
	ctx := context.Background()
	accounts := newMemoryAccountStore()
	tokens := newMemoryTokenStore()
	issuer := newTestTokenIssuer(t)

	registration := NewRegistrationService(accounts, tokens, &mockNotifier{}, nil, nil)
	auth, err := NewAuthService(accounts, tokens, issuer, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewAuthService returned error: %v", err)
	}

	created, err := registration.Register(ctx, "alice", "alice@example.com", strongTestPassword)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if err := accounts.UpdateStatus(ctx, created.ID, domain.AccountStatusVerified); err != nil {
		t.Fatalf("activate account: %v", err)
	}

	// Four wrong passwords leave the account open with a dwindling budget.
	for attempt := 1; attempt <= 4; attempt++ {
		_, err := auth.Login(ctx, "alice", "Wr0ng!Password#123")
		var credErr *InvalidCredentialsError
		if !errors.As(err, &credErr) {
			t.Fatalf("attempt %d: expected InvalidCredentialsError, got %v", attempt, err)
		}
		if credErr.AttemptsRemaining != 5-attempt {
			t.Fatalf("attempt %d: expected %d attempts remaining, got %d", attempt, 5-attempt, credErr.AttemptsRemaining)
		}
	}

	// The fifth failure locks the account.
	_, err = auth.Login(ctx, "alice", "Wr0ng!Password#123")
	var lockedErr *AccountLockedError
	if !errors.As(err, &lockedErr) {
		t.Fatalf("expected AccountLockedError on fifth failure, got %v", err)
	}

	// Even the correct password is refused while the lock holds.
	if _, err := auth.Login(ctx, "alice", strongTestPassword); !errors.As(err, &lockedErr) {
		t.Fatalf("expected AccountLockedError with correct password, got %v", err)
	}

	// Once the lock expires, a correct login succeeds and resets state.
	auth.WithClock(func() time.Time { return time.Now().Add(16 * time.Minute) })
	if _, err := auth.Login(ctx, "alice", strongTestPassword); err != nil {
		t.Fatalf("expected login to succeed after lock expiry, got %v", err)
	}
}

func TestPasswordResetRevokesSessions(t *testing.T) {
	ctx := context.Background()
	accounts := newMemoryAccountStore()
	tokens := newMemoryTokenStore()
	notifier := &mockNotifier{}
	issuer := newTestTokenIssuer(t)

	registration := NewRegistrationService(accounts, tokens, notifier, nil, nil)
	auth, err := NewAuthService(accounts, tokens, issuer, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewAuthService returned error: %v", err)
	}
	reset := NewPasswordResetService(accounts, tokens, notifier, nil, nil)

	created, err := registration.Register(ctx, "alice", "alice@example.com", strongTestPassword)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if err := accounts.UpdateStatus(ctx, created.ID, domain.AccountStatusVerified); err != nil {
		t.Fatalf("activate account: %v", err)
	}

	result, err := auth.Login(ctx, "alice", strongTestPassword)
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if err := reset.RequestReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	newPassword := "N3w!SecurePass#4567"
	if err := reset.ResetPassword(ctx, notifier.lastReset.token, newPassword); err != nil {
		t.Fatalf("ResetPassword returned error: %v", err)
	}

	// The pre-reset session is gone.
	if _, err := auth.RefreshAccessToken(ctx, result.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected refresh to fail after reset, got %v", err)
	}

	// The old password no longer works; the new one does.
	if _, err := auth.Login(ctx, "alice", strongTestPassword); err == nil {
		t.Fatalf("expected old password to be rejected")
	}
	if _, err := auth.Login(ctx, "alice", newPassword); err != nil {
		t.Fatalf("expected login with new password to succeed, got %v", err)
	}
}
