package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adolfbenedict/bytehub/internal/core/domain"
	"github.com/adolfbenedict/bytehub/internal/infra/security"
)

func TestPasswordResetService_RequestReset(t *testing.T) {
	account := domain.Account{ID: "acc-1", Username: "alice", Email: "alice@example.com", Status: domain.AccountStatusVerified}
	accounts := &mockAccountRepository{getByEmailResult: &account}
	tokens := &mockTokenRepository{}
	notifier := &mockNotifier{}
	publisher := &mockEventPublisher{}

	service := NewPasswordResetService(accounts, tokens, notifier, publisher, nil)

	if err := service.RequestReset(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("RequestReset returned error: %v", err)
	}

	if tokens.replaceResetCalls != 1 {
		t.Fatalf("expected reset token to be stored once, got %d", tokens.replaceResetCalls)
	}
	if notifier.resetCalls != 1 {
		t.Fatalf("expected one reset email, got %d", notifier.resetCalls)
	}
	if security.HashToken(notifier.lastReset.token) != tokens.replacedReset.TokenHash {
		t.Fatalf("expected stored hash to match emailed token")
	}
	if publisher.resetRequestedCalls != 1 {
		t.Fatalf("expected one reset requested event, got %d", publisher.resetRequestedCalls)
	}
	if publisher.resetRequested.MaskedDestination == account.Email {
		t.Fatalf("event must not carry the raw email address")
	}
}

func TestPasswordResetService_RequestResetUnknownEmail(t *testing.T) {
	tokens := &mockTokenRepository{}
	notifier := &mockNotifier{}

	service := NewPasswordResetService(&mockAccountRepository{}, tokens, notifier, nil, nil)

	// Unknown addresses succeed silently so the endpoint cannot be used
	// to probe for registered accounts.
	if err := service.RequestReset(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("expected success for unknown email, got %v", err)
	}
	if tokens.replaceResetCalls != 0 {
		t.Fatalf("no token should be stored for unknown email")
	}
	if notifier.resetCalls != 0 {
		t.Fatalf("no email should be sent for unknown email")
	}
}

func TestPasswordResetService_RequestResetSurvivesNotifierFailure(t *testing.T) {
	account := domain.Account{ID: "acc-1", Email: "alice@example.com"}
	accounts := &mockAccountRepository{getByEmailResult: &account}
	notifier := &mockNotifier{resetErr: errMockFailure}

	service := NewPasswordResetService(accounts, &mockTokenRepository{}, notifier, nil, nil)

	if err := service.RequestReset(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("RequestReset should tolerate email failure, got %v", err)
	}
}

func TestPasswordResetService_ResetPassword(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	raw, err := security.GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	account := domain.Account{ID: "acc-1", Username: "alice", Email: "alice@example.com", Status: domain.AccountStatusVerified}
	accounts := &mockAccountRepository{getByIDResult: &account}
	tokens := &mockTokenRepository{
		getResetResult: &domain.PasswordResetToken{
			ID:        "prt-1",
			AccountID: "acc-1",
			TokenHash: security.HashToken(raw),
			ExpiresAt: now.Add(time.Hour),
		},
		deleteAllRefreshCount: 2,
	}
	publisher := &mockEventPublisher{}

	service := NewPasswordResetService(accounts, tokens, nil, publisher, nil)
	service.WithClock(func() time.Time { return now })

	newPassword := "N3w!SecurePass#4567"
	if err := service.ResetPassword(context.Background(), raw, newPassword); err != nil {
		t.Fatalf("ResetPassword returned error: %v", err)
	}

	if accounts.updatePasswordCalls != 1 {
		t.Fatalf("expected password to be updated once")
	}
	if ok, err := security.VerifyPassword(newPassword, accounts.updatePasswordHash); err != nil || !ok {
		t.Fatalf("expected stored hash to match new password")
	}
	if tokens.deleteResetCalls != 1 || tokens.deleteResetID != "prt-1" {
		t.Fatalf("expected reset token to be consumed")
	}
	if tokens.deleteAllRefreshCalls != 1 {
		t.Fatalf("expected every refresh token to be revoked")
	}
	if publisher.passwordChangedCalls != 1 {
		t.Fatalf("expected one password changed event")
	}
	if publisher.passwordChanged.TokensRevoked != 2 {
		t.Fatalf("expected event to report 2 revoked tokens, got %d", publisher.passwordChanged.TokensRevoked)
	}
}

func TestPasswordResetService_ResetPasswordInvalidToken(t *testing.T) {
	service := NewPasswordResetService(&mockAccountRepository{}, &mockTokenRepository{}, nil, nil, nil)

	err := service.ResetPassword(context.Background(), "no-such-token", "N3w!SecurePass#4567")
	if !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid, got %v", err)
	}
}

func TestPasswordResetService_ResetPasswordExpiredToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tokens := &mockTokenRepository{
		getResetResult: &domain.PasswordResetToken{
			ID:        "prt-1",
			AccountID: "acc-1",
			TokenHash: security.HashToken("stale-token"),
			ExpiresAt: now.Add(-time.Minute),
		},
	}

	service := NewPasswordResetService(&mockAccountRepository{}, tokens, nil, nil, nil)
	service.WithClock(func() time.Time { return now })

	err := service.ResetPassword(context.Background(), "stale-token", "N3w!SecurePass#4567")
	if !errors.Is(err, ErrResetTokenExpired) {
		t.Fatalf("expected ErrResetTokenExpired, got %v", err)
	}
	if tokens.deleteResetCalls != 1 {
		t.Fatalf("expected expired token to be purged")
	}
}

func TestPasswordResetService_ResetPasswordRejectsWeakPassword(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	account := domain.Account{ID: "acc-1", Username: "alice", Email: "alice@example.com"}
	accounts := &mockAccountRepository{getByIDResult: &account}
	tokens := &mockTokenRepository{
		getResetResult: &domain.PasswordResetToken{
			ID:        "prt-1",
			AccountID: "acc-1",
			TokenHash: security.HashToken("valid-token"),
			ExpiresAt: now.Add(time.Hour),
		},
	}

	service := NewPasswordResetService(accounts, tokens, nil, nil, nil)
	service.WithClock(func() time.Time { return now })

	err := service.ResetPassword(context.Background(), "valid-token", "password1")
	if !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("expected ErrPasswordPolicyViolation, got %v", err)
	}
	if accounts.updatePasswordCalls != 0 {
		t.Fatalf("password must not change on policy violation")
	}
}
