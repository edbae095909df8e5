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
	"github.com/adolfbenedict/bytehub/internal/repository"
)

// AccountService serves authenticated account operations.
type AccountService struct {
	accounts port.AccountRepository
	events   port.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewAccountService constructs an AccountService instance.
func NewAccountService(accounts port.AccountRepository, events port.EventPublisher, log *zap.Logger) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{
		accounts: accounts,
		events:   events,
		logger:   log,
		now:      time.Now,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *AccountService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Profile returns the sanitized account record for the authenticated caller.
func (s *AccountService) Profile(ctx context.Context, accountID string) (domain.Account, error) {
	if accountID == "" {
		return domain.Account{}, fmt.Errorf("account id is required")
	}
	if s.accounts == nil {
		return domain.Account{}, fmt.Errorf("account service not configured")
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}

	sanitized := *account
	sanitized.PasswordHash = ""
	return sanitized, nil
}

// Delete removes the account and, through cascading constraints, every
// verification code, reset token, and refresh token it owns.
func (s *AccountService) Delete(ctx context.Context, accountID string) error {
	if accountID == "" {
		return fmt.Errorf("account id is required")
	}
	if s.accounts == nil {
		return fmt.Errorf("account service not configured")
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	if err := s.accounts.Delete(ctx, accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("delete account: %w", err)
	}

	s.publishDeletedEvent(ctx, *account)

	return nil
}

func (s *AccountService) publishDeletedEvent(ctx context.Context, account domain.Account) {
	if s.events == nil {
		return
	}

	event := domain.AccountDeletedEvent{
		EventID:   uuid.NewString(),
		AccountID: account.ID,
		Username:  account.Username,
		DeletedAt: s.now().UTC(),
	}

	if err := s.events.PublishAccountDeleted(ctx, event); err != nil {
		s.logger.Warn("publish account deleted event failed",
			zap.String("account_id", account.ID), zap.Error(err))
	}
}

// ContactService relays contact-form submissions to the operator mailbox.
type ContactService struct {
	notifier port.Notifier
	logger   *zap.Logger
}

// NewContactService constructs a ContactService instance.
func NewContactService(notifier port.Notifier, log *zap.Logger) *ContactService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ContactService{notifier: notifier, logger: log}
}

// ErrContactDeliveryFailed indicates the relay could not hand the message
// to the mail server.
var ErrContactDeliveryFailed = errors.New("contact message delivery failed")

// Relay forwards a message from a visitor to the configured mailbox. The
// email is the whole point of the call, so delivery failures propagate.
func (s *ContactService) Relay(ctx context.Context, fromEmail, message string) error {
	fromEmail = strings.ToLower(strings.TrimSpace(fromEmail))
	if fromEmail == "" {
		return fmt.Errorf("email is required")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Errorf("message is required")
	}
	if s.notifier == nil {
		return fmt.Errorf("contact service not configured")
	}

	if err := s.notifier.SendContactMessage(ctx, fromEmail, message); err != nil {
		return fmt.Errorf("%w: %v", ErrContactDeliveryFailed, err)
	}
	return nil
}
