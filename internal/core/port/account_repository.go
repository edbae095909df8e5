package port

import (
	"context"
	"time"

	"github.com/adolfbenedict/bytehub/internal/core/domain"
)

// FailedLoginResult reports the outcome of an atomic failed-login update.
type FailedLoginResult struct {
	// FailedLoginCount is the counter value after the update. It is zero
	// when the attempt triggered a lockout, because setting locked_until
	// always resets the counter.
	FailedLoginCount int
	// LockedUntil is non-nil when the attempt triggered a lockout.
	LockedUntil *time.Time
}

// AccountRepository persists account records.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	// GetByIdentifier resolves either a username or an email address.
	GetByIdentifier(ctx context.Context, identifier string) (*domain.Account, error)
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error
	UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error
	// RecordFailedLogin increments the failed-login counter in a single
	// statement. When the incremented counter reaches threshold, the same
	// statement sets locked_until and resets the counter to zero, so two
	// racing attempts can never miss the lockout.
	RecordFailedLogin(ctx context.Context, id string, threshold int, lockedUntil time.Time) (FailedLoginResult, error)
	// RecordSuccessfulLogin zeroes the counter, clears the lock, and stamps last_login.
	RecordSuccessfulLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}
