package domain

import "time"

// AccountStatus enumerates possible account states.
type AccountStatus string

const (
	AccountStatusPending  AccountStatus = "pending"
	AccountStatusVerified AccountStatus = "verified"
)

// Account mirrors the persisted representation in the accounts table.
type Account struct {
	ID               string
	Username         string
	Email            string
	PasswordHash     string
	Status           AccountStatus
	FailedLoginCount int
	LockedUntil      *time.Time
	RegisteredAt     time.Time
	LastLogin        *time.Time
}

// IsLocked reports whether the account is locked out at the provided instant.
func (a Account) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// VerificationCode represents the hash of an emailed verification code.
// At most one active row exists per account; re-issuing overwrites it.
type VerificationCode struct {
	ID        string
	AccountID string
	CodeHash  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// PasswordResetToken represents a single-use password reset token hash.
type PasswordResetToken struct {
	ID        string
	AccountID string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// RefreshToken is a member of an account's active refresh-token set,
// stored as a hash of the signed token. Deleting the row revokes it.
type RefreshToken struct {
	ID        string
	AccountID string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}
