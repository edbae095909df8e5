package domain

import "time"

// AccountRegisteredEvent represents the payload for account.registered messages.
type AccountRegisteredEvent struct {
	EventID      string
	AccountID    string
	Username     string
	Email        string
	Status       string
	RegisteredAt time.Time
	Metadata     map[string]any
}

// AccountVerifiedEvent represents the payload for account.verified messages.
type AccountVerifiedEvent struct {
	EventID    string
	AccountID  string
	Username   string
	VerifiedAt time.Time
	Metadata   map[string]any
}

// AccountLockedEvent represents the payload for account.locked messages.
type AccountLockedEvent struct {
	EventID        string
	AccountID      string
	Username       string
	LockedAt       time.Time
	LockedUntil    time.Time
	FailedAttempts int
	Metadata       map[string]any
}

// PasswordChangedEvent represents the payload for account.password.changed messages.
type PasswordChangedEvent struct {
	EventID       string
	AccountID     string
	ChangedAt     time.Time
	TokensRevoked int
	Metadata      map[string]any
}

// PasswordResetRequestedEvent represents the payload for account.password.reset_requested messages.
type PasswordResetRequestedEvent struct {
	EventID           string
	AccountID         string
	RequestID         string
	RequestedAt       time.Time
	MaskedDestination string
	ExpiresAt         time.Time
	Metadata          map[string]any
}

// AccountDeletedEvent represents the payload for account.deleted messages.
type AccountDeletedEvent struct {
	EventID   string
	AccountID string
	Username  string
	DeletedAt time.Time
	Metadata  map[string]any
}
