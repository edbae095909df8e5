package port

import (
	"context"
	"time"
)

// RateLimitStore records request attempts for the sliding-window limiter
// guarding the auth endpoints. Identifiers are opaque; callers compose them
// from a scope name and a client address.
type RateLimitStore interface {
	// RecordAttempt appends one attempt at the given instant.
	RecordAttempt(ctx context.Context, identifier string, at time.Time) error
	// CountAttempts reports attempts inside the window ending at reference.
	CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error)
	// TrimWindow discards attempts older than the window.
	TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error
	// OldestAttempt returns the earliest attempt still inside the window.
	OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error)
}
