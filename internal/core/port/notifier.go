package port

import (
	"context"
	"time"
)

// Notifier delivers verification codes, reset links, and contact-form
// messages to email addresses. Implementations must not log raw credentials.
type Notifier interface {
	SendVerificationCode(ctx context.Context, email, code string, expiresAt time.Time) error
	SendPasswordReset(ctx context.Context, email, token string, expiresAt time.Time) error
	SendContactMessage(ctx context.Context, fromEmail, message string) error
}
