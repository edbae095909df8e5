package mailer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/adolfbenedict/bytehub/internal/core/port"
	"github.com/adolfbenedict/bytehub/internal/infra/logger"
)

// LogNotifier logs outbound mail instead of delivering it. Useful for
// development environments without an SMTP relay.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a notifier that only logs.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) SendVerificationCode(_ context.Context, email, code string, expiresAt time.Time) error {
	n.logger.Info("verification code (not delivered)",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("code", logger.MaskString(code)),
		zap.Time("expires_at", expiresAt),
	)
	return nil
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, email, token string, expiresAt time.Time) error {
	n.logger.Info("password reset token (not delivered)",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("token", logger.MaskString(token)),
		zap.Time("expires_at", expiresAt),
	)
	return nil
}

func (n *LogNotifier) SendContactMessage(_ context.Context, fromEmail, message string) error {
	n.logger.Info("contact message (not delivered)",
		zap.String("from", logger.MaskEmail(fromEmail)),
		zap.Int("message_length", len(message)),
	)
	return nil
}

var _ port.Notifier = (*LogNotifier)(nil)
