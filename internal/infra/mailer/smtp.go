package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"go.uber.org/zap"

	"github.com/adolfbenedict/bytehub/internal/core/port"
	"github.com/adolfbenedict/bytehub/internal/infra/config"
	"github.com/adolfbenedict/bytehub/internal/infra/logger"
)

const verificationBody = `<div style="font-family: sans-serif;">
  <h2>Confirm your email</h2>
  <p>Your verification code is:</p>
  <p style="font-size: 24px; letter-spacing: 4px;"><strong>{{.Code}}</strong></p>
  <p>The code expires at {{.ExpiresAt}}.</p>
  <p>If you did not create an account, you can ignore this message.</p>
</div>`

const passwordResetBody = `<div style="font-family: sans-serif;">
  <h2>Reset your password</h2>
  <p>We received a request to reset your password. Use the token below to continue:</p>
  <p style="font-size: 18px;"><strong>{{.Token}}</strong></p>
  <p>The token expires at {{.ExpiresAt}}.</p>
  <p>If you did not request a reset, no action is needed.</p>
</div>`

const contactBody = `<div style="font-family: sans-serif;">
  <h2>New contact message</h2>
  <p>From: {{.From}}</p>
  <p>{{.Message}}</p>
</div>`

var (
	verificationTmpl  = template.Must(template.New("verification").Parse(verificationBody))
	passwordResetTmpl = template.Must(template.New("password_reset").Parse(passwordResetBody))
	contactTmpl       = template.Must(template.New("contact").Parse(contactBody))
)

type sendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier delivers transactional mail over a plain SMTP relay.
type SMTPNotifier struct {
	cfg    config.SMTPSettings
	logger *zap.Logger
	send   sendFunc
}

// NewSMTPNotifier constructs a notifier backed by the configured SMTP relay.
func NewSMTPNotifier(cfg config.SMTPSettings, log *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, logger: log, send: smtp.SendMail}
}

// WithSendFunc overrides the SMTP send function (primarily for tests).
func (n *SMTPNotifier) WithSendFunc(send sendFunc) *SMTPNotifier {
	if send != nil {
		n.send = send
	}
	return n
}

// SendVerificationCode mails a signup verification code to the recipient.
func (n *SMTPNotifier) SendVerificationCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	body, err := renderTemplate(verificationTmpl, map[string]string{
		"Code":      code,
		"ExpiresAt": expiresAt.UTC().Format(time.RFC1123),
	})
	if err != nil {
		return err
	}

	if err := n.deliver(ctx, email, "Verify your email", body); err != nil {
		return fmt.Errorf("send verification code: %w", err)
	}

	n.logger.Info("verification code sent",
		zap.String("email", logger.MaskEmail(email)),
		zap.Time("expires_at", expiresAt),
	)
	return nil
}

// SendPasswordReset mails a password reset token to the recipient.
func (n *SMTPNotifier) SendPasswordReset(ctx context.Context, email, token string, expiresAt time.Time) error {
	body, err := renderTemplate(passwordResetTmpl, map[string]string{
		"Token":     token,
		"ExpiresAt": expiresAt.UTC().Format(time.RFC1123),
	})
	if err != nil {
		return err
	}

	if err := n.deliver(ctx, email, "Password reset request", body); err != nil {
		return fmt.Errorf("send password reset: %w", err)
	}

	n.logger.Info("password reset email sent",
		zap.String("email", logger.MaskEmail(email)),
		zap.Time("expires_at", expiresAt),
	)
	return nil
}

// SendContactMessage relays a contact-form submission to the support inbox.
func (n *SMTPNotifier) SendContactMessage(ctx context.Context, fromEmail, message string) error {
	body, err := renderTemplate(contactTmpl, map[string]string{
		"From":    fromEmail,
		"Message": message,
	})
	if err != nil {
		return err
	}

	if err := n.deliver(ctx, n.cfg.ContactTo, "Contact form submission", body); err != nil {
		return fmt.Errorf("send contact message: %w", err)
	}

	n.logger.Info("contact message relayed",
		zap.String("from", logger.MaskEmail(fromEmail)),
	)
	return nil
}

func renderTemplate(tmpl *template.Template, data map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render mail template: %w", err)
	}
	return buf.String(), nil
}

func (n *SMTPNotifier) deliver(ctx context.Context, recipient, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	from := n.cfg.FromAddress
	header := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n",
		n.cfg.FromName, from, recipient, subject)

	msg := []byte(header + htmlBody + "\r\n")

	if err := n.send(addr, auth, from, []string{recipient}, msg); err != nil {
		return fmt.Errorf("smtp send via %s: %w", addr, err)
	}

	return nil
}

var _ port.Notifier = (*SMTPNotifier)(nil)
