package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/adolfbenedict/bytehub/internal/infra/config"
)

type capturedMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newCaptureNotifier(t *testing.T, captured *capturedMail) *SMTPNotifier {
	t.Helper()
	cfg := config.SMTPSettings{
		Host:        "mail.example.com",
		Port:        587,
		Username:    "mailer",
		Password:    "secret",
		FromAddress: "no-reply@bytehub.dev",
		FromName:    "Byte Hub",
		ContactTo:   "support@bytehub.dev",
	}
	notifier := NewSMTPNotifier(cfg, zaptest.NewLogger(t))
	return notifier.WithSendFunc(func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		*captured = capturedMail{addr: addr, from: from, to: to, msg: string(msg)}
		return nil
	})
}

func TestSendVerificationCode(t *testing.T) {
	var captured capturedMail
	notifier := newCaptureNotifier(t, &captured)

	expiresAt := time.Now().Add(time.Hour)
	if err := notifier.SendVerificationCode(context.Background(), "casey@example.com", "482913", expiresAt); err != nil {
		t.Fatalf("SendVerificationCode returned error: %v", err)
	}

	if captured.addr != "mail.example.com:587" {
		t.Fatalf("unexpected relay address: %s", captured.addr)
	}
	if captured.from != "no-reply@bytehub.dev" {
		t.Fatalf("unexpected sender: %s", captured.from)
	}
	if len(captured.to) != 1 || captured.to[0] != "casey@example.com" {
		t.Fatalf("unexpected recipients: %v", captured.to)
	}
	if !strings.Contains(captured.msg, "482913") {
		t.Fatal("message body missing verification code")
	}
	if !strings.Contains(captured.msg, "Subject: Verify your email") {
		t.Fatal("message missing subject header")
	}
	if !strings.Contains(captured.msg, "text/html") {
		t.Fatal("message missing html content type")
	}
}

func TestSendPasswordReset(t *testing.T) {
	var captured capturedMail
	notifier := newCaptureNotifier(t, &captured)

	if err := notifier.SendPasswordReset(context.Background(), "casey@example.com", "reset-token-abc", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SendPasswordReset returned error: %v", err)
	}

	if !strings.Contains(captured.msg, "reset-token-abc") {
		t.Fatal("message body missing reset token")
	}
}

func TestSendContactMessageRoutesToSupportInbox(t *testing.T) {
	var captured capturedMail
	notifier := newCaptureNotifier(t, &captured)

	if err := notifier.SendContactMessage(context.Background(), "visitor@example.com", "hello there"); err != nil {
		t.Fatalf("SendContactMessage returned error: %v", err)
	}

	if len(captured.to) != 1 || captured.to[0] != "support@bytehub.dev" {
		t.Fatalf("contact message should go to support inbox, got %v", captured.to)
	}
	if !strings.Contains(captured.msg, "visitor@example.com") {
		t.Fatal("message body missing sender address")
	}
}

func TestDeliverPropagatesSendErrors(t *testing.T) {
	notifier := NewSMTPNotifier(config.SMTPSettings{
		Host:        "mail.example.com",
		Port:        587,
		FromAddress: "no-reply@bytehub.dev",
	}, zaptest.NewLogger(t)).WithSendFunc(func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("relay unavailable")
	})

	err := notifier.SendVerificationCode(context.Background(), "casey@example.com", "123456", time.Now().Add(time.Hour))
	if err == nil {
		t.Fatal("expected error from failing relay")
	}
}

func TestDeliverHonorsContextCancellation(t *testing.T) {
	var captured capturedMail
	notifier := newCaptureNotifier(t, &captured)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := notifier.SendVerificationCode(ctx, "casey@example.com", "123456", time.Now().Add(time.Hour))
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if captured.addr != "" {
		t.Fatal("send should not be attempted after cancellation")
	}
}
