package notification

import (
	"strings"
	"testing"

	"github.com/AntonKrinichnyi/CineFlow/internal/config"
	"github.com/AntonKrinichnyi/CineFlow/internal/queue"
)

func TestNewMailerDialerFromConfig(t *testing.T) {
	m := NewMailer(config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "mailer@example.com",
		Password: "secret",
		From:     "CineFlow <no-reply@example.com>",
	})
	if m.dialer == nil {
		t.Fatal("dialer not built despite configured host")
	}
	if m.dialer.Host != "smtp.example.com" || m.dialer.Port != 587 {
		t.Errorf("dialer endpoint = %s:%d", m.dialer.Host, m.dialer.Port)
	}
	if m.dialer.Username != "mailer@example.com" {
		t.Errorf("dialer username = %q, want the configured username", m.dialer.Username)
	}
}

func TestNewMailerWithoutHost(t *testing.T) {
	m := NewMailer(config.SMTPConfig{})
	if m.dialer != nil {
		t.Fatal("dialer built with no host configured")
	}
	// Send must be a logged no-op, not an error.
	if err := m.Send(queue.EmailEvent{Kind: queue.KindActivation, To: "a@b.c"}); err != nil {
		t.Fatalf("Send without SMTP: %v", err)
	}
}

func TestRenderAllKinds(t *testing.T) {
	kinds := []string{
		queue.KindActivation,
		queue.KindActivationComplete,
		queue.KindPasswordReset,
		queue.KindPasswordResetComplete,
		queue.KindCommentReply,
		queue.KindOrderConfirmation,
		queue.KindPaymentConfirmation,
		queue.KindRefundApproved,
		queue.KindCartMovieRemoved,
	}
	for _, k := range kinds {
		subject, body := render(queue.EmailEvent{Kind: k, Link: "https://x/y", MovieName: "Heat", OrderID: 1, Amount: "9.99"})
		if subject == "" || body == "" {
			t.Errorf("kind %q rendered empty subject or body", k)
		}
		if !strings.Contains(body, "<p>") {
			t.Errorf("kind %q body is not HTML: %q", k, body)
		}
	}

	if subject, _ := render(queue.EmailEvent{Kind: "bogus"}); subject != "" {
		t.Errorf("unknown kind rendered subject %q", subject)
	}
}

func TestRenderEscapesMovieName(t *testing.T) {
	_, body := render(queue.EmailEvent{Kind: queue.KindCartMovieRemoved, MovieName: `<script>"x"</script>`})
	if strings.Contains(body, "<script>") {
		t.Fatalf("movie name not escaped: %q", body)
	}
}
