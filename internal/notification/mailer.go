// Package notification renders and sends the store's transactional emails.
package notification

import (
	"fmt"
	"html"

	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"

	"github.com/AntonKrinichnyi/CineFlow/internal/config"
	"github.com/AntonKrinichnyi/CineFlow/internal/queue"
)

// Mailer sends email events over SMTP. When no SMTP host is configured
// it logs the rendered message instead, which keeps local development
// working without a mail server.
type Mailer struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	m := &Mailer{cfg: cfg}
	if cfg.Host != "" {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return m
}

// Send renders the event into a subject and body and delivers it.
func (m *Mailer) Send(ev queue.EmailEvent) error {
	subject, body := render(ev)
	if subject == "" {
		return fmt.Errorf("unknown email kind %q", ev.Kind)
	}

	if m.dialer == nil {
		logrus.WithFields(logrus.Fields{
			"to":      ev.To,
			"subject": subject,
		}).Info("smtp not configured, skipping send")
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", ev.To)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// render produces the subject and a small HTML body for an event.
// User-supplied values (movie names, links) are escaped before they are
// placed into markup.
func render(ev queue.EmailEvent) (subject, body string) {
	link := html.EscapeString(ev.Link)
	movie := html.EscapeString(ev.MovieName)

	switch ev.Kind {
	case queue.KindActivation:
		return "Activate your account",
			fmt.Sprintf("<p>Welcome to CineFlow!</p><p><a href=%q>Activate your account</a></p><p>The link expires in 24 hours.</p>", link)
	case queue.KindActivationComplete:
		return "Your account is active",
			"<p>Your CineFlow account has been activated. You can now sign in and start browsing.</p>"
	case queue.KindPasswordReset:
		return "Reset your password",
			fmt.Sprintf("<p>A password reset was requested for your account.</p><p><a href=%q>Choose a new password</a></p><p>The link expires in 1 hour. If you did not request this, ignore this message.</p>", link)
	case queue.KindPasswordResetComplete:
		return "Your password was changed",
			"<p>The password for your CineFlow account was just changed. If this was not you, contact support immediately.</p>"
	case queue.KindCommentReply:
		return "Someone replied to your comment",
			fmt.Sprintf("<p>Your comment on <b>%s</b> got a reply. Open the movie page to read it.</p>", movie)
	case queue.KindOrderConfirmation:
		return fmt.Sprintf("Order #%d placed", ev.OrderID),
			fmt.Sprintf("<p>Your order #%d for %s has been placed. Complete the payment to get access to your movies.</p>", ev.OrderID, ev.Amount)
	case queue.KindPaymentConfirmation:
		return fmt.Sprintf("Payment received for order #%d", ev.OrderID),
			fmt.Sprintf("<p>We received your payment of %s for order #%d. Enjoy your movies!</p>", ev.Amount, ev.OrderID)
	case queue.KindRefundApproved:
		return fmt.Sprintf("Refund approved for order #%d", ev.OrderID),
			fmt.Sprintf("<p>Your refund request for order #%d was approved. %s will be returned to your payment method.</p>", ev.OrderID, ev.Amount)
	case queue.KindCartMovieRemoved:
		return "A movie in your cart is no longer available",
			fmt.Sprintf("<p><b>%s</b> was removed from the catalog and has been taken out of your cart.</p>", movie)
	}
	return "", ""
}
