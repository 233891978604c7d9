// Package notify delivers the operator notification sent after a board was
// created for a submission. Delivery is best effort: the submission flow
// treats notification failures as log-worthy, never as submission failures.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Notification describes a completed submission for the operator.
type Notification struct {
	To        string
	FormTitle string
	GuestName string
	Email     string
	Message   string
	BoardURL  string
}

// Notifier delivers a submission notification.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes the notification to the structured log instead of
// sending mail. Used when no SMTP relay is configured.
type LogNotifier struct{}

// Notify logs the notification at info level.
func (LogNotifier) Notify(ctx context.Context, n Notification) error {
	log.Info().
		Str("to", n.To).
		Str("form", n.FormTitle).
		Str("guest", n.GuestName).
		Str("board_url", n.BoardURL).
		Msg("submission notification (no smtp relay configured)")
	return nil
}

// SMTPNotifier sends notifications through a plain SMTP relay.
type SMTPNotifier struct {
	Addr string // host:port of the relay
	From string // envelope and header sender
	Auth smtp.Auth
}

// Notify sends the notification as a plain-text mail. An empty recipient is
// a no-op, not an error.
func (s *SMTPNotifier) Notify(ctx context.Context, n Notification) error {
	if n.To == "" {
		return nil
	}

	subject := "New contact inquiry"
	if n.FormTitle != "" {
		subject += ": " + n.FormTitle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.From)
	fmt.Fprintf(&b, "To: %s\r\n", n.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "Name: %s\r\n", n.GuestName)
	fmt.Fprintf(&b, "Email: %s\r\n", n.Email)
	if n.BoardURL != "" {
		fmt.Fprintf(&b, "Board: %s\r\n", n.BoardURL)
	}
	b.WriteString("\r\n")
	b.WriteString(n.Message)
	b.WriteString("\r\n")

	if err := smtp.SendMail(s.Addr, s.Auth, s.From, []string{n.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", n.To, err)
	}
	return nil
}
