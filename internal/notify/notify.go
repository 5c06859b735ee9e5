// Package notify delivers outbound mail. Delivery is best effort: failures are
// logged and never reach the operation that triggered them.
package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/smtp"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := []byte("From: " + s.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" + body + "\r\n")

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Password, s.Host)
	}
	addr := s.Host + ":" + strconv.Itoa(s.Port)

	// net/smtp has no context support; the deadline is enforced by abandoning the wait.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, s.From, []string{to}, msg)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", to, ctx.Err())
	}
}

// LogSender is used when no SMTP server is configured.
type LogSender struct {
	Log *slog.Logger
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.Log.Info("mail not sent, no SMTP configured", "to", to, "subject", subject, "bytes", len(body))
	return nil
}

// Notifier fires mails in the background, each bounded by timeout.
type Notifier struct {
	sender  Sender
	timeout time.Duration
	log     *slog.Logger
	wg      sync.WaitGroup
}

func NewNotifier(sender Sender, timeout time.Duration, log *slog.Logger) *Notifier {
	return &Notifier{sender: sender, timeout: timeout, log: log}
}

func (n *Notifier) Notify(to, subject, body string) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := n.sender.Send(ctx, to, subject, body); err != nil {
			n.log.Error("notification failed", "to", to, "subject", subject, "error", err)
			return
		}
		n.log.Debug("notification sent", "to", to, "subject", subject)
	}()
}

// Wait blocks until every pending notification has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

const PanelistRegistrationSubject = "Welcome Panelist! Hackathon Details Inside"

func PanelistRegistrationBody(firstName, hackathonID string) string {
	var sb strings.Builder
	sb.WriteString(`<div style="font-family: Arial, sans-serif; padding: 20px;">`)
	sb.WriteString(fmt.Sprintf("<h2>Welcome to the Hackathon Judging Panel, %s!</h2>", html.EscapeString(firstName)))
	sb.WriteString("<p>You've been successfully added as a panelist for an upcoming hackathon.</p>")
	sb.WriteString(fmt.Sprintf("<p><strong>Your Hackathon ID:</strong> <code>%s</code></p>", html.EscapeString(hackathonID)))
	sb.WriteString("<p>Please keep this Hackathon ID safe. You'll need it to log in and evaluate teams.</p>")
	sb.WriteString("<br/><p>Best regards,<br/>Team HackManager</p></div>")
	return sb.String()
}
