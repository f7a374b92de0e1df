// Package mailer sends plain-text notification emails over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"git.platform.alem.school/amibragim/shop-events/internal/shared/logger"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/metrics"
)

// Config holds the SMTP settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// transport abstracts the wire protocol for testing.
type transport interface {
	verify() error
	send(from, to string, msg []byte) error
}

// Mailer verifies its transport once, on first use, and then sends every
// message through it. A failed verification is logged and does not stop the
// send from being attempted.
type Mailer struct {
	from      string
	transport transport
	logger    *logger.Logger
	metrics   *metrics.Registry

	verifyOnce sync.Once
	now        func() time.Time
}

// New creates an SMTP mailer. Nothing is dialed until the first Send.
func New(cfg Config, log *logger.Logger, reg *metrics.Registry) *Mailer {
	return newMailer(cfg.From, &smtpTransport{config: cfg, timeout: 10 * time.Second}, log, reg)
}

func newMailer(from string, t transport, log *logger.Logger, reg *metrics.Registry) *Mailer {
	return &Mailer{
		from:      from,
		transport: t,
		logger:    log,
		metrics:   reg,
		now:       time.Now,
	}
}

// From is the sender address, also used as the last-resort recipient.
func (m *Mailer) From() string {
	return m.from
}

// Send delivers one message to a single recipient.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	m.verifyOnce.Do(func() {
		err := m.transport.verify()
		switch {
		case errors.Is(err, errAuthNeedsTLS):
			m.logger.Error(ctx, "smtp_auth_requires_tls", "SMTP credentials are configured but the server offers no STARTTLS; unset SMTP_USER or use a TLS relay", err)
			return
		case err != nil:
			m.logger.Error(ctx, "smtp_verify_failed", "SMTP transport verification failed; sending anyway", err)
			return
		}
		m.logger.Info(ctx, "smtp_verified", "SMTP transport verified", nil)
	})

	msg := buildMessage(m.from, to, subject, body, m.now())
	err := m.transport.send(envelopeAddress(m.from), envelopeAddress(to), msg)
	m.metrics.RecordMailSend(err)
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// buildMessage renders RFC 5322 headers and a plain-text body.
func buildMessage(from, to, subject, body string, at time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + sanitizeHeader(from) + "\r\n")
	b.WriteString("To: " + sanitizeHeader(to) + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(subject) + "\r\n")
	b.WriteString("Date: " + at.UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

// envelopeAddress strips a display name, as in "Ann <ann@x.com>", because
// MAIL FROM and RCPT TO accept only the bare address.
func envelopeAddress(s string) string {
	if addr, err := mail.ParseAddress(s); err == nil {
		return addr.Address
	}
	return strings.TrimSpace(s)
}

func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
