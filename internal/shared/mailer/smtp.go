package mailer

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

var (
	errNoHost = errors.New("SMTP_HOST is not set")

	// errAuthNeedsTLS is returned instead of sending credentials in clear text.
	errAuthNeedsTLS = errors.New("SMTP_USER is set but the server offers no STARTTLS")
)

// smtpTransport speaks SMTP with STARTTLS when offered and PLAIN auth when a
// user is configured.
type smtpTransport struct {
	config  Config
	timeout time.Duration
}

func (s *smtpTransport) addr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// dial opens a session up to and including authentication.
func (s *smtpTransport) dial() (*smtp.Client, error) {
	if s.config.Host == "" {
		return nil, errNoHost
	}

	conn, err := net.DialTimeout("tcp", s.addr(), s.timeout)
	if err != nil {
		return nil, err
	}
	_ = conn.SetDeadline(time.Now().Add(s.timeout))

	c, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := c.Hello("localhost"); err != nil {
		_ = c.Close()
		return nil, err
	}
	encrypted := false
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
			_ = c.Close()
			return nil, err
		}
		encrypted = true
	}
	if s.config.User != "" {
		if err := authAllowed(s.config.Host, encrypted); err != nil {
			_ = c.Close()
			return nil, err
		}
		auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
		if err := c.Auth(auth); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return c, nil
}

func (s *smtpTransport) verify() error {
	c, err := s.dial()
	if err != nil {
		return err
	}
	return c.Quit()
}

func (s *smtpTransport) send(from, to string, msg []byte) error {
	c, err := s.dial()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Mail(from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// authAllowed mirrors smtp.PlainAuth: credentials only travel over TLS unless
// the server is on the loopback interface.
func authAllowed(host string, encrypted bool) error {
	if encrypted {
		return nil
	}
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return nil
	}
	return fmt.Errorf("%w: %s", errAuthNeedsTLS, host)
}
