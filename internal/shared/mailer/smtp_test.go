package mailer

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"git.platform.alem.school/amibragim/shop-events/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smtpServer is a minimal in-process SMTP server. It offers no extensions,
// rejects malformed paths with 501 and the listed recipients with 550.
type smtpServer struct {
	ln     net.Listener
	reject map[string]bool

	mu       sync.Mutex
	commands []string
	messages []string
}

func startSMTPServer(t *testing.T, reject ...string) *smtpServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &smtpServer{ln: ln, reject: map[string]bool{}}
	for _, r := range reject {
		s.reject[r] = true
	}
	t.Cleanup(func() { _ = ln.Close() })

	go s.serve()
	return s
}

func (s *smtpServer) transport(cfg Config) *smtpTransport {
	cfg.Host = "127.0.0.1"
	cfg.Port = s.ln.Addr().(*net.TCPAddr).Port
	return &smtpTransport{config: cfg, timeout: 2 * time.Second}
}

func (s *smtpServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *smtpServer) handle(conn net.Conn) {
	defer conn.Close()
	tp := textproto.NewConn(conn)

	_ = tp.PrintfLine("220 test ESMTP")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		s.record(line)

		verb, _, _ := strings.Cut(line, " ")
		switch strings.ToUpper(verb) {
		case "EHLO", "HELO":
			_ = tp.PrintfLine("250 test")
		case "MAIL":
			if _, ok := smtpPath(line); !ok {
				_ = tp.PrintfLine("501 5.1.7 bad sender address")
				continue
			}
			_ = tp.PrintfLine("250 2.1.0 ok")
		case "RCPT":
			addr, ok := smtpPath(line)
			switch {
			case !ok:
				_ = tp.PrintfLine("501 5.1.3 bad address")
			case s.reject[addr]:
				_ = tp.PrintfLine("550 5.1.1 no such user")
			default:
				_ = tp.PrintfLine("250 2.1.5 ok")
			}
		case "DATA":
			_ = tp.PrintfLine("354 go ahead")
			body, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.messages = append(s.messages, string(body))
			s.mu.Unlock()
			_ = tp.PrintfLine("250 2.0.0 queued")
		case "RSET", "NOOP":
			_ = tp.PrintfLine("250 ok")
		case "QUIT":
			_ = tp.PrintfLine("221 bye")
			return
		default:
			_ = tp.PrintfLine("502 5.5.2 not implemented")
		}
	}
}

// smtpPath extracts the address from "MAIL FROM:<a>" or "RCPT TO:<a>" the
// way a strict server does: one bracketed mailbox without a display name.
func smtpPath(line string) (string, bool) {
	_, rest, ok := strings.Cut(line, ":")
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "<") {
		return "", false
	}
	end := strings.Index(rest, ">")
	if end < 0 {
		return "", false
	}
	addr := rest[1:end]
	if addr == "" || strings.ContainsAny(addr, "<> ") || !strings.Contains(addr, "@") {
		return "", false
	}
	return addr, true
}

func (s *smtpServer) record(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, line)
}

func (s *smtpServer) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func (s *smtpServer) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

func TestSMTPTransport_Verify(t *testing.T) {
	srv := startSMTPServer(t)

	require.NoError(t, srv.transport(Config{}).verify())
	assert.Equal(t, []string{"EHLO localhost", "QUIT"}, srv.Commands())
}

func TestSMTPTransport_SendUnauthenticated(t *testing.T) {
	srv := startSMTPServer(t)
	msg := buildMessage("shop@x.com", "a@x.com", "hi", "body", time.Now())

	require.NoError(t, srv.transport(Config{}).send("shop@x.com", "a@x.com", msg))

	assert.Equal(t, []string{
		"EHLO localhost",
		"MAIL FROM:<shop@x.com>",
		"RCPT TO:<a@x.com>",
		"DATA",
		"QUIT",
	}, srv.Commands())

	messages := srv.Messages()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "Subject: hi")
	assert.Contains(t, messages[0], "body")
}

func TestSMTPTransport_RejectedRecipient(t *testing.T) {
	srv := startSMTPServer(t, "nobody@x.com")
	msg := buildMessage("shop@x.com", "nobody@x.com", "hi", "body", time.Now())

	err := srv.transport(Config{}).send("shop@x.com", "nobody@x.com", msg)
	require.Error(t, err)

	var protoErr *textproto.Error
	require.True(t, errors.As(err, &protoErr))
	assert.Equal(t, 550, protoErr.Code)
	assert.NotContains(t, srv.Commands(), "DATA")
	assert.Empty(t, srv.Messages())
}

func TestMailer_DisplayNamesReachServerAsBareAddresses(t *testing.T) {
	srv := startSMTPServer(t)
	tr := srv.transport(Config{})
	m := newMailer("Shop <shop@x.com>", tr, logger.NewNop(), nil)

	require.NoError(t, m.Send(context.Background(), "Ann <ann@x.com>", "New order placed: o1", "body"))

	commands := srv.Commands()
	assert.Contains(t, commands, "MAIL FROM:<shop@x.com>")
	assert.Contains(t, commands, "RCPT TO:<ann@x.com>")

	messages := srv.Messages()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "To: Ann <ann@x.com>")
}

func TestAuthAllowed(t *testing.T) {
	assert.NoError(t, authAllowed("mail.example.com", true))
	assert.NoError(t, authAllowed("localhost", false))
	assert.NoError(t, authAllowed("127.0.0.1", false))
	assert.ErrorIs(t, authAllowed("mail.example.com", false), errAuthNeedsTLS)
}
