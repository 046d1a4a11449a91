package smtp

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/alumni-registry/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage_Headers(t *testing.T) {
	msg := string(buildMessage("noreply@example.com", "jane@x.com", "Your verification code", "Code: 123456\nValid 10 minutes"))
	assert.Contains(t, msg, "From: noreply@example.com\r\n")
	assert.Contains(t, msg, "To: jane@x.com\r\n")
	assert.Contains(t, msg, "Subject: Your verification code\r\n")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	assert.Contains(t, msg, "Code: 123456\r\nValid 10 minutes\r\n")
}

func TestBuildMessage_SubjectCannotInjectHeaders(t *testing.T) {
	msg := string(buildMessage("noreply@example.com", "inbox@example.com", "Hi\r\nBcc: victim@evil.com\r\nX-Injected: yes", "hello"))
	assert.Contains(t, msg, "Subject: Hi Bcc: victim@evil.com X-Injected: yes\r\nMIME-Version: 1.0\r\n")
	assert.NotContains(t, msg, "\r\nBcc:")
	assert.NotContains(t, msg, "\r\nX-Injected:")

	headers := msg[:strings.Index(msg, "\r\n\r\n")]
	assert.Len(t, strings.Split(headers, "\r\n"), 6)
}

func TestBuildMessage_BareLineFeedInSubject(t *testing.T) {
	msg := string(buildMessage("noreply@example.com", "inbox@example.com", "Hi\n\nbody split", "hello"))
	assert.Contains(t, msg, "Subject: Hi body split\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nhello\r\n"))
}

func TestSendEmail_TimesOutOnSilentServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		// Accept and never greet.
		conn, err := ln.Accept()
		if err == nil {
			time.Sleep(2 * time.Second)
			conn.Close()
		}
	}()

	host, port, _ := net.SplitHostPort(ln.Addr().String())
	m := NewMailer(&config.Config{SMTPHost: host, SMTPPort: port, SMTPFrom: "noreply@example.com", MailTimeout: 100 * time.Millisecond})

	start := time.Now()
	err = m.SendEmail(context.Background(), "jane@x.com", "s", "b")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSendEmail_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port, _ := net.SplitHostPort(ln.Addr().String())
	ln.Close()

	m := NewMailer(&config.Config{SMTPHost: host, SMTPPort: port, MailTimeout: time.Second})
	assert.Error(t, m.SendEmail(context.Background(), "jane@x.com", "s", "b"))
}
