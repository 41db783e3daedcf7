package email

import (
	"context"
	"encoding/base64"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type smtpCapture struct {
	from  string
	rcpts []string
	data  []string
}

// startFakeSMTP accepts a single connection and records the envelope and
// DATA lines. Recipients listed in reject get a 550.
func startFakeSMTP(t *testing.T, reject ...string) (string, int, <-chan smtpCapture) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	got := make(chan smtpCapture, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		tp := textproto.NewConn(conn)
		var capture smtpCapture
		_ = tp.PrintfLine("220 localhost ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				got <- capture
				return
			}
			upper := strings.ToUpper(line)
			switch {
			case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
				_ = tp.PrintfLine("250 localhost")
			case strings.HasPrefix(upper, "MAIL FROM:"):
				capture.from = strings.Trim(line[len("MAIL FROM:"):], "<> ")
				_ = tp.PrintfLine("250 OK")
			case strings.HasPrefix(upper, "RCPT TO:"):
				rcpt := strings.Trim(line[len("RCPT TO:"):], "<> ")
				rejected := false
				for _, r := range reject {
					if r == rcpt {
						rejected = true
					}
				}
				if rejected {
					_ = tp.PrintfLine("550 no such user")
					continue
				}
				capture.rcpts = append(capture.rcpts, rcpt)
				_ = tp.PrintfLine("250 OK")
			case upper == "DATA":
				_ = tp.PrintfLine("354 go ahead")
				capture.data, _ = tp.ReadDotLines()
				_ = tp.PrintfLine("250 queued")
			case upper == "QUIT":
				_ = tp.PrintfLine("221 bye")
				got <- capture
				return
			default:
				_ = tp.PrintfLine("502 not implemented")
			}
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port, got
}

func decodeBody(t *testing.T, lines []string) string {
	t.Helper()
	for i, l := range lines {
		if l == "" {
			raw, err := base64.StdEncoding.DecodeString(strings.Join(lines[i+1:], ""))
			require.NoError(t, err)
			return string(raw)
		}
	}
	t.Fatal("message has no body")
	return ""
}

func TestSMTPMailer_Send(t *testing.T) {
	host, port, got := startFakeSMTP(t)

	mailer := NewSMTPMailer(SMTPConfig{
		Host:     host,
		Port:     port,
		TLS:      TLSNone,
		From:     "noreply@example.com",
		FromName: "Stream API",
		Timeout:  5 * time.Second,
	})

	err := mailer.Send(context.Background(), Message{
		To:          []string{"a@example.com", "b@example.com"},
		Subject:     "Hello",
		Body:        "<p>Hi</p>",
		ContentType: ContentTypeHTML,
	})
	require.NoError(t, err)

	capture := <-got
	assert.Equal(t, "noreply@example.com", capture.from)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, capture.rcpts)
	assert.Contains(t, capture.data, "Subject: Hello")
	assert.Contains(t, capture.data, "Content-Type: "+ContentTypeHTML)
	assert.Equal(t, "<p>Hi</p>", decodeBody(t, capture.data))
}

func TestSMTPMailer_RejectedRecipient(t *testing.T) {
	host, port, _ := startFakeSMTP(t, "b@example.com")

	mailer := NewSMTPMailer(SMTPConfig{Host: host, Port: port, TLS: TLSNone, From: "noreply@example.com", Timeout: 5 * time.Second})

	err := mailer.Send(context.Background(), Message{To: []string{"a@example.com", "b@example.com"}, Subject: "s", Body: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b@example.com")
}

func TestSMTPMailer_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	require.NoError(t, ln.Close())

	mailer := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: addr.Port, TLS: TLSNone, From: "noreply@example.com", Timeout: time.Second})

	err = mailer.Send(context.Background(), Message{To: []string{"a@example.com"}, Subject: "s", Body: "b"})
	assert.Error(t, err)
}

func TestSMTPMailer_NoRecipients(t *testing.T) {
	mailer := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: 1})
	assert.Error(t, mailer.Send(context.Background(), Message{}))
}

func TestBuildMessage(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)
	body := strings.Repeat("Attachment link ", 20)

	raw := string(buildMessage("noreply@example.com", "Stream API", Message{
		To:      []string{"a@example.com"},
		Subject: "Отчёт",
		Body:    body,
	}, now))

	head, encoded, found := strings.Cut(raw, "\r\n\r\n")
	require.True(t, found)

	assert.Contains(t, head, `From: "Stream API" <noreply@example.com>`)
	assert.Contains(t, head, "To: a@example.com")
	assert.Contains(t, head, "Subject: =?utf-8?q?")
	assert.Contains(t, head, "Date: Mon, 19 Oct 2026 08:30:00 +0000")
	assert.Contains(t, head, "@example.com>")
	assert.Contains(t, head, "Content-Type: "+ContentTypeHTML)

	lines := strings.Split(strings.TrimSuffix(encoded, "\r\n"), "\r\n")
	for _, l := range lines {
		assert.LessOrEqual(t, len(l), 76)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.Join(lines, ""))
	require.NoError(t, err)
	assert.Equal(t, body, string(decoded))
}

func TestLogMailer(t *testing.T) {
	assert.NoError(t, LogMailer{}.Send(context.Background(), Message{To: []string{"a@example.com"}}))
}
