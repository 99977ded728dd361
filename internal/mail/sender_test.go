package mail

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net"
	netmail "net/mail"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSender(t *testing.T) {
	testCases := []struct {
		name string
		cfg  Config
		want interface{}
	}{
		{
			name: "mailgun",
			cfg:  Config{Provider: "mailgun", MailgunDomain: "mg.example.com", MailgunPrivateAPIKey: "key", SenderEmail: "reports@example.com"},
			want: &MailgunSender{},
		},
		{
			name: "mailgun incomplete",
			cfg:  Config{Provider: "mailgun", MailgunDomain: "mg.example.com"},
			want: &MockSender{},
		},
		{
			name: "smtp",
			cfg:  Config{Provider: "SMTP", SMTPServer: "smtp.example.com", SMTPPort: 587, SMTPUser: "u", SMTPPassword: "p", SenderEmail: "reports@example.com"},
			want: &SMTPSender{},
		},
		{
			name: "smtp incomplete",
			cfg:  Config{Provider: "smtp", SMTPServer: "smtp.example.com"},
			want: &MockSender{},
		},
		{
			name: "mock",
			cfg:  Config{Provider: "mock"},
			want: &MockSender{},
		},
		{
			name: "unknown",
			cfg:  Config{Provider: "pigeon"},
			want: &MockSender{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.IsType(t, tc.want, NewSender(tc.cfg))
		})
	}
}

func TestMockSenderRecordsMessages(t *testing.T) {
	rq := require.New(t)

	m := &MockSender{}
	msg := Message{To: []string{"a@example.com"}, Subject: "s", HTML: "<p>h</p>", Text: "h"}
	rq.NoError(m.SendReport(context.Background(), msg))
	rq.Equal([]Message{msg}, m.Sent())
}

func TestSendersRequireRecipients(t *testing.T) {
	mg := NewSender(Config{Provider: "mailgun", MailgunDomain: "mg.example.com", MailgunPrivateAPIKey: "key", SenderEmail: "reports@example.com"})
	assert.ErrorIs(t, mg.SendReport(context.Background(), Message{Subject: "s"}), ErrNoRecipients)

	smtpSender := NewSender(Config{Provider: "smtp", SMTPServer: "smtp.example.com", SMTPPort: 587, SMTPUser: "u", SMTPPassword: "p", SenderEmail: "reports@example.com"})
	assert.ErrorIs(t, smtpSender.SendReport(context.Background(), Message{Subject: "s"}), ErrNoRecipients)
}

func TestFromAddress(t *testing.T) {
	assert.Equal(t, "Market Bot <bot@example.com>", fromAddress("Market Bot", "bot@example.com"))
	assert.Equal(t, "bot@example.com", fromAddress("", "bot@example.com"))
}

func TestBuildMIMEMessage(t *testing.T) {
	rq := require.New(t)

	msg := Message{
		To:      []string{"a@example.com", "b@example.com"},
		Subject: "Today’s Vegetable Prices – Market Update (2026-10-19)",
		Text:    "Price drops: 1",
		HTML:    "<p style=\"color:green\">🥇 Carrot</p>",
	}

	raw, err := buildMIMEMessage("Market Bot <bot@example.com>", msg)
	rq.NoError(err)

	parsed, err := netmail.ReadMessage(bytes.NewReader(raw))
	rq.NoError(err)

	rq.Equal("Market Bot <bot@example.com>", parsed.Header.Get("From"))
	rq.Equal("a@example.com, b@example.com", parsed.Header.Get("To"))

	subject, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	rq.NoError(err)
	rq.Equal(msg.Subject, subject)

	mediaType, params, err := mime.ParseMediaType(parsed.Header.Get("Content-Type"))
	rq.NoError(err)
	rq.Equal("multipart/alternative", mediaType)

	mr := multipart.NewReader(parsed.Body, params["boundary"])

	var bodies []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		rq.NoError(err)
		b, err := io.ReadAll(part)
		rq.NoError(err)
		bodies = append(bodies, string(b))
	}
	rq.Equal([]string{msg.Text, msg.HTML}, bodies)
}

func localSMTPSender(t *testing.T, ln net.Listener) *SMTPSender {
	t.Helper()
	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return &SMTPSender{server: host, port: port, email: "bot@example.com", from: "bot@example.com"}
}

func TestSMTPSenderStopsWhenServerNeverGreets(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	s := localSMTPSender(t, ln)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.SendReport(ctx, Message{To: []string{"a@example.com"}, Subject: "s", Text: "t", HTML: "h"})
	}()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("SendReport did not return after the context deadline")
	}
}

func TestSMTPSenderDeliversMessage(t *testing.T) {
	rq := require.New(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	rq.NoError(err)
	defer ln.Close()

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 localhost ESMTP")

		var rcpts []string
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
			switch verb {
			case "EHLO", "HELO":
				_ = tp.PrintfLine("250-localhost")
				_ = tp.PrintfLine("250 8BITMIME")
			case "MAIL":
				_ = tp.PrintfLine("250 OK")
			case "RCPT":
				rcpts = append(rcpts, line)
				_ = tp.PrintfLine("250 OK")
			case "DATA":
				_ = tp.PrintfLine("354 Go ahead")
				data, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				_ = tp.PrintfLine("250 Queued")
				received <- strings.Join(rcpts, "\n") + "\n" + string(data)
			case "QUIT":
				_ = tp.PrintfLine("221 Bye")
				return
			default:
				_ = tp.PrintfLine("502 Command not implemented")
			}
		}
	}()

	s := localSMTPSender(t, ln)
	msg := Message{To: []string{"a@example.com", "b@example.com"}, Subject: "Market Update", Text: "plain", HTML: "<p>html</p>"}
	rq.NoError(s.SendReport(context.Background(), msg))

	select {
	case got := <-received:
		rq.Contains(got, "RCPT TO:<a@example.com>")
		rq.Contains(got, "RCPT TO:<b@example.com>")
		rq.Contains(got, "To: a@example.com, b@example.com")
		rq.Contains(got, "multipart/alternative")
	case <-time.After(5 * time.Second):
		t.Fatal("server did not receive the message")
	}
}
