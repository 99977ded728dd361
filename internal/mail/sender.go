package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/rs/zerolog/log"
)

const sendTimeout = 20 * time.Second

var ErrNoRecipients = errors.New("no report recipients configured")

// Message is one outgoing report email.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a rendered report.
type Sender interface {
	SendReport(ctx context.Context, msg Message) error
}

// Config selects and configures the email provider.
type Config struct {
	Provider string // mailgun, smtp or mock

	MailgunDomain        string
	MailgunPrivateAPIKey string

	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	SenderEmail string
	SenderName  string
}

// NewSender returns the configured provider, or a MockSender when the
// provider is unknown or its settings are incomplete.
func NewSender(cfg Config) Sender {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	log.Debug().Str("provider", provider).Msg("Initializing email sender")

	switch provider {
	case "mailgun":
		if cfg.MailgunDomain == "" || cfg.MailgunPrivateAPIKey == "" || cfg.SenderEmail == "" {
			log.Warn().Msg("Mailgun configuration incomplete (domain, API key or sender email missing); falling back to mock sender")
			return &MockSender{}
		}
		log.Info().Str("domain", cfg.MailgunDomain).Msg("Mailgun client initialized")
		return &MailgunSender{
			mg:   mailgun.NewMailgun(cfg.MailgunDomain, cfg.MailgunPrivateAPIKey),
			from: fromAddress(cfg.SenderName, cfg.SenderEmail),
		}
	case "smtp":
		if cfg.SMTPServer == "" || cfg.SMTPUser == "" || cfg.SMTPPassword == "" || cfg.SenderEmail == "" {
			log.Warn().Msg("SMTP configuration incomplete; falling back to mock sender")
			return &MockSender{}
		}
		return &SMTPSender{
			server:   cfg.SMTPServer,
			port:     cfg.SMTPPort,
			user:     cfg.SMTPUser,
			password: cfg.SMTPPassword,
			email:    cfg.SenderEmail,
			from:     fromAddress(cfg.SenderName, cfg.SenderEmail),
		}
	default:
		log.Info().Msg("Defaulting to mock email sender")
		return &MockSender{}
	}
}

func fromAddress(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// MailgunSender sends through the Mailgun HTTP API.
type MailgunSender struct {
	mg   mailgun.Mailgun
	from string
}

func (s *MailgunSender) SendReport(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	message := s.mg.NewMessage(s.from, msg.Subject, msg.Text, msg.To...)
	message.SetHtml(msg.HTML)
	message.AddTag("market-report")

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		log.Error().Err(err).Strs("to", msg.To).Str("mailgun_resp", resp).Msg("Failed to send report via Mailgun")
		return fmt.Errorf("mailgun send failed: %w", err)
	}

	log.Info().
		Strs("to", msg.To).
		Str("id", id).
		Str("mailgun_resp", resp).
		Msg("Report sent via Mailgun")
	return nil
}

// MockSender logs instead of sending and keeps what it was given.
type MockSender struct {
	mu   sync.Mutex
	sent []Message
}

func (m *MockSender) SendReport(_ context.Context, msg Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	log.Info().
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Int("html_bytes", len(msg.HTML)).
		Msg("MockSender: would send report email")
	return nil
}

// Sent returns the messages passed to SendReport so far.
func (m *MockSender) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
