package mailer

import (
	"context"
	"fmt"

	"github.com/aimarketspace/marketplace-api/internal/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Sender delivers a single email
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// Email represents an email message.
type Email struct {
	To       []string
	ReplyTo  string
	Subject  string
	Body     string
	HTMLBody string
}

// Mailer sends email over SMTP
type Mailer struct {
	from   string
	dialer *gomail.Dialer
	logger *zap.Logger
}

// NewMailer creates a new Mailer from SMTP configuration
func NewMailer(cfg *config.SMTPConfig, logger *zap.Logger) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp.host is required")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("smtp.port is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp.from is required")
	}

	return &Mailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: logger,
	}, nil
}

// Send sends a single email. gomail has no context support, so ctx is only
// checked before dialing.
func (m *Mailer) Send(ctx context.Context, email Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := NewMessage(m.from, email)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Debug("email sent",
		zap.Int("recipients", len(email.To)),
		zap.String("subject", email.Subject),
	)
	return nil
}

// NewMessage builds the gomail message for an email
func NewMessage(from string, email Email) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", email.To...)
	if email.ReplyTo != "" {
		msg.SetHeader("Reply-To", email.ReplyTo)
	}
	msg.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}
	return msg
}

// LogSender writes emails to the log instead of sending them. It is used in
// development when no SMTP server is configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, email Email) error {
	s.logger.Info("email not sent (no smtp configured)",
		zap.Strings("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("body", email.Body),
	)
	return nil
}
