package mailer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/gip-inclusion/dora-api/pkg/config"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      []string
	Cc      []string
	Subject string
	Text    string
	HTML    string
	Tags    []string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the SMTP sender, or a logging sender when dry-run is enabled.
func New(cfg config.MailConfig, logger *zap.Logger) Sender {
	if cfg.DryRun {
		return NewLogSender(logger)
	}
	return NewSMTPSender(cfg)
}

// SMTPSender delivers messages over SMTP with gomail.
type SMTPSender struct {
	cfg    config.MailConfig
	dialer *gomail.Dialer
}

// NewSMTPSender constructs an SMTP sender.
func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send builds the MIME message and dials the SMTP server.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := s.build(msg)
	if err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email %q: %w", msg.Subject, err)
	}
	return nil
}

func (s *SMTPSender) build(msg Message) (*gomail.Message, error) {
	if len(msg.To) == 0 {
		return nil, fmt.Errorf("email %q has no recipient", msg.Subject)
	}
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.FromAddress, s.cfg.FromName)
	m.SetHeader("To", msg.To...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	m.SetHeader("Subject", msg.Subject)
	if len(msg.Tags) > 0 {
		m.SetHeader("X-Tags", strings.Join(msg.Tags, ","))
	}
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	return m, nil
}

// LogSender only logs messages. Used for local development.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender constructs a dry-run sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the envelope of the message.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email (dry run)",
		zap.Strings("to", msg.To),
		zap.Strings("cc", msg.Cc),
		zap.String("subject", msg.Subject),
		zap.Strings("tags", msg.Tags),
	)
	return nil
}
