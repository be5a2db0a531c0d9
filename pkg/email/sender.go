package email

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/sefazor/events-backend/internal/config"
)

// Message is a single outgoing HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers one message or returns why it could not.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender builds the sender selected by EMAIL_PROVIDER.
func NewSender(cfg config.EmailConfig, logger *zap.Logger) (Sender, error) {
	switch cfg.Provider {
	case "resend":
		return NewResendSender(cfg, logger)
	case "smtp":
		return NewSMTPSender(cfg, logger)
	case "log", "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unsupported email provider %q", cfg.Provider)
	}
}

// validateAddress rejects malformed recipients and header injection attempts.
func validateAddress(address string) error {
	addr, err := mail.ParseAddress(address)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}

// LogSender only logs messages. Used when email delivery is disabled.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger.With(zap.String("component", "email"))}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if err := validateAddress(msg.To); err != nil {
		return err
	}
	s.logger.Info("email delivery disabled, skipping",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
