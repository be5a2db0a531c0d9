package email

import (
	"context"
	"fmt"

	"github.com/resendlabs/resend-go"
	"go.uber.org/zap"

	"github.com/sefazor/events-backend/internal/config"
)

type ResendSender struct {
	client *resend.Client
	from   string
	logger *zap.Logger
}

func NewResendSender(cfg config.EmailConfig, logger *zap.Logger) (*ResendSender, error) {
	if cfg.ResendAPIKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY is not set")
	}
	return &ResendSender{
		client: resend.NewClient(cfg.ResendAPIKey),
		from:   cfg.From,
		logger: logger.With(zap.String("component", "email"), zap.String("provider", "resend")),
	}, nil
}

func (s *ResendSender) Send(_ context.Context, msg Message) error {
	if err := validateAddress(msg.To); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	}

	resp, err := s.client.Emails.Send(params)
	if err != nil {
		s.logger.Error("failed to send email", zap.String("to", msg.To), zap.Error(err))
		return fmt.Errorf("resend API error: %w", err)
	}

	s.logger.Info("email sent", zap.String("to", msg.To), zap.String("email_id", resp.Id))
	return nil
}
