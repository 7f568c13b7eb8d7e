package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/logger"
	"github.com/aimarketspace/marketplace-api/internal/mailer"
	"github.com/aimarketspace/marketplace-api/internal/metrics"
	"github.com/aimarketspace/marketplace-api/internal/ratelimit"
	"github.com/aimarketspace/marketplace-api/internal/webhook"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Relay posts a JSON document to an external endpoint
type Relay interface {
	Send(ctx context.Context, idempotencyKey string, payload []byte) (webhook.Result, error)
}

// SupportService relays contact form messages to the support inbox
type SupportService struct {
	limiter      ratelimit.Limiter
	relay        Relay
	mailer       mailer.Sender
	supportEmail string
	logger       *zap.Logger
}

// NewSupportService creates the service. relay may be nil, in which case
// messages are mailed to supportEmail.
func NewSupportService(limiter ratelimit.Limiter, relay Relay, sender mailer.Sender, supportEmail string, logger *zap.Logger) *SupportService {
	return &SupportService{
		limiter:      limiter,
		relay:        relay,
		mailer:       sender,
		supportEmail: supportEmail,
		logger:       logger,
	}
}

type relayMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Contact delivers a support message. Each sender email gets one message
// per rate-limit window.
func (s *SupportService) Contact(ctx context.Context, req *domain.ContactSupportRequest) error {
	email := ratelimit.NormalizeKey(req.Email)

	decision, err := s.limiter.Allow(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check rate limit: %w", err)
	}
	if !decision.Allowed {
		metrics.RecordSupportMessage("rate_limited")
		return &RateLimitError{RetryAfter: decision.RetryAfter}
	}

	msg := relayMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   email,
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}

	if err := s.deliver(ctx, msg); err != nil {
		metrics.RecordSupportMessage("failed")
		s.logger.Error("failed to deliver support message",
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	metrics.RecordSupportMessage("sent")
	s.logger.Info("support message delivered", zap.String("email", logger.MaskEmail(email)))
	return nil
}

func (s *SupportService) deliver(ctx context.Context, msg relayMessage) error {
	if s.relay != nil {
		body, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		_, err = s.relay.Send(ctx, "support-"+uuid.NewString(), body)
		return err
	}
	return s.mailer.Send(ctx, mailer.SupportEmail(s.supportEmail, msg.Name, msg.Email, msg.Subject, msg.Message))
}
