package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/config"
	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/mapper"
	"github.com/aimarketspace/marketplace-api/internal/metrics"
	"github.com/aimarketspace/marketplace-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	webhookRetryBase = time.Minute
	webhookRetryMax  = time.Hour
)

// DispatchResult summarises one dispatcher run
type DispatchResult struct {
	Delivered int
	Retrying  int
	Failed    int
}

// WebhookService drains the webhook outbox
type WebhookService struct {
	repo   *repository.WebhookDeliveryRepository
	client Relay
	cfg    *config.WebhookConfig
	logger *zap.Logger
	now    Clock
}

func NewWebhookService(repo *repository.WebhookDeliveryRepository, client Relay, cfg *config.WebhookConfig, logger *zap.Logger) *WebhookService {
	return &WebhookService{
		repo:   repo,
		client: client,
		cfg:    cfg,
		logger: logger,
		now:    utcNow,
	}
}

// DispatchDue sends deliveries whose next attempt is due. A delivery that
// keeps failing is rescheduled with a growing delay and marked failed after
// the configured number of attempts. Failures never reach the user whose
// action produced the delivery.
func (s *WebhookService) DispatchDue(ctx context.Context) (DispatchResult, error) {
	var result DispatchResult
	if !s.cfg.Enabled {
		return result, nil
	}

	batch := s.cfg.BatchSize
	if batch <= 0 {
		batch = 20
	}

	due, err := s.repo.ListDue(ctx, s.now(), batch)
	if err != nil {
		return result, fmt.Errorf("failed to list due webhooks: %w", err)
	}

	for i := range due {
		if ctx.Err() != nil {
			break
		}
		switch s.dispatch(ctx, &due[i]) {
		case domain.WebhookStatusDelivered:
			result.Delivered++
		case domain.WebhookStatusFailed:
			result.Failed++
		default:
			result.Retrying++
		}
	}

	if pending, err := s.repo.CountByStatus(ctx, domain.WebhookStatusPending); err == nil {
		metrics.SetWebhookPending(pending)
	}
	return result, nil
}

func (s *WebhookService) dispatch(ctx context.Context, d *domain.WebhookDelivery) domain.WebhookStatus {
	attempts := d.Attempts + 1
	log := s.logger.With(
		zap.String("delivery_id", d.ID.String()),
		zap.String("event", d.Event),
		zap.Int("attempt", attempts),
	)

	res, sendErr := s.client.Send(ctx, d.IdempotencyKey, []byte(d.Payload))
	if sendErr == nil {
		if err := s.repo.MarkDelivered(ctx, d.ID, attempts, res.Endpoint, s.now()); err != nil {
			log.Error("failed to mark webhook delivered", zap.Error(err))
		}
		metrics.RecordWebhookDelivery(d.Event, "delivered")
		log.Info("webhook delivered", zap.String("endpoint", res.Endpoint), zap.Int("status", res.StatusCode))
		return domain.WebhookStatusDelivered
	}

	maxAttempts := s.cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}

	if attempts >= maxAttempts {
		if err := s.repo.MarkFailed(ctx, d.ID, attempts, sendErr.Error()); err != nil {
			log.Error("failed to mark webhook failed", zap.Error(err))
		}
		metrics.RecordWebhookDelivery(d.Event, "failed")
		log.Error("webhook delivery failed permanently", zap.Error(sendErr))
		return domain.WebhookStatusFailed
	}

	next := s.now().Add(RetryDelay(attempts))
	if err := s.repo.MarkRetry(ctx, d.ID, attempts, next, sendErr.Error()); err != nil {
		log.Error("failed to reschedule webhook", zap.Error(err))
	}
	metrics.RecordWebhookDelivery(d.Event, "retry")
	log.Warn("webhook delivery failed, will retry", zap.Time("next_attempt_at", next), zap.Error(sendErr))
	return domain.WebhookStatusPending
}

// RetryDelay is the wait before the next dispatcher attempt: one minute
// doubled per attempt, capped at an hour
func RetryDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	delay := webhookRetryBase
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= webhookRetryMax {
			return webhookRetryMax
		}
	}
	return delay
}

// List returns outbox rows for operators, optionally filtered by status
func (s *WebhookService) List(ctx context.Context, status string, page, pageSize int) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.NormalizePagination(page, pageSize)

	var filter *domain.WebhookStatus
	if status != "" {
		st := domain.WebhookStatus(status)
		switch st {
		case domain.WebhookStatusPending, domain.WebhookStatusDelivered, domain.WebhookStatusFailed:
			filter = &st
		default:
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
		}
	}

	deliveries, total, err := s.repo.List(ctx, filter, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}

	dtos := make([]domain.WebhookDeliveryDTO, len(deliveries))
	for i := range deliveries {
		dtos[i] = mapper.ToWebhookDeliveryDTO(&deliveries[i])
	}
	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// Requeue schedules a failed delivery for immediate retry
func (s *WebhookService) Requeue(ctx context.Context, id uuid.UUID) (*domain.WebhookDeliveryDTO, error) {
	if err := s.repo.Requeue(ctx, id, s.now()); err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to requeue webhook: %w", err)
	}
	delivery, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load webhook: %w", err)
	}
	dto := mapper.ToWebhookDeliveryDTO(delivery)
	return &dto, nil
}
