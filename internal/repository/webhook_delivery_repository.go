package repository

import (
	"context"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WebhookDeliveryRepository struct {
	db *gorm.DB
}

func NewWebhookDeliveryRepository(db *gorm.DB) *WebhookDeliveryRepository {
	return &WebhookDeliveryRepository{db: db}
}

func (r *WebhookDeliveryRepository) Create(ctx context.Context, tx *gorm.DB, delivery *domain.WebhookDelivery) error {
	return conn(r.db, tx).WithContext(ctx).Create(delivery).Error
}

func (r *WebhookDeliveryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WebhookDelivery, error) {
	var delivery domain.WebhookDelivery
	if err := r.db.WithContext(ctx).First(&delivery, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &delivery, nil
}

// ListDue returns pending deliveries whose next attempt time has arrived, oldest first
func (r *WebhookDeliveryRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.WebhookDelivery, error) {
	var deliveries []domain.WebhookDelivery
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", domain.WebhookStatusPending, now).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&deliveries).Error
	return deliveries, err
}

func (r *WebhookDeliveryRepository) MarkDelivered(ctx context.Context, id uuid.UUID, attempts int, endpoint string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.WebhookDelivery{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       domain.WebhookStatusDelivered,
			"attempts":     attempts,
			"endpoint":     endpoint,
			"delivered_at": at,
			"last_error":   "",
		}).Error
}

func (r *WebhookDeliveryRepository) MarkRetry(ctx context.Context, id uuid.UUID, attempts int, nextAttemptAt time.Time, lastError string) error {
	return r.db.WithContext(ctx).
		Model(&domain.WebhookDelivery{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":        attempts,
			"next_attempt_at": nextAttemptAt,
			"last_error":      lastError,
		}).Error
}

func (r *WebhookDeliveryRepository) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string) error {
	return r.db.WithContext(ctx).
		Model(&domain.WebhookDelivery{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     domain.WebhookStatusFailed,
			"attempts":   attempts,
			"last_error": lastError,
		}).Error
}

// Requeue resets a failed delivery so the dispatcher picks it up again
func (r *WebhookDeliveryRepository) Requeue(ctx context.Context, id uuid.UUID, now time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.WebhookDelivery{}).
		Where("id = ? AND status = ?", id, domain.WebhookStatusFailed).
		Updates(map[string]interface{}{
			"status":          domain.WebhookStatusPending,
			"attempts":        0,
			"next_attempt_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns deliveries newest first, optionally filtered by status
func (r *WebhookDeliveryRepository) List(ctx context.Context, status *domain.WebhookStatus, page, pageSize int) ([]domain.WebhookDelivery, int64, error) {
	var deliveries []domain.WebhookDelivery
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.WebhookDelivery{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&deliveries).Error
	return deliveries, total, err
}

// CountByStatus is used for the pending-outbox gauge
func (r *WebhookDeliveryRepository) CountByStatus(ctx context.Context, status domain.WebhookStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.WebhookDelivery{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
