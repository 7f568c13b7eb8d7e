package repository

import (
	"context"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VerificationEventRepository struct {
	db *gorm.DB
}

func NewVerificationEventRepository(db *gorm.DB) *VerificationEventRepository {
	return &VerificationEventRepository{db: db}
}

func (r *VerificationEventRepository) Create(ctx context.Context, tx *gorm.DB, event *domain.VerificationEvent) error {
	return conn(r.db, tx).WithContext(ctx).Create(event).Error
}

func (r *VerificationEventRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.VerificationEvent, error) {
	var events []domain.VerificationEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&events).Error
	return events, err
}

func (r *VerificationEventRepository) DeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	result := conn(r.db, tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.VerificationEvent{})
	return result.RowsAffected, result.Error
}
