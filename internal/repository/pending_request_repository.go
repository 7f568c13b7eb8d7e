package repository

import (
	"context"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PendingRequestRepository struct {
	db *gorm.DB
}

func NewPendingRequestRepository(db *gorm.DB) *PendingRequestRepository {
	return &PendingRequestRepository{db: db}
}

func (r *PendingRequestRepository) Create(ctx context.Context, req *domain.PendingRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// ListByUser returns requests sent by userID, newest first
func (r *PendingRequestRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.PendingRequest, error) {
	var requests []domain.PendingRequest
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&requests).Error
	return requests, err
}

// ListByCreator returns requests addressed to a creator profile, newest first
func (r *PendingRequestRepository) ListByCreator(ctx context.Context, creatorProfileID uuid.UUID) ([]domain.PendingRequest, error) {
	var requests []domain.PendingRequest
	err := r.db.WithContext(ctx).Where("creator_profile_id = ?", creatorProfileID).Order("created_at DESC").Find(&requests).Error
	return requests, err
}

// CountOpen counts pending requests from a user to a creator
func (r *PendingRequestRepository) CountOpen(ctx context.Context, userID, creatorProfileID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.PendingRequest{}).
		Where("user_id = ? AND creator_profile_id = ? AND status = ?", userID, creatorProfileID, domain.RequestStatusPending).
		Count(&count).Error
	return count, err
}

// DeleteByUserID removes requests sent by the user. Requests other accounts
// sent to the user's creator profile are left to the creator_profile_id
// foreign key.
func (r *PendingRequestRepository) DeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	result := conn(r.db, tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.PendingRequest{})
	return result.RowsAffected, result.Error
}
