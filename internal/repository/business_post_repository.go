package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BusinessPostRepository struct {
	db *gorm.DB
}

func NewBusinessPostRepository(db *gorm.DB) *BusinessPostRepository {
	return &BusinessPostRepository{db: db}
}

func (r *BusinessPostRepository) Create(ctx context.Context, post *domain.BusinessPost) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *BusinessPostRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.BusinessPost, error) {
	var post domain.BusinessPost
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *BusinessPostRepository) Update(ctx context.Context, post *domain.BusinessPost) error {
	return r.db.WithContext(ctx).Save(post).Error
}

// UpdateStatus changes the status of a post owned by userID
func (r *BusinessPostRepository) UpdateStatus(ctx context.Context, id, userID uuid.UUID, status domain.PostStatus) error {
	result := r.db.WithContext(ctx).
		Model(&domain.BusinessPost{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update post status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a post owned by userID
func (r *BusinessPostRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.BusinessPost{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete post: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByUser returns the owner's posts newest first, optionally limited to statuses
func (r *BusinessPostRepository) ListByUser(ctx context.Context, userID uuid.UUID, statuses []domain.PostStatus) ([]domain.BusinessPost, error) {
	var posts []domain.BusinessPost
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	err := query.Order("created_at DESC").Find(&posts).Error
	return posts, err
}

// ListActive returns publicly visible posts (active and not yet expired), newest first
func (r *BusinessPostRepository) ListActive(ctx context.Context, now time.Time, page, pageSize int) ([]domain.BusinessPost, int64, error) {
	var posts []domain.BusinessPost
	var total int64

	query := r.db.WithContext(ctx).
		Model(&domain.BusinessPost{}).
		Where("status = ? AND expires_at > ?", domain.PostStatusActive, now)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&posts).Error
	return posts, total, err
}

// HasActive reports whether any publicly visible post exists
func (r *BusinessPostRepository) HasActive(ctx context.Context, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.BusinessPost{}).
		Where("status = ? AND expires_at > ?", domain.PostStatusActive, now).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// ArchiveExpired archives active posts whose expiry is at or before now.
// When userID is set only that owner's posts are touched.
func (r *BusinessPostRepository) ArchiveExpired(ctx context.Context, now time.Time, userID *uuid.UUID) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&domain.BusinessPost{}).
		Where("status = ? AND expires_at <= ?", domain.PostStatusActive, now)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	result := query.Update("status", domain.PostStatusArchived)
	return result.RowsAffected, result.Error
}

func (r *BusinessPostRepository) DeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	result := conn(r.db, tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.BusinessPost{})
	return result.RowsAffected, result.Error
}
