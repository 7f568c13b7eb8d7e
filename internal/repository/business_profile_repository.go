package repository

import (
	"context"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BusinessProfileRepository struct {
	db *gorm.DB
}

func NewBusinessProfileRepository(db *gorm.DB) *BusinessProfileRepository {
	return &BusinessProfileRepository{db: db}
}

func (r *BusinessProfileRepository) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*domain.BusinessProfile, error) {
	var profile domain.BusinessProfile
	err := conn(r.db, tx).WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Create inserts a first submission. The unique user_id index rejects a
// concurrent duplicate.
func (r *BusinessProfileRepository) Create(ctx context.Context, tx *gorm.DB, profile *domain.BusinessProfile) error {
	return conn(r.db, tx).WithContext(ctx).Create(profile).Error
}

// Resubmission carries the fields replaced when a rejected business tries again
type Resubmission struct {
	CompanyEmail   string
	CompanyWebsite string
	LinkedInURL    *string
	SubmittedAt    time.Time
}

// Resubmit moves a rejected profile back to pending and increments the
// attempt counter in a single conditional statement. It returns the number
// of rows changed: 0 means the profile was not rejected or the attempt cap
// was already reached.
func (r *BusinessProfileRepository) Resubmit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sub Resubmission) (int64, error) {
	result := conn(r.db, tx).WithContext(ctx).
		Model(&domain.BusinessProfile{}).
		Where("user_id = ? AND verification_status = ? AND attempt_count < ?",
			userID, domain.VerificationStatusRejected, domain.MaxVerificationAttempts).
		Updates(map[string]interface{}{
			"company_email":       sub.CompanyEmail,
			"company_website":     sub.CompanyWebsite,
			"linkedin_url":        sub.LinkedInURL,
			"verification_status": domain.VerificationStatusPending,
			"attempt_count":       gorm.Expr("attempt_count + 1"),
			"submitted_at":        sub.SubmittedAt,
			"reviewed_at":         nil,
			"review_note":         "",
		})
	return result.RowsAffected, result.Error
}

// Review records a decision on a pending profile. Only pending rows change;
// 0 rows affected means there was nothing to review.
func (r *BusinessProfileRepository) Review(ctx context.Context, tx *gorm.DB, userID uuid.UUID, decision domain.VerificationStatus, note string, at time.Time) (int64, error) {
	result := conn(r.db, tx).WithContext(ctx).
		Model(&domain.BusinessProfile{}).
		Where("user_id = ? AND verification_status = ?", userID, domain.VerificationStatusPending).
		Updates(map[string]interface{}{
			"verification_status": decision,
			"reviewed_at":         at,
			"review_note":         note,
		})
	return result.RowsAffected, result.Error
}

// ListByStatus returns profiles in a status, oldest submission first
func (r *BusinessProfileRepository) ListByStatus(ctx context.Context, status domain.VerificationStatus, page, pageSize int) ([]domain.BusinessProfile, int64, error) {
	var profiles []domain.BusinessProfile
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.BusinessProfile{}).Where("verification_status = ?", status)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("submitted_at ASC").Offset(offset).Limit(pageSize).Find(&profiles).Error
	return profiles, total, err
}

func (r *BusinessProfileRepository) DeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	result := conn(r.db, tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.BusinessProfile{})
	return result.RowsAffected, result.Error
}
