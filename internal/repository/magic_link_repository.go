package repository

import (
	"context"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"gorm.io/gorm"
)

type MagicLinkRepository struct {
	db *gorm.DB
}

func NewMagicLinkRepository(db *gorm.DB) *MagicLinkRepository {
	return &MagicLinkRepository{db: db}
}

func (r *MagicLinkRepository) Create(ctx context.Context, token *domain.MagicLinkToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// Consume marks an unexpired, unused token as used and returns it. The
// conditional update makes a token redeemable exactly once; a second caller
// gets gorm.ErrRecordNotFound.
func (r *MagicLinkRepository) Consume(ctx context.Context, tx *gorm.DB, tokenHash string, now time.Time) (*domain.MagicLinkToken, error) {
	db := conn(r.db, tx).WithContext(ctx)

	result := db.Model(&domain.MagicLinkToken{}).
		Where("token_hash = ? AND consumed_at IS NULL AND expires_at > ?", tokenHash, now).
		Update("consumed_at", now)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var token domain.MagicLinkToken
	if err := db.Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// DeleteExpired removes tokens that expired before the cutoff
func (r *MagicLinkRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&domain.MagicLinkToken{})
	return result.RowsAffected, result.Error
}
