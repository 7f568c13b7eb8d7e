package repository

import (
	"context"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConsentRepository is append-only: there is no update or delete
type ConsentRepository struct {
	db *gorm.DB
}

func NewConsentRepository(db *gorm.DB) *ConsentRepository {
	return &ConsentRepository{db: db}
}

func (r *ConsentRepository) Create(ctx context.Context, entry *domain.CookieConsentLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Latest returns the most recent choice for a user, or for an anonymous session
func (r *ConsentRepository) Latest(ctx context.Context, userID *uuid.UUID, sessionID string) (*domain.CookieConsentLog, error) {
	query := r.db.WithContext(ctx)
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	} else {
		query = query.Where("session_id = ? AND user_id IS NULL", sessionID)
	}

	var entry domain.CookieConsentLog
	if err := query.Order("created_at DESC").First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}
