package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreatorProfileRepository struct {
	db *gorm.DB
}

func NewCreatorProfileRepository(db *gorm.DB) *CreatorProfileRepository {
	return &CreatorProfileRepository{db: db}
}

func (r *CreatorProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CreatorProfile, error) {
	var profile domain.CreatorProfile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *CreatorProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.CreatorProfile, error) {
	var profile domain.CreatorProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *CreatorProfileRepository) ExistsForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.CreatorProfile{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count > 0, err
}

func (r *CreatorProfileRepository) Create(ctx context.Context, profile *domain.CreatorProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *CreatorProfileRepository) Update(ctx context.Context, profile *domain.CreatorProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *CreatorProfileRepository) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.CreatorProfile{}).
		Where("user_id = ?", userID).
		Update("avatar_url", avatarURL)
	if result.Error != nil {
		return fmt.Errorf("failed to update avatar: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByCategory returns complete profiles offering solutions for category,
// newest first. The LIKE narrows candidates on the serialized list and the
// exact membership check runs in Go.
func (r *CreatorProfileRepository) ListByCategory(ctx context.Context, category string) ([]domain.CreatorProfile, error) {
	// solutions_for holds the json serializer's output, so match the encoded
	// element ("Sales \u0026 Lead Generation") rather than the raw text
	encoded, err := json.Marshal(category)
	if err != nil {
		return nil, fmt.Errorf("failed to encode category: %w", err)
	}

	var candidates []domain.CreatorProfile
	err = r.db.WithContext(ctx).
		Where(`solutions_for LIKE ? ESCAPE '\'`, "%"+escapeLike(string(encoded))+"%").
		Where("full_name <> '' AND title <> ''").
		Order("created_at DESC").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	profiles := make([]domain.CreatorProfile, 0, len(candidates))
	for i := range candidates {
		if candidates[i].IsListable(category) {
			profiles = append(profiles, candidates[i])
		}
	}
	return profiles, nil
}

// List returns all complete profiles, newest first
func (r *CreatorProfileRepository) List(ctx context.Context, page, pageSize int) ([]domain.CreatorProfile, int64, error) {
	var profiles []domain.CreatorProfile
	var total int64

	query := r.db.WithContext(ctx).
		Model(&domain.CreatorProfile{}).
		Where("full_name <> '' AND title <> ''")

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&profiles).Error
	return profiles, total, err
}

func (r *CreatorProfileRepository) DeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	result := conn(r.db, tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.CreatorProfile{})
	return result.RowsAffected, result.Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards and the escape character itself so user
// input matches literally under ESCAPE '\'
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
