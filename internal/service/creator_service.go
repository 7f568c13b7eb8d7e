package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/mapper"
	"github.com/aimarketspace/marketplace-api/internal/repository"
	"github.com/aimarketspace/marketplace-api/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// avatarExtensions maps accepted image types to the stored file extension
var avatarExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

type CreatorService struct {
	creatorRepo    *repository.CreatorProfileRepository
	storage        storage.Storage
	maxUploadBytes int64
	logger         *zap.Logger
	now            Clock
}

func NewCreatorService(
	creatorRepo *repository.CreatorProfileRepository,
	store storage.Storage,
	maxUploadSizeMB int64,
	logger *zap.Logger,
) *CreatorService {
	return &CreatorService{
		creatorRepo:    creatorRepo,
		storage:        store,
		maxUploadBytes: maxUploadSizeMB * 1024 * 1024,
		logger:         logger,
		now:            utcNow,
	}
}

// MaxUploadBytes is the largest avatar accepted
func (s *CreatorService) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// GetMine returns the caller's creator profile
func (s *CreatorService) GetMine(ctx context.Context) (*domain.CreatorProfileDTO, error) {
	userCtx, err := requireCreator(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.creatorRepo.GetByUserID(ctx, userCtx.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get creator profile: %w", err)
	}
	dto := mapper.ToCreatorProfileDTO(profile)
	return &dto, nil
}

// Upsert creates or replaces the caller's creator profile. The profile ID is
// the owner's user ID and the username is the owner's email.
func (s *CreatorService) Upsert(ctx context.Context, req *domain.UpsertCreatorProfileRequest) (*domain.CreatorProfileDTO, error) {
	userCtx, err := requireCreator(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.creatorRepo.GetByUserID(ctx, userCtx.UserID)
	switch {
	case err == nil:
		mapper.ApplyCreatorProfileRequest(profile, req)
		profile.Username = userCtx.Email
		if err := s.creatorRepo.Update(ctx, profile); err != nil {
			return nil, fmt.Errorf("failed to update creator profile: %w", err)
		}
	case isNotFound(err):
		profile = &domain.CreatorProfile{
			UserID:   userCtx.UserID,
			Username: userCtx.Email,
		}
		profile.ID = userCtx.UserID
		mapper.ApplyCreatorProfileRequest(profile, req)
		if err := s.creatorRepo.Create(ctx, profile); err != nil {
			return nil, fmt.Errorf("failed to create creator profile: %w", err)
		}
		s.logger.Info("creator profile created", zap.String("user_id", userCtx.UserID.String()))
	default:
		return nil, fmt.Errorf("failed to get creator profile: %w", err)
	}

	dto := mapper.ToCreatorProfileDTO(profile)
	return &dto, nil
}

// UploadAvatar stores an image and records its public URL on the profile.
// The previous avatar is removed on a best-effort basis.
func (s *CreatorService) UploadAvatar(ctx context.Context, size int64, data io.Reader) (*domain.AvatarUploadResponse, error) {
	userCtx, err := requireCreator(ctx)
	if err != nil {
		return nil, err
	}
	if size > s.maxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds %d MB", ErrInvalidFile, s.maxUploadBytes/(1024*1024))
	}

	profile, err := s.creatorRepo.GetByUserID(ctx, userCtx.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get creator profile: %w", err)
	}

	// Trust the bytes, not the client's content type
	buffered := bufio.NewReaderSize(data, 512)
	head, _ := buffered.Peek(512)
	contentType := http.DetectContentType(head)
	ext, ok := avatarExtensions[strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])]
	if !ok {
		return nil, fmt.Errorf("%w: only JPEG, PNG, GIF and WebP images are allowed", ErrInvalidFile)
	}

	key := fmt.Sprintf("avatars/avatar-%s-%d.%s", userCtx.UserID, s.now().Unix(), ext)
	written, err := s.storage.Put(ctx, key, contentType, io.LimitReader(buffered, s.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to store avatar: %w", err)
	}
	if written > s.maxUploadBytes {
		_ = s.storage.Delete(ctx, key)
		return nil, fmt.Errorf("%w: file exceeds %d MB", ErrInvalidFile, s.maxUploadBytes/(1024*1024))
	}

	avatarURL := s.storage.PublicURL(key)
	if err := s.creatorRepo.UpdateAvatar(ctx, userCtx.UserID, avatarURL); err != nil {
		_ = s.storage.Delete(ctx, key)
		return nil, err
	}

	if old, ok := storage.KeyFromURL(s.storage, profile.AvatarURL); ok && old != key {
		if err := s.storage.Delete(ctx, old); err != nil {
			s.logger.Warn("failed to delete previous avatar", zap.String("key", old), zap.Error(err))
		}
	}

	return &domain.AvatarUploadResponse{AvatarURL: avatarURL}, nil
}

// GetByID returns a public creator profile
func (s *CreatorService) GetByID(ctx context.Context, id uuid.UUID) (*domain.CreatorProfileDTO, error) {
	profile, err := s.creatorRepo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get creator profile: %w", err)
	}
	dto := mapper.ToCreatorProfileDTO(profile)
	return &dto, nil
}

// ListByCategory returns complete profiles offering solutions for category
func (s *CreatorService) ListByCategory(ctx context.Context, category string) ([]domain.CreatorProfileDTO, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", ErrInvalidInput)
	}

	profiles, err := s.creatorRepo.ListByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list creators: %w", err)
	}
	return toCreatorDTOs(profiles), nil
}

// List returns complete profiles across all categories
func (s *CreatorService) List(ctx context.Context, page, pageSize int) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.NormalizePagination(page, pageSize)
	profiles, total, err := s.creatorRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list creators: %w", err)
	}
	return &domain.PaginatedResponse{
		Data:       toCreatorDTOs(profiles),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func toCreatorDTOs(profiles []domain.CreatorProfile) []domain.CreatorProfileDTO {
	dtos := make([]domain.CreatorProfileDTO, len(profiles))
	for i := range profiles {
		dtos[i] = mapper.ToCreatorProfileDTO(&profiles[i])
	}
	return dtos
}
