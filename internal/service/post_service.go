package service

import (
	"context"
	"fmt"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/auth"
	"github.com/aimarketspace/marketplace-api/internal/config"
	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/mapper"
	"github.com/aimarketspace/marketplace-api/internal/metrics"
	"github.com/aimarketspace/marketplace-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tabs accepted by ListMine
const (
	PostTabActive   = "active"
	PostTabArchived = "archived"
	PostTabAll      = "all"
)

type PostService struct {
	postRepo     *repository.BusinessPostRepository
	verification *VerificationService
	cfg          *config.PostsConfig
	logger       *zap.Logger
	now          Clock
}

func NewPostService(
	postRepo *repository.BusinessPostRepository,
	verification *VerificationService,
	cfg *config.PostsConfig,
	logger *zap.Logger,
) *PostService {
	return &PostService{
		postRepo:     postRepo,
		verification: verification,
		cfg:          cfg,
		logger:       logger,
		now:          utcNow,
	}
}

// Create publishes a post for a verified business
func (s *PostService) Create(ctx context.Context, req *domain.CreatePostRequest) (*domain.BusinessPostDTO, error) {
	userCtx, err := s.requireVerified(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt, err := s.resolveExpiry(req.ExpiresAt, now)
	if err != nil {
		return nil, err
	}

	post := &domain.BusinessPost{
		UserID:    userCtx.UserID,
		Status:    domain.PostStatusActive,
		ExpiresAt: expiresAt,
	}
	mapper.ApplyPostRequest(post, req)

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.Info("business post created",
		zap.String("post_id", post.ID.String()),
		zap.String("user_id", userCtx.UserID.String()),
		zap.Time("expires_at", post.ExpiresAt),
	)

	dto := mapper.ToBusinessPostDTO(post, now)
	return &dto, nil
}

// Update replaces a post's content. Saving makes the post active again; an
// expired post without a new expiry gets a fresh default lifetime.
func (s *PostService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdatePostRequest) (*domain.BusinessPostDTO, error) {
	userCtx, err := s.requireVerified(ctx)
	if err != nil {
		return nil, err
	}

	post, err := s.getOwned(ctx, id, userCtx.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if req.ExpiresAt != nil {
		if post.ExpiresAt, err = s.resolveExpiry(req.ExpiresAt, now); err != nil {
			return nil, err
		}
	} else if post.IsExpired(now) {
		post.ExpiresAt = now.Add(s.cfg.DefaultTTL())
	}

	mapper.ApplyPostRequest(post, req)
	post.Status = domain.PostStatusActive

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	dto := mapper.ToBusinessPostDTO(post, now)
	return &dto, nil
}

// Archive hides the caller's post from public listings
func (s *PostService) Archive(ctx context.Context, id uuid.UUID) error {
	userCtx, err := requireBusiness(ctx)
	if err != nil {
		return err
	}
	if err := s.postRepo.UpdateStatus(ctx, id, userCtx.UserID, domain.PostStatusArchived); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Delete removes the caller's post
func (s *PostService) Delete(ctx context.Context, id uuid.UUID) error {
	userCtx, err := requireBusiness(ctx)
	if err != nil {
		return err
	}
	if err := s.postRepo.Delete(ctx, id, userCtx.UserID); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ListMine returns the caller's posts for a dashboard tab. Expired active
// posts are archived first so the tabs agree with the public listing.
func (s *PostService) ListMine(ctx context.Context, tab string) ([]domain.BusinessPostDTO, error) {
	userCtx, err := requireBusiness(ctx)
	if err != nil {
		return nil, err
	}

	var statuses []domain.PostStatus
	switch tab {
	case "", PostTabActive:
		statuses = []domain.PostStatus{domain.PostStatusActive}
	case PostTabArchived:
		statuses = []domain.PostStatus{domain.PostStatusArchived, domain.PostStatusExpired}
	case PostTabAll:
	default:
		return nil, fmt.Errorf("%w: unknown tab %q", ErrInvalidInput, tab)
	}

	now := s.now()
	archived, err := s.postRepo.ArchiveExpired(ctx, now, &userCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to archive expired posts: %w", err)
	}
	metrics.RecordPostsArchived("read", archived)

	posts, err := s.postRepo.ListByUser(ctx, userCtx.UserID, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return toPostDTOs(posts, now), nil
}

// ListActive returns the public listing: active posts that have not expired
func (s *PostService) ListActive(ctx context.Context, page, pageSize int) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.NormalizePagination(page, pageSize)
	now := s.now()

	posts, total, err := s.postRepo.ListActive(ctx, now, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return &domain.PaginatedResponse{
		Data:       toPostDTOs(posts, now),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// GetByID returns a post. Archived and expired posts are only visible to
// their owner, even before the expiry job has archived them.
func (s *PostService) GetByID(ctx context.Context, id uuid.UUID) (*domain.BusinessPostDTO, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	now := s.now()
	if !post.IsPubliclyVisible(now) {
		userCtx, ok := auth.FromContext(ctx)
		if !ok || userCtx.UserID != post.UserID {
			return nil, ErrNotFound
		}
	}

	dto := mapper.ToBusinessPostDTO(post, now)
	return &dto, nil
}

// HasActive reports whether the public listing is non-empty
func (s *PostService) HasActive(ctx context.Context) (bool, error) {
	has, err := s.postRepo.HasActive(ctx, s.now())
	if err != nil {
		return false, fmt.Errorf("failed to check active posts: %w", err)
	}
	return has, nil
}

// ArchiveExpired archives every active post past its expiry
func (s *PostService) ArchiveExpired(ctx context.Context) (int64, error) {
	n, err := s.postRepo.ArchiveExpired(ctx, s.now(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to archive expired posts: %w", err)
	}
	metrics.RecordPostsArchived("job", n)
	return n, nil
}

func (s *PostService) requireVerified(ctx context.Context) (*auth.UserContext, error) {
	userCtx, err := requireBusiness(ctx)
	if err != nil {
		return nil, err
	}
	verified, err := s.verification.IsVerified(ctx, userCtx.UserID)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, ErrVerificationRequired
	}
	return userCtx, nil
}

func (s *PostService) getOwned(ctx context.Context, id, userID uuid.UUID) (*domain.BusinessPost, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post.UserID != userID {
		return nil, ErrForbidden
	}
	return post, nil
}

// resolveExpiry applies the default lifetime or validates a requested one
func (s *PostService) resolveExpiry(requested *string, now time.Time) (time.Time, error) {
	if requested == nil || *requested == "" {
		return now.Add(s.cfg.DefaultTTL()), nil
	}

	t, err := time.Parse(time.RFC3339, *requested)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: expiresAt must be RFC 3339", ErrInvalidExpiry)
	}
	t = t.UTC()
	if !t.After(now) {
		return time.Time{}, fmt.Errorf("%w: expiresAt must be in the future", ErrInvalidExpiry)
	}
	if t.After(now.Add(s.cfg.MaxTTL())) {
		return time.Time{}, fmt.Errorf("%w: expiresAt exceeds the maximum post lifetime", ErrInvalidExpiry)
	}
	return t, nil
}

func toPostDTOs(posts []domain.BusinessPost, now time.Time) []domain.BusinessPostDTO {
	dtos := make([]domain.BusinessPostDTO, len(posts))
	for i := range posts {
		dtos[i] = mapper.ToBusinessPostDTO(&posts[i], now)
	}
	return dtos
}
