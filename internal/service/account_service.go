package service

import (
	"context"
	"fmt"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/repository"
	"github.com/aimarketspace/marketplace-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DeleteConfirmation must be typed by the user to delete their account
const DeleteConfirmation = "DELETE"

type AccountService struct {
	userRepo     *repository.UserRepository
	postRepo     *repository.BusinessPostRepository
	creatorRepo  *repository.CreatorProfileRepository
	businessRepo *repository.BusinessProfileRepository
	eventRepo    *repository.VerificationEventRepository
	requestRepo  *repository.PendingRequestRepository
	sessionRepo  *repository.SessionRepository
	storage      storage.Storage
	logger       *zap.Logger
	db           *gorm.DB
	now          Clock
}

func NewAccountService(
	userRepo *repository.UserRepository,
	postRepo *repository.BusinessPostRepository,
	creatorRepo *repository.CreatorProfileRepository,
	businessRepo *repository.BusinessProfileRepository,
	eventRepo *repository.VerificationEventRepository,
	requestRepo *repository.PendingRequestRepository,
	sessionRepo *repository.SessionRepository,
	store storage.Storage,
	logger *zap.Logger,
	db *gorm.DB,
) *AccountService {
	return &AccountService{
		userRepo:     userRepo,
		postRepo:     postRepo,
		creatorRepo:  creatorRepo,
		businessRepo: businessRepo,
		eventRepo:    eventRepo,
		requestRepo:  requestRepo,
		sessionRepo:  sessionRepo,
		storage:      store,
		logger:       logger,
		db:           db,
		now:          utcNow,
	}
}

// DeleteAccount removes everything the caller owns in one transaction and
// signs them out everywhere. Only rows keyed by the caller's ID are touched.
func (s *AccountService) DeleteAccount(ctx context.Context, req *domain.DeleteAccountRequest) error {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return err
	}
	if req.Confirmation != DeleteConfirmation {
		return ErrConfirmationMismatch
	}

	var avatarURL string
	if profile, err := s.creatorRepo.GetByUserID(ctx, userCtx.UserID); err == nil {
		avatarURL = profile.AvatarURL
	} else if !isNotFound(err) {
		return fmt.Errorf("failed to load creator profile: %w", err)
	}

	counts := map[string]int64{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := []struct {
			name string
			run  func() (int64, error)
		}{
			{"business_posts", func() (int64, error) { return s.postRepo.DeleteByUserID(ctx, tx, userCtx.UserID) }},
			{"pending_requests", func() (int64, error) { return s.requestRepo.DeleteByUserID(ctx, tx, userCtx.UserID) }},
			{"creator_profiles", func() (int64, error) { return s.creatorRepo.DeleteByUserID(ctx, tx, userCtx.UserID) }},
			{"verification_events", func() (int64, error) { return s.eventRepo.DeleteByUserID(ctx, tx, userCtx.UserID) }},
			{"business_profiles", func() (int64, error) { return s.businessRepo.DeleteByUserID(ctx, tx, userCtx.UserID) }},
			{"sessions_revoked", func() (int64, error) {
				return s.sessionRepo.RevokeAllForUser(ctx, tx, userCtx.UserID, s.now())
			}},
		}
		for _, step := range steps {
			n, err := step.run()
			if err != nil {
				return fmt.Errorf("failed to delete %s: %w", step.name, err)
			}
			counts[step.name] = n
		}
		return nil
	})
	if err != nil {
		return err
	}

	if key, ok := storage.KeyFromURL(s.storage, avatarURL); ok {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to delete avatar", zap.String("key", key), zap.Error(err))
		}
	}

	fields := []zap.Field{zap.String("user_id", userCtx.UserID.String())}
	for name, n := range counts {
		fields = append(fields, zap.Int64(name, n))
	}
	s.logger.Info("account data deleted", fields...)
	return nil
}

// ResolveUserType returns the caller's effective user type
func (s *AccountService) ResolveUserType(ctx context.Context) (domain.UserType, error) {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return "", err
	}
	user, err := s.userRepo.GetByID(ctx, userCtx.UserID)
	if err != nil {
		if isNotFound(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	resolved, err := userTypeResolver{creatorRepo: s.creatorRepo, businessRepo: s.businessRepo}.
		resolve(ctx, user.ID, user.UserType)
	if err != nil {
		return "", err
	}
	return resolved.UserType, nil
}
