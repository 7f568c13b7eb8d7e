package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aimarketspace/marketplace-api/internal/auth"
	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/mapper"
	"github.com/aimarketspace/marketplace-api/internal/metrics"
	"github.com/aimarketspace/marketplace-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VerificationService runs the business verification workflow:
// none -> pending -> verified | rejected, and rejected -> pending while
// attempts remain.
type VerificationService struct {
	businessRepo *repository.BusinessProfileRepository
	eventRepo    *repository.VerificationEventRepository
	webhookRepo  *repository.WebhookDeliveryRepository
	supportEmail string
	logger       *zap.Logger
	db           *gorm.DB
	now          Clock
}

func NewVerificationService(
	businessRepo *repository.BusinessProfileRepository,
	eventRepo *repository.VerificationEventRepository,
	webhookRepo *repository.WebhookDeliveryRepository,
	supportEmail string,
	logger *zap.Logger,
	db *gorm.DB,
) *VerificationService {
	return &VerificationService{
		businessRepo: businessRepo,
		eventRepo:    eventRepo,
		webhookRepo:  webhookRepo,
		supportEmail: supportEmail,
		logger:       logger,
		db:           db,
		now:          utcNow,
	}
}

// GetStatus returns the caller's verification state and which screen to show
func (s *VerificationService) GetStatus(ctx context.Context) (*domain.VerificationStatusDTO, error) {
	userCtx, err := requireBusiness(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.loadProfile(ctx, nil, userCtx.UserID)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToVerificationStatusDTO(profile, s.supportEmail)
	return &dto, nil
}

// IsVerified reports whether the user's business profile is verified
func (s *VerificationService) IsVerified(ctx context.Context, userID uuid.UUID) (bool, error) {
	profile, err := s.loadProfile(ctx, nil, userID)
	if err != nil {
		return false, err
	}
	return domain.StatusOf(profile) == domain.VerificationStatusVerified, nil
}

// Submit records a verification request for the caller's company. URLs are
// checked before anything is written. The attempt cap is enforced by the
// database statement itself, so concurrent submissions cannot exceed it.
func (s *VerificationService) Submit(ctx context.Context, req *domain.SubmitVerificationRequest) (*domain.VerificationStatusDTO, error) {
	userCtx, err := requireBusiness(ctx)
	if err != nil {
		return nil, err
	}

	website := strings.TrimSpace(req.CompanyWebsite)
	if !domain.HasHTTPScheme(website) {
		metrics.RecordVerificationSubmission("invalid_url")
		return nil, ErrInvalidWebsiteURL
	}
	var linkedin *string
	if l := strings.TrimSpace(req.LinkedInURL); l != "" {
		if !domain.HasHTTPScheme(l) {
			metrics.RecordVerificationSubmission("invalid_url")
			return nil, ErrInvalidWebsiteURL
		}
		linkedin = &l
	}

	now := s.now()
	var profile *domain.BusinessProfile

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.loadProfile(ctx, tx, userCtx.UserID)
		if err != nil {
			return err
		}

		from := domain.StatusOf(existing)
		if existing == nil {
			profile = &domain.BusinessProfile{
				UserID:             userCtx.UserID,
				CompanyEmail:       userCtx.Email,
				CompanyWebsite:     website,
				LinkedInURL:        linkedin,
				VerificationStatus: domain.VerificationStatusPending,
				AttemptCount:       1,
				SubmittedAt:        now,
			}
			if err := s.businessRepo.Create(ctx, tx, profile); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrVerificationPending
				}
				return fmt.Errorf("failed to create business profile: %w", err)
			}
		} else {
			if err := submissionBlocked(existing); err != nil {
				return err
			}
			rows, err := s.businessRepo.Resubmit(ctx, tx, userCtx.UserID, repository.Resubmission{
				CompanyEmail:   userCtx.Email,
				CompanyWebsite: website,
				LinkedInURL:    linkedin,
				SubmittedAt:    now,
			})
			if err != nil {
				return fmt.Errorf("failed to resubmit verification: %w", err)
			}
			if rows == 0 {
				// Lost a race with another submission; report the state it left behind
				current, err := s.loadProfile(ctx, tx, userCtx.UserID)
				if err != nil {
					return err
				}
				if blocked := submissionBlocked(current); blocked != nil {
					return blocked
				}
				return ErrAttemptsExhausted
			}
			if profile, err = s.loadProfile(ctx, tx, userCtx.UserID); err != nil {
				return err
			}
		}

		if err := s.eventRepo.Create(ctx, tx, &domain.VerificationEvent{
			BusinessProfileID: profile.ID,
			UserID:            userCtx.UserID,
			FromStatus:        from,
			ToStatus:          domain.VerificationStatusPending,
			Attempt:           profile.AttemptCount,
			Actor:             userCtx.Actor(),
		}); err != nil {
			return fmt.Errorf("failed to record verification event: %w", err)
		}

		return s.enqueueSubmittedWebhook(ctx, tx, profile)
	})
	if err != nil {
		metrics.RecordVerificationSubmission(submissionOutcome(err))
		return nil, err
	}

	metrics.RecordVerificationSubmission("submitted")
	s.logger.Info("business verification submitted",
		zap.String("user_id", userCtx.UserID.String()),
		zap.Int("attempt", profile.AttemptCount),
	)

	dto := mapper.ToVerificationStatusDTO(profile, s.supportEmail)
	return &dto, nil
}

// Review records a decision on a pending verification. Called by back-office
// automation with the API key.
func (s *VerificationService) Review(ctx context.Context, userID uuid.UUID, req *domain.ReviewVerificationRequest) (*domain.VerificationStatusDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok || !userCtx.IsSystem {
		return nil, ErrForbidden
	}
	if req.Decision != domain.VerificationStatusVerified && req.Decision != domain.VerificationStatusRejected {
		return nil, fmt.Errorf("%w: decision must be verified or rejected", ErrInvalidInput)
	}

	now := s.now()
	var profile *domain.BusinessProfile

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.loadProfile(ctx, tx, userID)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrNotFound
		}
		if !domain.CanTransitionVerification(existing.VerificationStatus, req.Decision) {
			return ErrNotPendingReview
		}

		rows, err := s.businessRepo.Review(ctx, tx, userID, req.Decision, req.Note, now)
		if err != nil {
			return fmt.Errorf("failed to review verification: %w", err)
		}
		if rows == 0 {
			return ErrNotPendingReview
		}

		if err := s.eventRepo.Create(ctx, tx, &domain.VerificationEvent{
			BusinessProfileID: existing.ID,
			UserID:            userID,
			FromStatus:        domain.VerificationStatusPending,
			ToStatus:          req.Decision,
			Attempt:           existing.AttemptCount,
			Actor:             userCtx.Actor(),
			Note:              req.Note,
		}); err != nil {
			return fmt.Errorf("failed to record verification event: %w", err)
		}

		profile, err = s.loadProfile(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordVerificationDecision(string(req.Decision))
	s.logger.Info("business verification reviewed",
		zap.String("user_id", userID.String()),
		zap.String("decision", string(req.Decision)),
		zap.Int("attempt", profile.AttemptCount),
	)

	dto := mapper.ToVerificationStatusDTO(profile, s.supportEmail)
	return &dto, nil
}

// ListForReview pages through business profiles in a verification status,
// oldest submission first. Status defaults to pending.
func (s *VerificationService) ListForReview(ctx context.Context, status string, page, pageSize int) (*domain.PaginatedResponse, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok || !userCtx.IsSystem {
		return nil, ErrForbidden
	}

	filter := domain.VerificationStatusPending
	if status != "" {
		filter = domain.VerificationStatus(status)
		switch filter {
		case domain.VerificationStatusPending, domain.VerificationStatusVerified, domain.VerificationStatusRejected:
		default:
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
		}
	}

	page, pageSize = repository.NormalizePagination(page, pageSize)
	profiles, total, err := s.businessRepo.ListByStatus(ctx, filter, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list business profiles: %w", err)
	}

	items := make([]domain.VerificationQueueItemDTO, len(profiles))
	for i := range profiles {
		items[i] = mapper.ToVerificationQueueItemDTO(&profiles[i], s.supportEmail)
	}
	return &domain.PaginatedResponse{
		Data:       items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// History lists the caller's verification events, newest first
func (s *VerificationService) History(ctx context.Context) ([]domain.VerificationEventDTO, error) {
	userCtx, err := requireBusiness(ctx)
	if err != nil {
		return nil, err
	}

	events, err := s.eventRepo.ListByUser(ctx, userCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list verification events: %w", err)
	}

	dtos := make([]domain.VerificationEventDTO, len(events))
	for i := range events {
		dtos[i] = mapper.ToVerificationEventDTO(&events[i])
	}
	return dtos, nil
}

// loadProfile returns nil without error when the user has no business profile
func (s *VerificationService) loadProfile(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*domain.BusinessProfile, error) {
	profile, err := s.businessRepo.GetByUserID(ctx, tx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load business profile: %w", err)
	}
	return profile, nil
}

func (s *VerificationService) enqueueSubmittedWebhook(ctx context.Context, tx *gorm.DB, profile *domain.BusinessProfile) error {
	payload := domain.VerificationWebhookPayload{
		Email:   profile.CompanyEmail,
		Website: profile.CompanyWebsite,
		UserID:  profile.UserID.String(),
		Attempt: profile.AttemptCount,
	}
	if profile.LinkedInURL != nil {
		payload.LinkedIn = *profile.LinkedInURL
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	delivery := &domain.WebhookDelivery{
		Event:          domain.WebhookEventVerificationSubmitted,
		IdempotencyKey: fmt.Sprintf("verification-%s-%d", profile.UserID, profile.AttemptCount),
		Payload:        string(body),
		Status:         domain.WebhookStatusPending,
		NextAttemptAt:  s.now(),
	}
	if err := s.webhookRepo.Create(ctx, tx, delivery); err != nil {
		return fmt.Errorf("failed to enqueue webhook: %w", err)
	}
	return nil
}

// submissionBlocked explains why a profile cannot be submitted, or returns nil
func submissionBlocked(p *domain.BusinessProfile) error {
	switch p.VerificationStatus {
	case domain.VerificationStatusPending:
		return ErrVerificationPending
	case domain.VerificationStatusVerified:
		return ErrAlreadyVerified
	case domain.VerificationStatusRejected:
		if p.AttemptCount >= domain.MaxVerificationAttempts {
			return ErrAttemptsExhausted
		}
		return nil
	default:
		return ErrConflict
	}
}

func submissionOutcome(err error) string {
	switch {
	case errors.Is(err, ErrVerificationPending):
		return "already_pending"
	case errors.Is(err, ErrAlreadyVerified):
		return "already_verified"
	case errors.Is(err, ErrAttemptsExhausted):
		return "attempts_exhausted"
	default:
		return "error"
	}
}
