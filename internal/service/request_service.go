package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/mapper"
	"github.com/aimarketspace/marketplace-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestService handles contact requests from businesses to creators
type RequestService struct {
	requestRepo *repository.PendingRequestRepository
	creatorRepo *repository.CreatorProfileRepository
	logger      *zap.Logger
}

func NewRequestService(
	requestRepo *repository.PendingRequestRepository,
	creatorRepo *repository.CreatorProfileRepository,
	logger *zap.Logger,
) *RequestService {
	return &RequestService{
		requestRepo: requestRepo,
		creatorRepo: creatorRepo,
		logger:      logger,
	}
}

// Create sends a contact request to a creator. Only one open request per
// creator is allowed.
func (s *RequestService) Create(ctx context.Context, creatorID uuid.UUID, req *domain.CreatePendingRequestRequest) (*domain.PendingRequestDTO, error) {
	userCtx, err := requireBusiness(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.creatorRepo.GetByID(ctx, creatorID); err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get creator profile: %w", err)
	}

	open, err := s.requestRepo.CountOpen(ctx, userCtx.UserID, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to check open requests: %w", err)
	}
	if open > 0 {
		return nil, fmt.Errorf("%w: a request to this creator is already pending", ErrConflict)
	}

	pending := &domain.PendingRequest{
		UserID:           userCtx.UserID,
		CreatorProfileID: creatorID,
		Message:          strings.TrimSpace(req.Message),
		Status:           domain.RequestStatusPending,
	}
	if err := s.requestRepo.Create(ctx, pending); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	s.logger.Info("contact request created",
		zap.String("request_id", pending.ID.String()),
		zap.String("creator_id", creatorID.String()),
	)

	dto := mapper.ToPendingRequestDTO(pending)
	return &dto, nil
}

// ListMine returns requests the caller has sent
func (s *RequestService) ListMine(ctx context.Context) ([]domain.PendingRequestDTO, error) {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	requests, err := s.requestRepo.ListByUser(ctx, userCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return toRequestDTOs(requests), nil
}

// ListIncoming returns requests addressed to the caller's creator profile
func (s *RequestService) ListIncoming(ctx context.Context) ([]domain.PendingRequestDTO, error) {
	userCtx, err := requireCreator(ctx)
	if err != nil {
		return nil, err
	}
	requests, err := s.requestRepo.ListByCreator(ctx, userCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	return toRequestDTOs(requests), nil
}

func toRequestDTOs(requests []domain.PendingRequest) []domain.PendingRequestDTO {
	dtos := make([]domain.PendingRequestDTO, len(requests))
	for i := range requests {
		dtos[i] = mapper.ToPendingRequestDTO(&requests[i])
	}
	return dtos
}
