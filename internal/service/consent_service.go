package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aimarketspace/marketplace-api/internal/auth"
	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/mapper"
	"github.com/aimarketspace/marketplace-api/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConsentService keeps the cookie consent audit trail
type ConsentService struct {
	consentRepo *repository.ConsentRepository
	logger      *zap.Logger
}

func NewConsentService(consentRepo *repository.ConsentRepository, logger *zap.Logger) *ConsentService {
	return &ConsentService{consentRepo: consentRepo, logger: logger}
}

// Record appends a consent choice. Signed-in visitors are keyed by user ID,
// anonymous ones by their session ID.
func (s *ConsentService) Record(ctx context.Context, req *domain.RecordConsentRequest, ipAddress, userAgent string) (*domain.ConsentDTO, error) {
	userID, sessionID, err := consentSubject(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	entry := &domain.CookieConsentLog{
		UserID:        userID,
		SessionID:     sessionID,
		Essential:     true,
		Analytics:     req.Analytics,
		Marketing:     req.Marketing,
		PolicyVersion: domain.CurrentConsentPolicyVersion,
		IPAddress:     truncate(ipAddress, 64),
		UserAgent:     truncate(userAgent, 500),
	}
	if err := s.consentRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record consent: %w", err)
	}

	dto := mapper.ToConsentDTO(entry)
	return &dto, nil
}

// Latest returns the most recent choice for the visitor
func (s *ConsentService) Latest(ctx context.Context, sessionID string) (*domain.ConsentDTO, error) {
	userID, sessionID, err := consentSubject(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	entry, err := s.consentRepo.Latest(ctx, userID, sessionID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load consent: %w", err)
	}
	dto := mapper.ToConsentDTO(entry)
	return &dto, nil
}

func consentSubject(ctx context.Context, sessionID string) (*uuid.UUID, string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if userCtx, ok := auth.FromContext(ctx); ok && !userCtx.IsSystem {
		id := userCtx.UserID
		return &id, sessionID, nil
	}
	if sessionID == "" {
		return nil, "", ErrSessionRequired
	}
	return nil, sessionID, nil
}
