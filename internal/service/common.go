package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/auth"
	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Clock returns the current time; services default to UTC wall time
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// Redirect targets returned after sign-in
const (
	RedirectDashboard            = "dashboard"
	RedirectBusinessVerification = "business-verification"
)

func requireUser(ctx context.Context) (*auth.UserContext, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok || userCtx.IsSystem {
		return nil, ErrUnauthorized
	}
	return userCtx, nil
}

func requireBusiness(ctx context.Context) (*auth.UserContext, error) {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !userCtx.IsBusiness() {
		return nil, ErrNotBusinessUser
	}
	return userCtx, nil
}

func requireCreator(ctx context.Context) (*auth.UserContext, error) {
	userCtx, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if !userCtx.IsCreator() {
		return nil, ErrNotCreator
	}
	return userCtx, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func totalPages(total int64, pageSize int) int {
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

// userTypeResolver works out which side of the marketplace an account is
// on. A creator profile wins, then a verified business profile, then the
// type stored at sign-up.
type userTypeResolver struct {
	creatorRepo  *repository.CreatorProfileRepository
	businessRepo *repository.BusinessProfileRepository
}

type resolvedUser struct {
	UserType          domain.UserType
	HasCreatorProfile bool
	Business          *domain.BusinessProfile
}

func (r userTypeResolver) resolve(ctx context.Context, userID uuid.UUID, stored domain.UserType) (*resolvedUser, error) {
	hasCreator, err := r.creatorRepo.ExistsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check creator profile: %w", err)
	}

	business, err := r.businessRepo.GetByUserID(ctx, nil, userID)
	if err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("failed to load business profile: %w", err)
	}
	if isNotFound(err) {
		business = nil
	}

	resolved := &resolvedUser{
		UserType:          stored,
		HasCreatorProfile: hasCreator,
		Business:          business,
	}
	switch {
	case hasCreator:
		resolved.UserType = domain.UserTypeCreator
	case business != nil && business.VerificationStatus == domain.VerificationStatusVerified:
		resolved.UserType = domain.UserTypeBusiness
	}
	return resolved, nil
}

// redirect picks the client route after sign-in: businesses that are not
// verified yet land on the verification screen
func (r *resolvedUser) redirect() string {
	if r.UserType == domain.UserTypeBusiness &&
		domain.StatusOf(r.Business) != domain.VerificationStatusVerified {
		return RedirectBusinessVerification
	}
	return RedirectDashboard
}
