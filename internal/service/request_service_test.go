package service

import (
	"testing"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/repository"
	"github.com/aimarketspace/marketplace-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRequestService_Flow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewRequestService(repository.NewPendingRequestRepository(db), repository.NewCreatorProfileRepository(db), zap.NewNop())

	business := testutil.CreateVerifiedBusiness(t, db, "ops@acme.example")
	creatorUser, creator := testutil.CreateTestCreator(t, db, "ada@example.com", "Ada", "Engineer", []string{"Sales"})

	created, err := svc.Create(asUser(business), creator.ID, &domain.CreatePendingRequestRequest{Message: "  Can you help?  "})
	require.NoError(t, err)
	assert.Equal(t, "Can you help?", created.Message)
	assert.Equal(t, domain.RequestStatusPending, created.Status)

	_, err = svc.Create(asUser(business), creator.ID, &domain.CreatePendingRequestRequest{Message: "again"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Create(asUser(business), uuid.New(), &domain.CreatePendingRequestRequest{Message: "hi"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Create(asUser(creatorUser), creator.ID, &domain.CreatePendingRequestRequest{Message: "hi"})
	assert.ErrorIs(t, err, ErrNotBusinessUser)

	mine, err := svc.ListMine(asUser(business))
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	incoming, err := svc.ListIncoming(asUser(creatorUser))
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, business.ID, incoming[0].UserID)

	_, err = svc.ListIncoming(asUser(business))
	assert.ErrorIs(t, err, ErrNotCreator)
}
