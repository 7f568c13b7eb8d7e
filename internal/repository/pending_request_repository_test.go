package repository_test

import (
	"context"
	"testing"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/repository"
	"github.com/aimarketspace/marketplace-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingRequestRepository_DeleteByUserIDIsScoped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPendingRequestRepository(db)
	ctx := context.Background()

	biz := testutil.CreateVerifiedBusiness(t, db, "biz@acme.example")
	other := testutil.CreateVerifiedBusiness(t, db, "other@acme.example")
	_, creator := testutil.CreateTestCreator(t, db, "ada@example.com", "Ada", "Engineer", []string{"sales"})

	require.NoError(t, repo.Create(ctx, &domain.PendingRequest{UserID: biz.ID, CreatorProfileID: creator.ID, Message: "hi", Status: domain.RequestStatusPending}))
	require.NoError(t, repo.Create(ctx, &domain.PendingRequest{UserID: other.ID, CreatorProfileID: creator.ID, Message: "hello", Status: domain.RequestStatusPending}))

	n, err := repo.DeleteByUserID(ctx, nil, biz.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	remaining, err := repo.ListByCreator(ctx, creator.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, other.ID, remaining[0].UserID)
}

func TestPendingRequestRepository_DeleteByUserIDKeepsIncomingRequests(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewPendingRequestRepository(db)
	ctx := context.Background()

	biz := testutil.CreateVerifiedBusiness(t, db, "biz@acme.example")
	creatorUser, creator := testutil.CreateTestCreator(t, db, "ada@example.com", "Ada", "Engineer", []string{"sales"})
	require.NoError(t, repo.Create(ctx, &domain.PendingRequest{UserID: biz.ID, CreatorProfileID: creator.ID, Message: "hi", Status: domain.RequestStatusPending}))

	n, err := repo.DeleteByUserID(ctx, nil, creatorUser.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	remaining, err := repo.ListByCreator(ctx, creator.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, biz.ID, remaining[0].UserID)
}
