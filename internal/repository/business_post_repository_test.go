package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/repository"
	"github.com/aimarketspace/marketplace-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessPostRepository_ListActiveExcludesExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewBusinessPostRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	owner := testutil.CreateVerifiedBusiness(t, db, "owner@acme.example")
	testutil.CreateTestPost(t, db, owner.ID, "live", domain.PostStatusActive, now.Add(24*time.Hour))
	testutil.CreateTestPost(t, db, owner.ID, "stale-but-active", domain.PostStatusActive, now.Add(-time.Hour))
	testutil.CreateTestPost(t, db, owner.ID, "archived", domain.PostStatusArchived, now.Add(24*time.Hour))

	posts, total, err := repo.ListActive(ctx, now, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)
	assert.Equal(t, "live", posts[0].ProjectTitle)

	hasActive, err := repo.HasActive(ctx, now)
	require.NoError(t, err)
	assert.True(t, hasActive)
}

func TestBusinessPostRepository_ArchiveExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewBusinessPostRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	a := testutil.CreateVerifiedBusiness(t, db, "a@acme.example")
	b := testutil.CreateVerifiedBusiness(t, db, "b@acme.example")
	testutil.CreateTestPost(t, db, a.ID, "a-expired", domain.PostStatusActive, now.Add(-time.Hour))
	testutil.CreateTestPost(t, db, b.ID, "b-expired", domain.PostStatusActive, now.Add(-time.Hour))
	testutil.CreateTestPost(t, db, b.ID, "b-live", domain.PostStatusActive, now.Add(time.Hour))

	n, err := repo.ArchiveExpired(ctx, now, &a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.ArchiveExpired(ctx, now, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	posts, err := repo.ListByUser(ctx, b.ID, []domain.PostStatus{domain.PostStatusActive})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "b-live", posts[0].ProjectTitle)
}

func TestBusinessPostRepository_OwnerScopedMutations(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewBusinessPostRepository(db)
	ctx := context.Background()

	owner := testutil.CreateVerifiedBusiness(t, db, "owner@acme.example")
	post := testutil.CreateTestPost(t, db, owner.ID, "mine", domain.PostStatusActive, time.Now().UTC().Add(time.Hour))

	stranger := uuid.New()
	assert.Error(t, repo.UpdateStatus(ctx, post.ID, stranger, domain.PostStatusArchived))
	assert.Error(t, repo.Delete(ctx, post.ID, stranger))

	require.NoError(t, repo.UpdateStatus(ctx, post.ID, owner.ID, domain.PostStatusArchived))
	require.NoError(t, repo.Delete(ctx, post.ID, owner.ID))

	_, err := repo.GetByID(ctx, post.ID)
	assert.Error(t, err)
}
