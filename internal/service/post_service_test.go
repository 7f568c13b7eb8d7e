package service

import (
	"context"
	"testing"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/config"
	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/repository"
	"github.com/aimarketspace/marketplace-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newPostService(t *testing.T) (*PostService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	verification := NewVerificationService(
		repository.NewBusinessProfileRepository(db),
		repository.NewVerificationEventRepository(db),
		repository.NewWebhookDeliveryRepository(db),
		"contact@aimeetplace.com",
		zap.NewNop(),
		db,
	)
	svc := NewPostService(
		repository.NewBusinessPostRepository(db),
		verification,
		&config.PostsConfig{DefaultTTLDays: 30, MaxTTLDays: 90},
		zap.NewNop(),
	)
	return svc, db
}

func postRequest() *domain.CreatePostRequest {
	return &domain.CreatePostRequest{
		ProjectTitle:    "Invoice automation",
		CompanyName:     "Acme",
		AutomationNeeds: "Extract invoices from email into the ERP",
		ContactEmail:    "ops@acme.example",
	}
}

func TestPostService_CreateRequiresVerification(t *testing.T) {
	svc, db := newPostService(t)

	unverified := testutil.CreateTestUser(t, db, "new@acme.example", domain.UserTypeBusiness)
	_, err := svc.Create(asUser(unverified), postRequest())
	assert.ErrorIs(t, err, ErrVerificationRequired)

	creator := testutil.CreateTestUser(t, db, "creator@example.com", domain.UserTypeCreator)
	_, err = svc.Create(asUser(creator), postRequest())
	assert.ErrorIs(t, err, ErrNotBusinessUser)
}

func TestPostService_CreateDefaultsExpiry(t *testing.T) {
	svc, db := newPostService(t)
	user := testutil.CreateVerifiedBusiness(t, db, "ops@acme.example")
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc.now = fixedClock(now)

	post, err := svc.Create(asUser(user), postRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.PostStatusActive, post.Status)
	assert.Equal(t, "2026-05-01T09:00:00Z", post.ExpiresAt)
	assert.False(t, post.IsExpired)
}

func TestPostService_CreateValidatesExpiry(t *testing.T) {
	svc, db := newPostService(t)
	user := testutil.CreateVerifiedBusiness(t, db, "ops@acme.example")
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	svc.now = fixedClock(now)

	for _, expiry := range []string{"not-a-date", "2026-03-31T09:00:00Z", "2026-04-01T09:00:00Z", "2026-07-01T09:00:00Z"} {
		req := postRequest()
		req.ExpiresAt = &expiry
		_, err := svc.Create(asUser(user), req)
		assert.ErrorIs(t, err, ErrInvalidExpiry, expiry)
	}

	ok := "2026-04-15T12:00:00+02:00"
	req := postRequest()
	req.ExpiresAt = &ok
	post, err := svc.Create(asUser(user), req)
	require.NoError(t, err)
	assert.Equal(t, "2026-04-15T10:00:00Z", post.ExpiresAt)
}

func TestPostService_PublicListingHidesExpired(t *testing.T) {
	svc, db := newPostService(t)
	user := testutil.CreateVerifiedBusiness(t, db, "ops@acme.example")
	now := time.Now().UTC()

	testutil.CreateTestPost(t, db, user.ID, "live", domain.PostStatusActive, now.Add(time.Hour))
	// Stored as active but past its expiry
	testutil.CreateTestPost(t, db, user.ID, "stale", domain.PostStatusActive, now.Add(-time.Minute))
	testutil.CreateTestPost(t, db, user.ID, "archived", domain.PostStatusArchived, now.Add(time.Hour))

	page, err := svc.ListActive(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	posts := page.Data.([]domain.BusinessPostDTO)
	require.Len(t, posts, 1)
	assert.Equal(t, "live", posts[0].ProjectTitle)

	has, err := svc.HasActive(context.Background())
	require.NoError(t, err)
	assert.True(t, has)
}

func TestPostService_ListMineArchivesExpired(t *testing.T) {
	svc, db := newPostService(t)
	user := testutil.CreateVerifiedBusiness(t, db, "ops@acme.example")
	other := testutil.CreateVerifiedBusiness(t, db, "other@example.com")
	now := time.Now().UTC()

	stale := testutil.CreateTestPost(t, db, user.ID, "stale", domain.PostStatusActive, now.Add(-time.Minute))
	testutil.CreateTestPost(t, db, user.ID, "live", domain.PostStatusActive, now.Add(time.Hour))
	othersStale := testutil.CreateTestPost(t, db, other.ID, "theirs", domain.PostStatusActive, now.Add(-time.Minute))

	active, err := svc.ListMine(asUser(user), PostTabActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "live", active[0].ProjectTitle)

	archived, err := svc.ListMine(asUser(user), PostTabArchived)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, stale.ID, archived[0].ID)
	assert.True(t, archived[0].IsExpired)

	var theirs domain.BusinessPost
	require.NoError(t, db.First(&theirs, "id = ?", othersStale.ID).Error)
	assert.Equal(t, domain.PostStatusActive, theirs.Status)

	_, err = svc.ListMine(asUser(user), "bogus")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPostService_UpdateReactivates(t *testing.T) {
	svc, db := newPostService(t)
	user := testutil.CreateVerifiedBusiness(t, db, "ops@acme.example")
	now := time.Now().UTC()
	post := testutil.CreateTestPost(t, db, user.ID, "old", domain.PostStatusArchived, now.Add(-time.Hour))

	req := postRequest()
	req.ProjectTitle = "renewed"
	updated, err := svc.Update(asUser(user), post.ID, req)
	require.NoError(t, err)
	assert.Equal(t, domain.PostStatusActive, updated.Status)
	assert.Equal(t, "renewed", updated.ProjectTitle)
	assert.False(t, updated.IsExpired)
}

func TestPostService_OwnerOnly(t *testing.T) {
	svc, db := newPostService(t)
	owner := testutil.CreateVerifiedBusiness(t, db, "ops@acme.example")
	intruder := testutil.CreateVerifiedBusiness(t, db, "intruder@example.com")
	post := testutil.CreateTestPost(t, db, owner.ID, "mine", domain.PostStatusActive, time.Now().UTC().Add(time.Hour))

	_, err := svc.Update(asUser(intruder), post.ID, postRequest())
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, svc.Archive(asUser(intruder), post.ID), ErrNotFound)
	assert.ErrorIs(t, svc.Delete(asUser(intruder), post.ID), ErrNotFound)

	require.NoError(t, svc.Archive(asUser(owner), post.ID))

	// Archived posts are only visible to their owner
	_, err = svc.GetByID(asUser(intruder), post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetByID(context.Background(), post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	dto, err := svc.GetByID(asUser(owner), post.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PostStatusArchived, dto.Status)

	require.NoError(t, svc.Delete(asUser(owner), post.ID))
	_, err = svc.GetByID(asUser(owner), post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostService_GetByIDHidesExpiredBeforeArchive(t *testing.T) {
	svc, db := newPostService(t)
	owner := testutil.CreateVerifiedBusiness(t, db, "ops@acme.example")
	other := testutil.CreateVerifiedBusiness(t, db, "other@example.com")
	now := time.Now().UTC()
	svc.now = fixedClock(now)
	post := testutil.CreateTestPost(t, db, owner.ID, "stale", domain.PostStatusActive, now.Add(-time.Hour))

	_, err := svc.GetByID(context.Background(), post.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetByID(asUser(other), post.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	dto, err := svc.GetByID(asUser(owner), post.ID)
	require.NoError(t, err)
	assert.True(t, dto.IsExpired)
}

func TestPostService_ArchiveExpiredJob(t *testing.T) {
	svc, db := newPostService(t)
	user := testutil.CreateVerifiedBusiness(t, db, "ops@acme.example")
	now := time.Now().UTC()
	testutil.CreateTestPost(t, db, user.ID, "a", domain.PostStatusActive, now.Add(-time.Hour))
	testutil.CreateTestPost(t, db, user.ID, "b", domain.PostStatusActive, now.Add(-time.Second))
	testutil.CreateTestPost(t, db, user.ID, "c", domain.PostStatusActive, now.Add(time.Hour))

	svc.now = fixedClock(now)
	n, err := svc.ArchiveExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
