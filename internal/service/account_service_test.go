package service

import (
	"testing"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/repository"
	"github.com/aimarketspace/marketplace-api/internal/storage"
	"github.com/aimarketspace/marketplace-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAccountService(t *testing.T) (*AccountService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/media")
	require.NoError(t, err)
	svc := NewAccountService(
		repository.NewUserRepository(db),
		repository.NewBusinessPostRepository(db),
		repository.NewCreatorProfileRepository(db),
		repository.NewBusinessProfileRepository(db),
		repository.NewVerificationEventRepository(db),
		repository.NewPendingRequestRepository(db),
		repository.NewSessionRepository(db),
		store,
		zap.NewNop(),
		db,
	)
	return svc, db
}

func count(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func TestAccountService_RequiresConfirmation(t *testing.T) {
	svc, db := newAccountService(t)
	user := testutil.CreateVerifiedBusiness(t, db, "ops@acme.example")

	for _, c := range []string{"", "delete", "DELETE ", "yes"} {
		err := svc.DeleteAccount(asUser(user), &domain.DeleteAccountRequest{Confirmation: c})
		assert.ErrorIs(t, err, ErrConfirmationMismatch, c)
	}
	assert.Equal(t, int64(1), count(t, db, &domain.BusinessProfile{}, "user_id = ?", user.ID))
}

func TestAccountService_DeletesOnlyOwnData(t *testing.T) {
	svc, db := newAccountService(t)
	now := time.Now().UTC()

	victim := testutil.CreateVerifiedBusiness(t, db, "ops@acme.example")
	bystander := testutil.CreateVerifiedBusiness(t, db, "other@example.com")
	_, creator := testutil.CreateTestCreator(t, db, "ada@example.com", "Ada", "Engineer", []string{"Sales"})

	testutil.CreateTestPost(t, db, victim.ID, "mine", domain.PostStatusActive, now.Add(time.Hour))
	testutil.CreateTestPost(t, db, bystander.ID, "theirs", domain.PostStatusActive, now.Add(time.Hour))
	require.NoError(t, db.Create(&domain.PendingRequest{UserID: victim.ID, CreatorProfileID: creator.ID, Message: "hi", Status: domain.RequestStatusPending}).Error)
	require.NoError(t, db.Create(&domain.PendingRequest{UserID: bystander.ID, CreatorProfileID: creator.ID, Message: "hi", Status: domain.RequestStatusPending}).Error)
	require.NoError(t, db.Create(&domain.Session{UserID: victim.ID, ExpiresAt: now.Add(time.Hour)}).Error)
	require.NoError(t, db.Create(&domain.Session{UserID: bystander.ID, ExpiresAt: now.Add(time.Hour)}).Error)

	require.NoError(t, svc.DeleteAccount(asUser(victim), &domain.DeleteAccountRequest{Confirmation: DeleteConfirmation}))

	assert.Zero(t, count(t, db, &domain.BusinessPost{}, "user_id = ?", victim.ID))
	assert.Zero(t, count(t, db, &domain.BusinessProfile{}, "user_id = ?", victim.ID))
	assert.Zero(t, count(t, db, &domain.PendingRequest{}, "user_id = ?", victim.ID))
	assert.Zero(t, count(t, db, &domain.Session{}, "user_id = ? AND revoked_at IS NULL", victim.ID))

	assert.Equal(t, int64(1), count(t, db, &domain.BusinessPost{}, "user_id = ?", bystander.ID))
	assert.Equal(t, int64(1), count(t, db, &domain.BusinessProfile{}, "user_id = ?", bystander.ID))
	assert.Equal(t, int64(1), count(t, db, &domain.PendingRequest{}, "user_id = ?", bystander.ID))
	assert.Equal(t, int64(1), count(t, db, &domain.Session{}, "user_id = ? AND revoked_at IS NULL", bystander.ID))
	assert.Equal(t, int64(1), count(t, db, &domain.CreatorProfile{}, "id = ?", creator.ID))
}

func TestAccountService_CreatorDeletionOnlyTouchesOwnRows(t *testing.T) {
	svc, db := newAccountService(t)
	business := testutil.CreateVerifiedBusiness(t, db, "ops@acme.example")
	user, creator := testutil.CreateTestCreator(t, db, "ada@example.com", "Ada", "Engineer", []string{"Sales"})
	require.NoError(t, db.Create(&domain.PendingRequest{UserID: business.ID, CreatorProfileID: creator.ID, Message: "hi", Status: domain.RequestStatusPending}).Error)

	require.NoError(t, svc.DeleteAccount(asUser(user), &domain.DeleteAccountRequest{Confirmation: DeleteConfirmation}))

	assert.Zero(t, count(t, db, &domain.CreatorProfile{}, "user_id = ?", user.ID))
	// The business's own request row is not deleted by the service
	assert.Equal(t, int64(1), count(t, db, &domain.PendingRequest{}, "user_id = ?", business.ID))
}

func TestAccountService_ResolveUserType(t *testing.T) {
	svc, db := newAccountService(t)

	// Stored as business but owns a creator profile
	user := testutil.CreateTestUser(t, db, "switch@example.com", domain.UserTypeBusiness)
	profile := &domain.CreatorProfile{UserID: user.ID, Username: user.Email}
	profile.ID = user.ID
	require.NoError(t, db.Create(profile).Error)

	userType, err := svc.ResolveUserType(asUser(user))
	require.NoError(t, err)
	assert.Equal(t, domain.UserTypeCreator, userType)

	plain := testutil.CreateTestUser(t, db, "plain@example.com", domain.UserTypeBusiness)
	userType, err = svc.ResolveUserType(asUser(plain))
	require.NoError(t, err)
	assert.Equal(t, domain.UserTypeBusiness, userType)
}
