package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/database"
	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an isolated in-memory SQLite database with the full
// schema migrated. The connection is closed when the test ends.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		TranslateError: true,
	})
	require.NoError(t, err, "failed to open sqlite test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the shared in-memory database alive and
	// serialises writers the way SQLite requires.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

// CreateTestUser inserts a user of the given type
func CreateTestUser(t *testing.T, db *gorm.DB, email string, userType domain.UserType) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	user := &domain.User{
		Email:           email,
		UserType:        userType,
		TermsAcceptedAt: &now,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateVerifiedBusiness inserts a business user with a verified profile
func CreateVerifiedBusiness(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	user := CreateTestUser(t, db, email, domain.UserTypeBusiness)
	profile := &domain.BusinessProfile{
		UserID:             user.ID,
		CompanyEmail:       email,
		CompanyWebsite:     "https://example.com",
		VerificationStatus: domain.VerificationStatusVerified,
		AttemptCount:       1,
		SubmittedAt:        time.Now().UTC(),
	}
	require.NoError(t, db.Create(profile).Error)
	return user
}

// CreateTestPost inserts a post owned by userID
func CreateTestPost(t *testing.T, db *gorm.DB, userID uuid.UUID, title string, status domain.PostStatus, expiresAt time.Time) *domain.BusinessPost {
	t.Helper()
	post := &domain.BusinessPost{
		UserID:          userID,
		ProjectTitle:    title,
		CompanyName:     "Acme",
		AutomationNeeds: "Invoice processing",
		ContactEmail:    "ops@acme.example",
		Status:          status,
		ExpiresAt:       expiresAt,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

// CreateTestCreator inserts a creator user with a profile
func CreateTestCreator(t *testing.T, db *gorm.DB, email, fullName, title string, solutionsFor []string) (*domain.User, *domain.CreatorProfile) {
	t.Helper()
	user := CreateTestUser(t, db, email, domain.UserTypeCreator)
	profile := &domain.CreatorProfile{
		UserID:       user.ID,
		Username:     email,
		FullName:     fullName,
		Title:        title,
		Languages:    []string{"English"},
		ToolsSkills:  []string{"n8n"},
		SolutionsFor: solutionsFor,
	}
	profile.ID = user.ID
	require.NoError(t, db.Create(profile).Error)
	return user, profile
}
