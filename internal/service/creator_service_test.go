package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/repository"
	"github.com/aimarketspace/marketplace-api/internal/storage"
	"github.com/aimarketspace/marketplace-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Smallest valid PNG header followed by padding; enough for content sniffing
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

func newCreatorService(t *testing.T) (*CreatorService, *storage.LocalStorage, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/media")
	require.NoError(t, err)
	svc := NewCreatorService(repository.NewCreatorProfileRepository(db), store, 1, zap.NewNop())
	return svc, store, db
}

func profileRequest() *domain.UpsertCreatorProfileRequest {
	return &domain.UpsertCreatorProfileRequest{
		FullName:     "Ada Lovelace",
		Title:        "Automation Engineer",
		Languages:    []string{"English"},
		ToolsSkills:  []string{"n8n", "Make"},
		SolutionsFor: []string{"Sales", "Finance"},
		VideoURL:     "https://youtu.be/dQw4w9WgXcQ",
	}
}

func TestCreatorService_Upsert(t *testing.T) {
	svc, _, db := newCreatorService(t)
	user := testutil.CreateTestUser(t, db, "ada@example.com", domain.UserTypeCreator)
	ctx := asUser(user)

	_, err := svc.GetMine(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	created, err := svc.Upsert(ctx, profileRequest())
	require.NoError(t, err)
	assert.Equal(t, user.ID, created.ID)
	assert.Equal(t, "ada@example.com", created.Username)
	assert.Equal(t, "https://img.youtube.com/vi/dQw4w9WgXcQ/mqdefault.jpg", created.VideoThumbnailURL)

	req := profileRequest()
	req.Title = "Senior Automation Engineer"
	updated, err := svc.Upsert(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Senior Automation Engineer", updated.Title)

	var count int64
	require.NoError(t, db.Model(&domain.CreatorProfile{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreatorService_BusinessCannotOwnProfile(t *testing.T) {
	svc, _, db := newCreatorService(t)
	user := testutil.CreateTestUser(t, db, "biz@example.com", domain.UserTypeBusiness)

	_, err := svc.Upsert(asUser(user), profileRequest())
	assert.ErrorIs(t, err, ErrNotCreator)
}

func TestCreatorService_UploadAvatar(t *testing.T) {
	svc, store, db := newCreatorService(t)
	user := testutil.CreateTestUser(t, db, "ada@example.com", domain.UserTypeCreator)
	ctx := asUser(user)

	_, err := svc.UploadAvatar(ctx, int64(len(pngBytes)), bytes.NewReader(pngBytes))
	assert.ErrorIs(t, err, ErrNotFound, "profile must exist first")

	_, err = svc.Upsert(ctx, profileRequest())
	require.NoError(t, err)

	resp, err := svc.UploadAvatar(ctx, int64(len(pngBytes)), bytes.NewReader(pngBytes))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.AvatarURL, "http://localhost:8080/media/avatars/avatar-"+user.ID.String()+"-"))
	assert.True(t, strings.HasSuffix(resp.AvatarURL, ".png"))

	key, ok := storage.KeyFromURL(store, resp.AvatarURL)
	require.True(t, ok)
	_, err = os.Stat(filepath.Join(store.BasePath(), key))
	assert.NoError(t, err)

	mine, err := svc.GetMine(ctx)
	require.NoError(t, err)
	assert.Equal(t, resp.AvatarURL, mine.AvatarURL)
}

func TestCreatorService_UploadAvatarRejectsNonImages(t *testing.T) {
	svc, _, db := newCreatorService(t)
	user := testutil.CreateTestUser(t, db, "ada@example.com", domain.UserTypeCreator)
	ctx := asUser(user)
	_, err := svc.Upsert(ctx, profileRequest())
	require.NoError(t, err)

	_, err = svc.UploadAvatar(ctx, 11, strings.NewReader("hello world"))
	assert.ErrorIs(t, err, ErrInvalidFile)

	_, err = svc.UploadAvatar(ctx, 2*1024*1024, bytes.NewReader(pngBytes))
	assert.ErrorIs(t, err, ErrInvalidFile)
}

func TestCreatorService_ListByCategory(t *testing.T) {
	svc, _, db := newCreatorService(t)
	testutil.CreateTestCreator(t, db, "a@example.com", "Ada", "Engineer", []string{"Sales"})
	testutil.CreateTestCreator(t, db, "b@example.com", "Bob", "Engineer", []string{"Sales Ops"})
	testutil.CreateTestCreator(t, db, "c@example.com", "", "Engineer", []string{"Sales"})

	creators, err := svc.ListByCategory(context.Background(), "Sales")
	require.NoError(t, err)
	require.Len(t, creators, 1)
	assert.Equal(t, "Ada", creators[0].FullName)

	_, err = svc.ListByCategory(context.Background(), " ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
