package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/http/handler"
	"github.com/aimarketspace/marketplace-api/internal/repository"
	"github.com/aimarketspace/marketplace-api/internal/service"
	"github.com/aimarketspace/marketplace-api/internal/storage"
	"github.com/aimarketspace/marketplace-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var pngHeader = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

func createCreatorHandler(t *testing.T) (*handler.CreatorHandler, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/media")
	require.NoError(t, err)
	svc := service.NewCreatorService(repository.NewCreatorProfileRepository(db), store, 1, zap.NewNop())
	return handler.NewCreatorHandler(svc, zap.NewNop()), db
}

func multipartAvatar(t *testing.T, ctx context.Context, field string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, "avatar.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/me/creator-profile/avatar", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req.WithContext(ctx)
}

func TestCreatorHandler_List(t *testing.T) {
	h, db := createCreatorHandler(t)
	testutil.CreateTestCreator(t, db, "ada@example.com", "Ada", "Automation engineer", []string{"Sales"})
	testutil.CreateTestCreator(t, db, "bob@example.com", "Bob", "Integrator", []string{"Finance"})
	testutil.CreateTestCreator(t, db, "eve@example.com", "", "", []string{"Sales"})

	t.Run("by category", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.List(rr, httptest.NewRequest(http.MethodGet, "/creators?category=Sales", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var profiles []domain.CreatorProfileDTO
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profiles))
		require.Len(t, profiles, 1)
		assert.Equal(t, "Ada", profiles[0].FullName)
	})

	t.Run("all complete profiles", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.List(rr, httptest.NewRequest(http.MethodGet, "/creators", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var page domain.PaginatedResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
		assert.Equal(t, int64(2), page.Total)
	})
}

func TestCreatorHandler_UpsertAndGet(t *testing.T) {
	h, db := createCreatorHandler(t)
	user := testutil.CreateTestUser(t, db, "ada@example.com", domain.UserTypeCreator)
	ctx := userContext(user)

	rr := httptest.NewRecorder()
	h.GetMine(rr, httptest.NewRequest(http.MethodGet, "/me/creator-profile", nil).WithContext(ctx))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	h.Upsert(rr, jsonRequest(t, ctx, http.MethodPut, "/me/creator-profile", domain.UpsertCreatorProfileRequest{
		FullName:     "Ada Lovelace",
		Title:        "Automation engineer",
		SolutionsFor: []string{"Sales"},
		VideoURL:     "https://youtu.be/dQw4w9WgXcQ",
	}))
	require.Equal(t, http.StatusOK, rr.Code)

	var profile domain.CreatorProfileDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	assert.Equal(t, user.ID, profile.ID)
	assert.Equal(t, "https://img.youtube.com/vi/dQw4w9WgXcQ/mqdefault.jpg", profile.VideoThumbnailURL)

	rr = httptest.NewRecorder()
	getCtx := withURLParams(context.Background(), map[string]string{"id": user.ID.String()})
	h.GetByID(rr, httptest.NewRequest(http.MethodGet, "/creators/"+user.ID.String(), nil).WithContext(getCtx))
	assert.Equal(t, http.StatusOK, rr.Code)

	t.Run("business cannot edit creator profile", func(t *testing.T) {
		business := testutil.CreateTestUser(t, db, "ops@acme.example", domain.UserTypeBusiness)
		rr := httptest.NewRecorder()
		h.Upsert(rr, jsonRequest(t, userContext(business), http.MethodPut, "/me/creator-profile",
			domain.UpsertCreatorProfileRequest{FullName: "Acme"}))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestCreatorHandler_UploadAvatar(t *testing.T) {
	h, db := createCreatorHandler(t)
	user, _ := testutil.CreateTestCreator(t, db, "ada@example.com", "Ada", "Engineer", []string{"Sales"})
	ctx := userContext(user)

	t.Run("png accepted", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.UploadAvatar(rr, multipartAvatar(t, ctx, "avatar", pngHeader))

		require.Equal(t, http.StatusOK, rr.Code)
		var resp domain.AvatarUploadResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, strings.HasPrefix(resp.AvatarURL, "http://localhost:8080/media/avatars/avatar-"+user.ID.String()))
	})

	t.Run("text rejected", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.UploadAvatar(rr, multipartAvatar(t, ctx, "avatar", []byte("just some text, not an image")))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("wrong field", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.UploadAvatar(rr, multipartAvatar(t, ctx, "file", pngHeader))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Missing avatar file", decodeAPIError(t, rr).Detail)
	})
}
