package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/auth"
	"github.com/aimarketspace/marketplace-api/internal/config"
	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSessions struct {
	active map[uuid.UUID]bool
	err    error
}

func (f *fakeSessions) SessionActive(_ context.Context, id uuid.UUID) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.active[id], nil
}

func newTokens() *auth.TokenManager {
	return auth.NewTokenManager(&config.AuthConfig{
		JWTSecret: "test-secret-with-enough-length",
		Issuer:    "marketplace-api",
	})
}

func issue(t *testing.T, m *auth.TokenManager, userType domain.UserType, sessionID uuid.UUID, exp time.Time) (*domain.User, string) {
	t.Helper()
	user := &domain.User{Email: "ada@example.com", UserType: userType}
	user.ID = uuid.New()
	token, err := m.Issue(user, sessionID, time.Now().Add(-time.Minute), exp)
	require.NoError(t, err)
	return user, token
}

func okHandler(captured **auth.UserContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			*captured, _ = auth.FromContext(r.Context())
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m := newTokens()
	sessionID := uuid.New()
	user, token := issue(t, m, domain.UserTypeBusiness, sessionID, time.Now().Add(time.Hour))

	userCtx, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userCtx.UserID)
	assert.Equal(t, sessionID, userCtx.SessionID)
	assert.Equal(t, domain.UserTypeBusiness, userCtx.UserType)
	assert.Equal(t, "ada@example.com", userCtx.Email)
}

func TestTokenManager_Expired(t *testing.T) {
	m := newTokens()
	_, token := issue(t, m, domain.UserTypeCreator, uuid.New(), time.Now().Add(-time.Second))

	_, err := m.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestTokenManager_RejectsForeignSignature(t *testing.T) {
	other := auth.NewTokenManager(&config.AuthConfig{JWTSecret: "another-secret-of-some-length", Issuer: "marketplace-api"})
	_, token := issue(t, other, domain.UserTypeCreator, uuid.New(), time.Now().Add(time.Hour))

	_, err := newTokens().ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":       uuid.NewString(),
		"jti":       uuid.NewString(),
		"iss":       "marketplace-api",
		"user_type": "creator",
		"exp":       time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTokens().ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestMiddleware_Authenticate_ActiveSession(t *testing.T) {
	m := newTokens()
	sessionID := uuid.New()
	user, token := issue(t, m, domain.UserTypeCreator, sessionID, time.Now().Add(time.Hour))
	mw := auth.NewMiddleware(m, &fakeSessions{active: map[uuid.UUID]bool{sessionID: true}}, "", zap.NewNop())

	var captured *auth.UserContext
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Authenticate(okHandler(&captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, user.ID, captured.UserID)
	assert.False(t, captured.IsSystem)
}

func TestMiddleware_Authenticate_RevokedSession(t *testing.T) {
	m := newTokens()
	_, token := issue(t, m, domain.UserTypeCreator, uuid.New(), time.Now().Add(time.Hour))
	mw := auth.NewMiddleware(m, &fakeSessions{active: map[uuid.UUID]bool{}}, "", zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Authenticate(okHandler(nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"unauthorized"`)
}

func TestMiddleware_Authenticate_SessionLookupError(t *testing.T) {
	m := newTokens()
	_, token := issue(t, m, domain.UserTypeCreator, uuid.New(), time.Now().Add(time.Hour))
	mw := auth.NewMiddleware(m, &fakeSessions{err: errors.New("db down")}, "", zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Authenticate(okHandler(nil)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_Authenticate_MissingHeader(t *testing.T) {
	mw := auth.NewMiddleware(newTokens(), nil, "", zap.NewNop())

	for _, header := range []string{"", "Basic abc", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		mw.Authenticate(okHandler(nil)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestMiddleware_APIKey(t *testing.T) {
	mw := auth.NewMiddleware(newTokens(), nil, "system-key-123", zap.NewNop())

	var captured *auth.UserContext
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/verifications/x/review", nil)
	req.Header.Set("x-api-key", "system-key-123")
	rec := httptest.NewRecorder()
	mw.Authenticate(mw.RequireSystem(okHandler(&captured))).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.True(t, captured.IsSystem)
	assert.Equal(t, "system", captured.Actor())

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("x-api-key", "wrong")
	rec = httptest.NewRecorder()
	mw.Authenticate(okHandler(nil)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_EmptyAPIKeyNeverMatches(t *testing.T) {
	mw := auth.NewMiddleware(newTokens(), nil, "", zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("x-api-key", "anything")
	rec := httptest.NewRecorder()
	mw.Authenticate(okHandler(nil)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_RequireSystem_RejectsUsers(t *testing.T) {
	m := newTokens()
	sessionID := uuid.New()
	_, token := issue(t, m, domain.UserTypeBusiness, sessionID, time.Now().Add(time.Hour))
	mw := auth.NewMiddleware(m, &fakeSessions{active: map[uuid.UUID]bool{sessionID: true}}, "k", zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Authenticate(mw.RequireSystem(okHandler(nil))).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMiddleware_RequireUserType(t *testing.T) {
	m := newTokens()
	sessionID := uuid.New()
	_, token := issue(t, m, domain.UserTypeCreator, sessionID, time.Now().Add(time.Hour))
	mw := auth.NewMiddleware(m, &fakeSessions{active: map[uuid.UUID]bool{sessionID: true}}, "", zap.NewNop())

	run := func(h http.Handler) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		mw.Authenticate(h).ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, run(mw.RequireUserType(domain.UserTypeCreator)(okHandler(nil))))
	assert.Equal(t, http.StatusForbidden, run(mw.RequireUserType(domain.UserTypeBusiness)(okHandler(nil))))
}

func TestMiddleware_OptionalAuthenticate(t *testing.T) {
	m := newTokens()
	sessionID := uuid.New()
	user, token := issue(t, m, domain.UserTypeCreator, sessionID, time.Now().Add(time.Hour))
	mw := auth.NewMiddleware(m, &fakeSessions{active: map[uuid.UUID]bool{sessionID: true}}, "", zap.NewNop())

	var captured *auth.UserContext
	req := httptest.NewRequest(http.MethodPost, "/api/v1/consent", nil)
	rec := httptest.NewRecorder()
	mw.OptionalAuthenticate(okHandler(&captured)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, captured)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/consent", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	mw.OptionalAuthenticate(okHandler(&captured)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, captured)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/consent", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	mw.OptionalAuthenticate(okHandler(&captured)).ServeHTTP(rec, req)
	require.NotNil(t, captured)
	assert.Equal(t, user.ID, captured.UserID)
}
