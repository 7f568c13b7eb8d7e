package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aimarketspace/marketplace-api/internal/auth"
	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/http/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func auditRouter(logger *zap.Logger, status int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NewAuditMiddleware(nil, logger).Audit)
	h := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(status) }
	r.Post("/api/v1/me/posts", h)
	r.Put("/api/v1/me/posts/{id}", h)
	r.Get("/api/v1/posts", h)
	r.Delete("/api/v1/me", h)
	r.Get("/health", h)
	return r
}

func TestAudit_LogsSuccessfulMutations(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := auditRouter(zap.New(core), http.StatusOK)

	userID := uuid.New()
	ctx := auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:   userID,
		Email:    "ops@acme.example",
		UserType: domain.UserTypeBusiness,
	})
	postID := uuid.New().String()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/me/posts/"+postID, nil).WithContext(ctx)
	router.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "update", fields["action"])
	assert.Equal(t, "BusinessPost", fields["entity_type"])
	assert.Equal(t, postID, fields["entity_id"])
	assert.Equal(t, "ops@acme.example", fields["actor"])
	assert.Equal(t, userID.String(), fields["user_id"])
}

func TestAudit_SkipsReadsFailuresAndHealth(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := auditRouter(zap.New(core), http.StatusOK)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Zero(t, logs.Len())

	core, logs = observer.New(zap.InfoLevel)
	failing := auditRouter(zap.New(core), http.StatusBadRequest)
	failing.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/me/posts", nil))
	assert.Zero(t, logs.Len())
}

func TestAudit_AccountDeletion(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := auditRouter(zap.New(core), http.StatusNoContent)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/v1/me", nil))

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "delete", entries[0].ContextMap()["action"])
	assert.Equal(t, "Account", entries[0].ContextMap()["entity_type"])
	assert.Equal(t, "anonymous", entries[0].ContextMap()["actor"])
}
