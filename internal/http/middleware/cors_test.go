package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aimarketspace/marketplace-api/internal/config"
	"github.com/aimarketspace/marketplace-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func preflight(t *testing.T, cfg *config.CORSConfig, environment, origin, requestHeaders string) *httptest.ResponseRecorder {
	t.Helper()
	handler := middleware.CORS(cfg, environment, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/posts", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	if requestHeaders != "" {
		req.Header.Set("Access-Control-Request-Headers", requestHeaders)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func baseCORSConfig() *config.CORSConfig {
	return &config.CORSConfig{
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func TestCORS_DevelopmentAllowsAllOrigins(t *testing.T) {
	w := preflight(t, baseCORSConfig(), "development", "http://localhost:3000", "")
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ExplicitOrigins(t *testing.T) {
	cfg := baseCORSConfig()
	cfg.AllowedOrigins = []string{"https://aimeetplace.com"}

	w := preflight(t, cfg, "production", "https://aimeetplace.com", "")
	assert.Equal(t, "https://aimeetplace.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = preflight(t, cfg, "production", "https://evil.example", "")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ProductionWithoutOriginsDeniesAll(t *testing.T) {
	w := preflight(t, baseCORSConfig(), "production", "https://aimeetplace.com", "")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_RequiredHeadersAlwaysAllowed(t *testing.T) {
	cfg := baseCORSConfig()
	cfg.AllowedOrigins = []string{"https://aimeetplace.com"}

	// Authorization is not configured but the client always needs it
	w := preflight(t, cfg, "production", "https://aimeetplace.com", "Authorization")
	assert.Equal(t, "https://aimeetplace.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}
