package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/service"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		errType string
	}{
		{service.ErrNotFound, http.StatusNotFound, domain.ErrorTypeNotFound},
		{fmt.Errorf("wrapped: %w", service.ErrNotFound), http.StatusNotFound, domain.ErrorTypeNotFound},
		{service.ErrUnauthorized, http.StatusUnauthorized, domain.ErrorTypeUnauthorized},
		{service.ErrTermsRequired, http.StatusUnprocessableEntity, domain.ErrorTypeTermsRequired},
		{service.ErrVerificationRequired, http.StatusForbidden, domain.ErrorTypeVerificationRequired},
		{service.ErrAttemptsExhausted, http.StatusForbidden, domain.ErrorTypeAttemptsExhausted},
		{service.ErrNotCreator, http.StatusForbidden, domain.ErrorTypeForbidden},
		{service.ErrVerificationPending, http.StatusConflict, domain.ErrorTypeConflict},
		{fmt.Errorf("%w: already pending", service.ErrConflict), http.StatusConflict, domain.ErrorTypeConflict},
		{service.ErrInvalidWebsiteURL, http.StatusBadRequest, domain.ErrorTypeBadRequest},
		{service.ErrConfirmationMismatch, http.StatusBadRequest, domain.ErrorTypeBadRequest},
		{fmt.Errorf("%w: smtp down", service.ErrDeliveryFailed), http.StatusBadGateway, domain.ErrorTypeInternal},
		{&service.RateLimitError{RetryAfter: 90 * time.Second}, http.StatusTooManyRequests, domain.ErrorTypeTooManyRequests},
		{fmt.Errorf("boom"), http.StatusInternalServerError, domain.ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rr := httptest.NewRecorder()
			handleServiceError(rr, zap.NewNop(), tt.err, "Failed")

			assert.Equal(t, tt.status, rr.Code)
			assert.Contains(t, rr.Body.String(), `"type":"`+tt.errType+`"`)
		})
	}
}

func TestHandleServiceError_RetryAfter(t *testing.T) {
	rr := httptest.NewRecorder()
	handleServiceError(rr, zap.NewNop(), &service.RateLimitError{RetryAfter: 90 * time.Second}, "Failed")
	assert.Equal(t, "90", rr.Header().Get("Retry-After"))

	rr = httptest.NewRecorder()
	handleServiceError(rr, zap.NewNop(), &service.RateLimitError{}, "Failed")
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
}

func TestHandleServiceError_DeliveryFailureUsesFallback(t *testing.T) {
	rr := httptest.NewRecorder()
	handleServiceError(rr, zap.NewNop(), fmt.Errorf("%w: smtp down", service.ErrDeliveryFailed), "Failed to send magic link")

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), `"detail":"Failed to send magic link"`)
	assert.NotContains(t, rr.Body.String(), "smtp down")
}

func TestParsePagination(t *testing.T) {
	page, size := parsePagination(httptest.NewRequest(http.MethodGet, "/?page=3&pageSize=5", nil))
	assert.Equal(t, 3, page)
	assert.Equal(t, 5, size)

	page, size = parsePagination(httptest.NewRequest(http.MethodGet, "/?page=-1&pageSize=abc", nil))
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	assert.Equal(t, "203.0.113.7", clientIP(req))

	req.RemoteAddr = "203.0.113.7"
	assert.Equal(t, "203.0.113.7", clientIP(req))
}
