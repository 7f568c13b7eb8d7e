package handler

import (
	"net/http"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/service"
	"go.uber.org/zap"
)

type VerificationHandler struct {
	verificationService *service.VerificationService
	logger              *zap.Logger
}

func NewVerificationHandler(verificationService *service.VerificationService, logger *zap.Logger) *VerificationHandler {
	return &VerificationHandler{
		verificationService: verificationService,
		logger:              logger,
	}
}

// @Summary Get my verification status
// @Description Returns the status, remaining attempts and which screen the client should show
// @Tags Verification
// @Produce json
// @Success 200 {object} domain.VerificationStatusDTO
// @Security BearerAuth
// @Router /me/verification [get]
func (h *VerificationHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.verificationService.GetStatus(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to get verification status")
		return
	}

	respondJSON(w, http.StatusOK, status)
}

// @Summary Submit business verification
// @Description Submits company details for review. Three attempts are allowed.
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body domain.SubmitVerificationRequest true "Company details"
// @Success 202 {object} domain.VerificationStatusDTO
// @Failure 400 {object} domain.APIError "URL without http(s) scheme"
// @Failure 403 {object} domain.APIError "Attempts exhausted or not a business account"
// @Failure 409 {object} domain.APIError "Already pending or verified"
// @Security BearerAuth
// @Router /me/verification [post]
func (h *VerificationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitVerificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	status, err := h.verificationService.Submit(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to submit verification")
		return
	}

	respondJSON(w, http.StatusAccepted, status)
}

// @Summary Get my verification history
// @Tags Verification
// @Produce json
// @Success 200 {array} domain.VerificationEventDTO
// @Security BearerAuth
// @Router /me/verification/history [get]
func (h *VerificationHandler) History(w http.ResponseWriter, r *http.Request) {
	events, err := h.verificationService.History(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to get verification history")
		return
	}

	respondJSON(w, http.StatusOK, events)
}

// @Summary Review a business verification
// @Description Records the operator decision for a pending submission
// @Tags Admin
// @Accept json
// @Produce json
// @Param userId path string true "Business user ID"
// @Param request body domain.ReviewVerificationRequest true "Decision"
// @Success 200 {object} domain.VerificationStatusDTO
// @Failure 409 {object} domain.APIError "Not pending review"
// @Security ApiKeyAuth
// @Router /admin/verifications/{userId}/review [post]
func (h *VerificationHandler) Review(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(w, r, "userId", "user ID")
	if !ok {
		return
	}

	var req domain.ReviewVerificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	status, err := h.verificationService.Review(r.Context(), userID, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to review verification")
		return
	}

	respondJSON(w, http.StatusOK, status)
}

// @Summary List business verifications for review
// @Description Oldest submissions first. Defaults to the pending queue.
// @Tags Admin
// @Produce json
// @Param status query string false "pending, verified or rejected" default(pending)
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} domain.PaginatedResponse
// @Security ApiKeyAuth
// @Router /admin/verifications [get]
func (h *VerificationHandler) ListForReview(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	result, err := h.verificationService.ListForReview(r.Context(), r.URL.Query().Get("status"), page, pageSize)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to list verifications")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
