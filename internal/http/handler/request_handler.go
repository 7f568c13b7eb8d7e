package handler

import (
	"net/http"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/service"
	"go.uber.org/zap"
)

type RequestHandler struct {
	requestService *service.RequestService
	logger         *zap.Logger
}

func NewRequestHandler(requestService *service.RequestService, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		logger:         logger,
	}
}

// @Summary Contact a creator
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Creator profile ID"
// @Param request body domain.CreatePendingRequestRequest true "Message"
// @Success 201 {object} domain.PendingRequestDTO
// @Failure 409 {object} domain.APIError "A request is already pending"
// @Security BearerAuth
// @Router /creators/{id}/requests [post]
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := parseUUIDParam(w, r, "id", "creator ID")
	if !ok {
		return
	}

	var req domain.CreatePendingRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := h.requestService.Create(r.Context(), creatorID, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to create request")
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// @Summary List my sent requests
// @Tags Requests
// @Produce json
// @Success 200 {array} domain.PendingRequestDTO
// @Security BearerAuth
// @Router /me/requests [get]
func (h *RequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	requests, err := h.requestService.ListMine(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to list requests")
		return
	}

	respondJSON(w, http.StatusOK, requests)
}

// @Summary List requests sent to me
// @Tags Requests
// @Produce json
// @Success 200 {array} domain.PendingRequestDTO
// @Security BearerAuth
// @Router /me/requests/incoming [get]
func (h *RequestHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	requests, err := h.requestService.ListIncoming(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to list requests")
		return
	}

	respondJSON(w, http.StatusOK, requests)
}
