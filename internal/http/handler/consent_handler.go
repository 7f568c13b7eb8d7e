package handler

import (
	"net/http"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/service"
	"go.uber.org/zap"
)

type ConsentHandler struct {
	consentService *service.ConsentService
	logger         *zap.Logger
}

func NewConsentHandler(consentService *service.ConsentService, logger *zap.Logger) *ConsentHandler {
	return &ConsentHandler{
		consentService: consentService,
		logger:         logger,
	}
}

// @Summary Record cookie consent
// @Description Appends a consent choice. Anonymous visitors must send a sessionId.
// @Tags Consent
// @Accept json
// @Produce json
// @Param request body domain.RecordConsentRequest true "Consent choice"
// @Success 201 {object} domain.ConsentDTO
// @Failure 400 {object} domain.APIError
// @Router /consent [post]
func (h *ConsentHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req domain.RecordConsentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	consent, err := h.consentService.Record(r.Context(), &req, clientIP(r), r.UserAgent())
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to record consent")
		return
	}

	respondJSON(w, http.StatusCreated, consent)
}

// @Summary Get my latest cookie consent
// @Tags Consent
// @Produce json
// @Param sessionId query string false "Anonymous session ID"
// @Success 200 {object} domain.ConsentDTO
// @Failure 404 {object} domain.APIError "No choice recorded"
// @Router /consent [get]
func (h *ConsentHandler) Latest(w http.ResponseWriter, r *http.Request) {
	consent, err := h.consentService.Latest(r.Context(), r.URL.Query().Get("sessionId"))
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to load consent")
		return
	}

	respondJSON(w, http.StatusOK, consent)
}
