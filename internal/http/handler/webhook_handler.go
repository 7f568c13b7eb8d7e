package handler

import (
	"net/http"

	"github.com/aimarketspace/marketplace-api/internal/service"
	"go.uber.org/zap"
)

// WebhookHandler exposes the webhook outbox to operators
type WebhookHandler struct {
	webhookService *service.WebhookService
	logger         *zap.Logger
}

func NewWebhookHandler(webhookService *service.WebhookService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		logger:         logger,
	}
}

// @Summary List webhook deliveries
// @Tags Admin
// @Produce json
// @Param status query string false "pending, delivered or failed"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} domain.PaginatedResponse
// @Security ApiKeyAuth
// @Router /admin/webhooks [get]
func (h *WebhookHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	result, err := h.webhookService.List(r.Context(), r.URL.Query().Get("status"), page, pageSize)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to list webhooks")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// @Summary Requeue a failed webhook delivery
// @Tags Admin
// @Produce json
// @Param id path string true "Delivery ID"
// @Success 200 {object} domain.WebhookDeliveryDTO
// @Failure 404 {object} domain.APIError "Unknown or not failed"
// @Security ApiKeyAuth
// @Router /admin/webhooks/{id}/requeue [post]
func (h *WebhookHandler) Requeue(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "delivery ID")
	if !ok {
		return
	}

	delivery, err := h.webhookService.Requeue(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to requeue webhook")
		return
	}

	respondJSON(w, http.StatusOK, delivery)
}
