package handler

import (
	"net/http"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/service"
	"go.uber.org/zap"
)

type SupportHandler struct {
	supportService *service.SupportService
	logger         *zap.Logger
}

func NewSupportHandler(supportService *service.SupportService, logger *zap.Logger) *SupportHandler {
	return &SupportHandler{
		supportService: supportService,
		logger:         logger,
	}
}

// @Summary Contact support
// @Description One message per sender email per rate-limit window
// @Tags Support
// @Accept json
// @Produce json
// @Param request body domain.ContactSupportRequest true "Message"
// @Success 202 {object} domain.MessageResponse
// @Failure 429 {object} domain.APIError
// @Failure 502 {object} domain.APIError
// @Router /support/contact [post]
func (h *SupportHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var req domain.ContactSupportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.supportService.Contact(r.Context(), &req); err != nil {
		handleServiceError(w, h.logger, err, "Failed to send message")
		return
	}

	respondJSON(w, http.StatusAccepted, domain.MessageResponse{
		Message: "Thanks for reaching out. We will get back to you soon.",
	})
}
