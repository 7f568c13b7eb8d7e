package handler

import (
	"net/http"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/service"
	"go.uber.org/zap"
)

type AccountHandler struct {
	accountService *service.AccountService
	logger         *zap.Logger
}

func NewAccountHandler(accountService *service.AccountService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// @Summary Delete my account data
// @Description Removes profiles, posts and requests and signs out every session. The body must confirm with "DELETE".
// @Tags Account
// @Accept json
// @Param request body domain.DeleteAccountRequest true "Confirmation"
// @Success 204
// @Failure 400 {object} domain.APIError "Confirmation mismatch"
// @Security BearerAuth
// @Router /me [delete]
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req domain.DeleteAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.accountService.DeleteAccount(r.Context(), &req); err != nil {
		handleServiceError(w, h.logger, err, "Failed to delete account")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
