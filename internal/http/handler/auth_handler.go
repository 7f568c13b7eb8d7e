package handler

import (
	"net/http"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// CheckEmail godoc
// @Summary Check whether an account exists
// @Description Tells the sign-in form whether the terms checkbox must be shown
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.CheckEmailRequest true "Email address"
// @Success 200 {object} domain.CheckEmailResponse
// @Failure 400 {object} domain.APIError
// @Router /auth/check-email [post]
func (h *AuthHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authService.CheckEmail(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to check email")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// RequestMagicLink godoc
// @Summary Request a sign-in link
// @Description Emails a single-use sign-in link. New addresses must accept the terms.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.MagicLinkRequest true "Sign-in request"
// @Success 200 {object} domain.MagicLinkResponse
// @Failure 400 {object} domain.APIError
// @Failure 422 {object} domain.APIError "Terms must be accepted for new accounts"
// @Failure 429 {object} domain.APIError
// @Failure 502 {object} domain.APIError "Failed to send magic link"
// @Router /auth/magic-link [post]
func (h *AuthHandler) RequestMagicLink(w http.ResponseWriter, r *http.Request) {
	var req domain.MagicLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authService.RequestMagicLink(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to send magic link")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Verify godoc
// @Summary Exchange a magic-link token for a session
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.VerifyMagicLinkRequest true "Token from the link"
// @Success 200 {object} domain.SessionResponse
// @Failure 400 {object} domain.APIError "Invalid or expired link"
// @Router /auth/verify [post]
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyMagicLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authService.VerifyMagicLink(r.Context(), &req, clientIP(r), r.UserAgent())
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to verify sign-in link")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Me godoc
// @Summary Get current authenticated user
// @Description Returns the user, the resolved user type and where the client should go next
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.MeResponse
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	resp, err := h.authService.Me(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to load user")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Logout godoc
// @Summary Sign out
// @Description Revokes the session behind the bearer token
// @Tags Auth
// @Success 204
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context()); err != nil {
		handleServiceError(w, h.logger, err, "Failed to sign out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
