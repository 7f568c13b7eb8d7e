package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/service"
	"go.uber.org/zap"
)

// avatarFormField is the multipart field carrying the image
const avatarFormField = "avatar"

type CreatorHandler struct {
	creatorService *service.CreatorService
	logger         *zap.Logger
}

func NewCreatorHandler(creatorService *service.CreatorService, logger *zap.Logger) *CreatorHandler {
	return &CreatorHandler{
		creatorService: creatorService,
		logger:         logger,
	}
}

// @Summary List creators
// @Description With a category, returns every complete profile offering that solution. Without one, returns a page of all complete profiles.
// @Tags Creators
// @Produce json
// @Param category query string false "Solution category"
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} domain.PaginatedResponse
// @Router /creators [get]
func (h *CreatorHandler) List(w http.ResponseWriter, r *http.Request) {
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		profiles, err := h.creatorService.ListByCategory(r.Context(), category)
		if err != nil {
			handleServiceError(w, h.logger, err, "Failed to list creators")
			return
		}
		respondJSON(w, http.StatusOK, profiles)
		return
	}

	page, pageSize := parsePagination(r)
	result, err := h.creatorService.List(r.Context(), page, pageSize)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to list creators")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// @Summary Get creator
// @Tags Creators
// @Produce json
// @Param id path string true "Creator profile ID"
// @Success 200 {object} domain.CreatorProfileDTO
// @Failure 404 {object} domain.APIError
// @Router /creators/{id} [get]
func (h *CreatorHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "creator ID")
	if !ok {
		return
	}

	profile, err := h.creatorService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to get creator")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// @Summary Get my creator profile
// @Tags Creators
// @Produce json
// @Success 200 {object} domain.CreatorProfileDTO
// @Failure 404 {object} domain.APIError "Profile not created yet"
// @Security BearerAuth
// @Router /me/creator-profile [get]
func (h *CreatorHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	profile, err := h.creatorService.GetMine(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to get creator profile")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// @Summary Create or update my creator profile
// @Tags Creators
// @Accept json
// @Produce json
// @Param request body domain.UpsertCreatorProfileRequest true "Profile data"
// @Success 200 {object} domain.CreatorProfileDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError "Not a creator account"
// @Security BearerAuth
// @Router /me/creator-profile [put]
func (h *CreatorHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req domain.UpsertCreatorProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.creatorService.Upsert(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to save creator profile")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// @Summary Upload my avatar
// @Description Accepts a JPEG, PNG, GIF or WebP image in the "avatar" form field
// @Tags Creators
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "Image file"
// @Success 200 {object} domain.AvatarUploadResponse
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /me/creator-profile/avatar [post]
func (h *CreatorHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	limit := h.creatorService.MaxUploadBytes()
	// Room for multipart framing on top of the file itself
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(avatarFormField)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing avatar file")
		return
	}
	defer file.Close()

	resp, err := h.creatorService.UploadAvatar(r.Context(), header.Size, file)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to upload avatar")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}
