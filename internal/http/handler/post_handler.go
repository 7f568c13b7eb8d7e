package handler

import (
	"net/http"

	"github.com/aimarketspace/marketplace-api/internal/domain"
	"github.com/aimarketspace/marketplace-api/internal/service"
	"go.uber.org/zap"
)

type PostHandler struct {
	postService *service.PostService
	logger      *zap.Logger
}

func NewPostHandler(postService *service.PostService, logger *zap.Logger) *PostHandler {
	return &PostHandler{
		postService: postService,
		logger:      logger,
	}
}

// @Summary List active posts
// @Description Public listing of active posts that have not expired, newest first
// @Tags Posts
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Success 200 {object} domain.PaginatedResponse
// @Router /posts [get]
func (h *PostHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	result, err := h.postService.ListActive(r.Context(), page, pageSize)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to list posts")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// @Summary Check for active posts
// @Tags Posts
// @Produce json
// @Success 200 {object} domain.HasActivePostsResponse
// @Router /posts/has-active [get]
func (h *PostHandler) HasActive(w http.ResponseWriter, r *http.Request) {
	has, err := h.postService.HasActive(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to check posts")
		return
	}

	respondJSON(w, http.StatusOK, domain.HasActivePostsResponse{HasActive: has})
}

// @Summary Get post
// @Description Archived posts are only returned to their owner
// @Tags Posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} domain.BusinessPostDTO
// @Failure 404 {object} domain.APIError
// @Router /posts/{id} [get]
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "post ID")
	if !ok {
		return
	}

	post, err := h.postService.GetByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to get post")
		return
	}

	respondJSON(w, http.StatusOK, post)
}

// @Summary List my posts
// @Tags Posts
// @Produce json
// @Param tab query string false "active, archived or all" default(active)
// @Success 200 {array} domain.BusinessPostDTO
// @Security BearerAuth
// @Router /me/posts [get]
func (h *PostHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.ListMine(r.Context(), r.URL.Query().Get("tab"))
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to list posts")
		return
	}

	respondJSON(w, http.StatusOK, posts)
}

// @Summary Create post
// @Description Verified businesses only
// @Tags Posts
// @Accept json
// @Produce json
// @Param request body domain.CreatePostRequest true "Post data"
// @Success 201 {object} domain.BusinessPostDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError "Verification required"
// @Security BearerAuth
// @Router /me/posts [post]
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.postService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to create post")
		return
	}

	w.Header().Set("Location", "/api/v1/posts/"+post.ID.String())
	respondJSON(w, http.StatusCreated, post)
}

// @Summary Update post
// @Description Updating an archived or expired post makes it active again
// @Tags Posts
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body domain.UpdatePostRequest true "Post data"
// @Success 200 {object} domain.BusinessPostDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /me/posts/{id} [put]
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "post ID")
	if !ok {
		return
	}

	var req domain.UpdatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.postService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "Failed to update post")
		return
	}

	respondJSON(w, http.StatusOK, post)
}

// @Summary Archive post
// @Tags Posts
// @Param id path string true "Post ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /me/posts/{id}/archive [post]
func (h *PostHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "post ID")
	if !ok {
		return
	}

	if err := h.postService.Archive(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "Failed to archive post")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary Delete post
// @Tags Posts
// @Param id path string true "Post ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /me/posts/{id} [delete]
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id", "post ID")
	if !ok {
		return
	}

	if err := h.postService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "Failed to delete post")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
