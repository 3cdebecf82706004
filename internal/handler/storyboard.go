package handler

import (
	"log/slog"
	"net/http"
	"time"

	"frameline/internal/httputil"
	"frameline/internal/service"
)

// StoryboardHandler handles project-level storyboard HTTP requests.
type StoryboardHandler struct {
	storyboards *service.StoryboardService
	logger      *slog.Logger
}

// NewStoryboardHandler creates a new storyboard handler.
func NewStoryboardHandler(storyboards *service.StoryboardService, logger *slog.Logger) *StoryboardHandler {
	return &StoryboardHandler{
		storyboards: storyboards,
		logger:      logger,
	}
}

// CreateStoryboard creates a new storyboard
// POST /api/storyboards
func (h *StoryboardHandler) CreateStoryboard(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)

	var req struct {
		Title string `json:"title"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.storyboards.CreateStoryboard(r.Context(), identity, req.Title)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, project)
}

// ListStoryboards lists the caller's own storyboards
// GET /api/storyboards
func (h *StoryboardHandler) ListStoryboards(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)

	projects, err := h.storyboards.ListMine(r.Context(), identity)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, projects)
}

// GetStoryboard retrieves one storyboard
// GET /api/storyboards/{id}
func (h *StoryboardHandler) GetStoryboard(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "storyboard ID is required")
		return
	}

	project, err := h.storyboards.GetStoryboard(r.Context(), identity, id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// UpdateStoryboard patches title and/or aspect ratio
// PATCH /api/storyboards/{id}
func (h *StoryboardHandler) UpdateStoryboard(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "storyboard ID is required")
		return
	}

	var req service.MetaUpdate
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.storyboards.UpdateMeta(r.Context(), identity, id, req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// UpdateSharing patches publicAccess and/or roles
// PUT /api/storyboards/{id}/sharing
func (h *StoryboardHandler) UpdateSharing(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "storyboard ID is required")
		return
	}

	var req service.SharingUpdate
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.storyboards.UpdateSharing(r.Context(), identity, id, req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// HealthCheck is a simple health check endpoint
// GET /health
func (h *StoryboardHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now(),
	})
}
