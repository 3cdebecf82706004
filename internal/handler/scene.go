package handler

import (
	"net/http"

	"frameline/internal/httputil"
	"frameline/internal/service"
)

// AddScene appends an empty scene
// POST /api/storyboards/{id}/scenes
func (h *StoryboardHandler) AddScene(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)
	id := r.PathValue("id")

	project, err := h.storyboards.AddScene(r.Context(), identity, id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// RenameScene sets a scene title
// PATCH /api/storyboards/{id}/scenes/{sceneID}
func (h *StoryboardHandler) RenameScene(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)
	id := r.PathValue("id")
	sceneID := r.PathValue("sceneID")

	var req struct {
		Title string `json:"title"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.storyboards.RenameScene(r.Context(), identity, id, sceneID, req.Title)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// DeleteScene removes a scene
// DELETE /api/storyboards/{id}/scenes/{sceneID}
func (h *StoryboardHandler) DeleteScene(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)
	id := r.PathValue("id")
	sceneID := r.PathValue("sceneID")

	project, err := h.storyboards.DeleteScene(r.Context(), identity, id, sceneID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// MoveScene reorders a scene
// POST /api/storyboards/{id}/scenes/{sceneID}/move
func (h *StoryboardHandler) MoveScene(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)
	id := r.PathValue("id")
	sceneID := r.PathValue("sceneID")

	var req struct {
		ToIndex int `json:"toIndex"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.storyboards.MoveScene(r.Context(), identity, id, sceneID, req.ToIndex)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// AddFrame appends an empty frame to a scene
// POST /api/storyboards/{id}/scenes/{sceneID}/frames
func (h *StoryboardHandler) AddFrame(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)
	id := r.PathValue("id")
	sceneID := r.PathValue("sceneID")

	project, err := h.storyboards.AddFrame(r.Context(), identity, id, sceneID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// UpdateFrame applies a partial frame update
// PATCH /api/storyboards/{id}/frames/{frameID}
func (h *StoryboardHandler) UpdateFrame(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)
	id := r.PathValue("id")
	frameID := r.PathValue("frameID")

	var req service.FrameUpdate
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.storyboards.UpdateFrame(r.Context(), identity, id, frameID, req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// DeleteFrame removes a frame
// DELETE /api/storyboards/{id}/frames/{frameID}
func (h *StoryboardHandler) DeleteFrame(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)
	id := r.PathValue("id")
	frameID := r.PathValue("frameID")

	project, err := h.storyboards.DeleteFrame(r.Context(), identity, id, frameID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// MoveFrame relocates a frame within or across scenes
// POST /api/storyboards/{id}/frames/{frameID}/move
func (h *StoryboardHandler) MoveFrame(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)
	id := r.PathValue("id")
	frameID := r.PathValue("frameID")

	var req struct {
		ToSceneID string `json:"toSceneId"`
		ToIndex   int    `json:"toIndex"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	project, err := h.storyboards.MoveFrame(r.Context(), identity, id, frameID, req.ToSceneID, req.ToIndex)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, project)
}

// AddComment appends a comment to a frame. Viewer access suffices, so
// share-link visitors can comment without signing in.
// POST /api/storyboards/{id}/frames/{frameID}/comments
func (h *StoryboardHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)
	id := r.PathValue("id")
	frameID := r.PathValue("frameID")

	var req struct {
		Text        string `json:"text"`
		DisplayName string `json:"displayName"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	project, comment, err := h.storyboards.AddComment(r.Context(), identity, id, frameID, req.Text, req.DisplayName)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, map[string]any{
		"comment": comment,
		"project": project,
	})
}
