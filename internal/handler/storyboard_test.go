package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"frameline/internal/domain/models"
	"frameline/internal/httputil"
	"frameline/internal/service"
	"frameline/internal/store/memory"
)

func newTestMux(t *testing.T) (*http.ServeMux, *service.StoryboardService) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	svc := service.NewStoryboardService(memory.New(), logger)
	h := NewStoryboardHandler(svc, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/storyboards", h.ListStoryboards)
	mux.HandleFunc("POST /api/storyboards", h.CreateStoryboard)
	mux.HandleFunc("GET /api/storyboards/{id}", h.GetStoryboard)
	mux.HandleFunc("PATCH /api/storyboards/{id}", h.UpdateStoryboard)
	mux.HandleFunc("PUT /api/storyboards/{id}/sharing", h.UpdateSharing)
	mux.HandleFunc("POST /api/storyboards/{id}/scenes", h.AddScene)
	mux.HandleFunc("POST /api/storyboards/{id}/frames/{frameID}/comments", h.AddComment)
	return mux, svc
}

func doJSON(t *testing.T, mux *http.ServeMux, identity models.Identity, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req = httputil.WithIdentity(req, identity)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeProject(t *testing.T, rec *httptest.ResponseRecorder) models.Project {
	t.Helper()
	var p models.Project
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatalf("decode response: %v (body %s)", err, rec.Body.String())
	}
	return p
}

func TestCreateAndGetStoryboard(t *testing.T) {
	mux, _ := newTestMux(t)
	owner := models.Identity{ID: "u1", Name: "User One"}

	rec := doJSON(t, mux, owner, http.MethodPost, "/api/storyboards", `{"title":"Pitch"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	created := decodeProject(t, rec)
	if created.ProjectTitle != "Pitch" || created.ID == "" {
		t.Fatalf("created = %+v", created)
	}

	rec = doJSON(t, mux, owner, http.MethodGet, "/api/storyboards/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decodeProject(t, rec); got.ID != created.ID {
		t.Errorf("got %+v", got)
	}
}

func TestCreateStoryboardAnonymous(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, models.Guest(), http.MethodPost, "/api/storyboards", `{"title":"x"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want problem+json", ct)
	}
}

func TestGetStoryboardErrors(t *testing.T) {
	mux, svc := newTestMux(t)
	owner := models.Identity{ID: "u1"}
	p, err := svc.CreateStoryboard(context.Background(), owner, "Private")
	if err != nil {
		t.Fatal(err)
	}

	// Missing and forbidden are distinct statuses.
	if rec := doJSON(t, mux, owner, http.MethodGet, "/api/storyboards/none", ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d, want 404", rec.Code)
	}
	stranger := models.Identity{ID: "u2"}
	if rec := doJSON(t, mux, stranger, http.MethodGet, "/api/storyboards/"+p.ID, ""); rec.Code != http.StatusForbidden {
		t.Errorf("stranger: status = %d, want 403", rec.Code)
	}
}

func TestUpdateStoryboardValidation(t *testing.T) {
	mux, svc := newTestMux(t)
	owner := models.Identity{ID: "u1"}
	p, err := svc.CreateStoryboard(context.Background(), owner, "Board")
	if err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, mux, owner, http.MethodPatch, "/api/storyboards/"+p.ID, `{"aspectRatio":"4:3"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	if got := decodeProject(t, rec); got.AspectRatio != models.AspectClassic {
		t.Errorf("AspectRatio = %q, want 4:3", got.AspectRatio)
	}

	rec = doJSON(t, mux, owner, http.MethodPatch, "/api/storyboards/"+p.ID, `{"aspectRatio":"2:1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad ratio: status = %d, want 400", rec.Code)
	}
}

func TestSharingAndAnonymousComment(t *testing.T) {
	mux, svc := newTestMux(t)
	owner := models.Identity{ID: "u1", Name: "Owner"}
	ctx := context.Background()
	p, err := svc.CreateStoryboard(ctx, owner, "Board")
	if err != nil {
		t.Fatal(err)
	}
	p, err = svc.AddFrame(ctx, owner, p.ID, p.Sequences[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	frameID := p.Sequences[0].Frames[0].ID
	commentPath := "/api/storyboards/" + p.ID + "/frames/" + frameID + "/comments"

	// Locked down: share-link visitors get nothing.
	if rec := doJSON(t, mux, models.Guest(), http.MethodPost, commentPath, `{"text":"hi","displayName":"Dana"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("restricted comment: status = %d, want 403", rec.Code)
	}

	rec := doJSON(t, mux, owner, http.MethodPut, "/api/storyboards/"+p.ID+"/sharing", `{"publicAccess":"viewer"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("share: status = %d (body %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, models.Guest(), http.MethodPost, commentPath, `{"text":"hi","displayName":"Dana"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("public comment: status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		Comment models.Comment `json:"comment"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Comment.Author != "Dana" {
		t.Errorf("Author = %q, want Dana", resp.Comment.Author)
	}

	// Viewer access never unlocks editing.
	if rec := doJSON(t, mux, models.Guest(), http.MethodPost, "/api/storyboards/"+p.ID+"/scenes", ""); rec.Code != http.StatusForbidden {
		t.Errorf("anonymous scene add: status = %d, want 403", rec.Code)
	}
}
