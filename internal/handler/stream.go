package handler

import (
	"log/slog"
	"net/http"

	"frameline/internal/docsync"
	"frameline/internal/domain/models"
	"frameline/internal/handler/sse"
	"frameline/internal/httputil"
	"frameline/internal/service"
	"frameline/internal/store"
)

// StreamHandler serves live storyboard snapshots over SSE. Each connection
// gets its own sync controller scoped to the caller's identity, so access
// failures surface before the stream opens.
type StreamHandler struct {
	store  store.DocumentStore
	config sse.Config
	logger *slog.Logger
}

// NewStreamHandler creates a new snapshot stream handler.
func NewStreamHandler(st store.DocumentStore, cfg sse.Config, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		store:  st,
		config: cfg,
		logger: logger,
	}
}

// StreamSnapshots streams the document's snapshot feed as SSE events:
// one "snapshot" event per applied snapshot, starting with the current
// state, until the client disconnects.
// GET /api/storyboards/{id}/stream
func (h *StreamHandler) StreamSnapshots(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "storyboard ID is required")
		return
	}

	ctx := r.Context()
	scoped := service.ForIdentity(h.store, identity)
	controller := docsync.New(scoped, h.logger)

	// The callback must never block the feed, so snapshots are handed to
	// the write loop through a buffered channel. A slow client skips
	// intermediate snapshots rather than stalling the store watcher.
	snaps := make(chan *models.Project, 16)
	err := controller.Subscribe(ctx, id, func(p *models.Project) {
		select {
		case snaps <- p:
		default:
		}
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	defer controller.Unsubscribe()

	writer, err := sse.NewWriter(w)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	keepAlive := sse.NewTickerKeepAlive(h.config.KeepAliveInterval)
	kaStopped := keepAlive.Start(writer, h.logger)
	defer keepAlive.Stop()

	h.logger.Info("snapshot stream opened",
		"project_id", id,
		"user_id", identity.ID,
	)

	// Subscribe already pushed the first snapshot through the callback,
	// so the loop's first send is the current document state.
	for {
		select {
		case doc := <-snaps:
			if err := writer.WriteEvent("snapshot", doc); err != nil {
				h.logger.Debug("snapshot write failed, closing stream",
					"project_id", id,
					"error", err,
				)
				return
			}
		case <-kaStopped:
			return
		case <-ctx.Done():
			return
		}
	}
}
