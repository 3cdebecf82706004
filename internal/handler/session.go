package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"frameline/internal/docsync"
	"frameline/internal/domain"
	"frameline/internal/domain/models"
	"frameline/internal/httputil"
	"frameline/internal/service"
	"frameline/internal/store"
)

const (
	sessionWriteWait  = 10 * time.Second
	sessionPongWait   = 60 * time.Second
	sessionPingPeriod = 50 * time.Second
	maxMessageSize    = 1 << 20 // 1MB
)

// clientMessage is what the editing client sends over the socket.
type clientMessage struct {
	Type  string                     `json:"type"` // "autosave" or "save"
	Patch map[string]json.RawMessage `json:"patch"`
}

// serverMessage is what the session sends back.
type serverMessage struct {
	Type    string          `json:"type"` // "snapshot", "saved", "error"
	Project *models.Project `json:"project,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// SessionHandler runs live editing sessions over websocket. One sync
// controller per connection: remote snapshots flow down as "snapshot"
// messages, client patches flow up as debounced autosaves or immediate
// manual saves.
type SessionHandler struct {
	store    store.DocumentStore
	window   time.Duration
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewSessionHandler creates a new editing session handler. window is the
// autosave quiescence window (zero means the default). checkOrigin
// decides which browser origins may open sessions; nil allows all, which
// is only suitable for development.
func NewSessionHandler(st store.DocumentStore, window time.Duration, checkOrigin func(*http.Request) bool, logger *slog.Logger) *SessionHandler {
	if window <= 0 {
		window = docsync.DefaultDebounceWindow
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &SessionHandler{
		store:  st,
		window: window,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		logger: logger,
	}
}

// EditSession upgrades the connection and runs the session until the
// client disconnects. Editing over the socket requires editor access;
// viewers get the read-only SSE stream instead.
// GET /api/storyboards/{id}/session
func (h *SessionHandler) EditSession(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "storyboard ID is required")
		return
	}

	scoped := service.ForIdentity(h.store, identity)
	controller := docsync.New(scoped, h.logger, docsync.WithDebounceWindow(h.window))

	// Check access before upgrading, so the client gets a proper HTTP
	// status instead of a dropped socket.
	if project, err := scoped.Get(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	} else if !project.RoleFor(identity.ID).CanEdit() {
		respondError(w, h.logger, &domain.PermissionDeniedError{Message: "editor access required"})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// The writer goroutine owns all writes to the connection. It exits
	// through done rather than a channel close, because the snapshot
	// callback may still be sending when the session tears down.
	out := make(chan serverMessage, 32)
	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(sessionPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case msg := <-out:
				conn.SetWriteDeadline(time.Now().Add(sessionWriteWait))
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(sessionWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	send := func(msg serverMessage) {
		select {
		case out <- msg:
		case <-done:
		}
	}

	err = controller.Subscribe(r.Context(), id, func(p *models.Project) {
		send(serverMessage{Type: "snapshot", Project: p})
	})
	if err != nil {
		send(serverMessage{Type: "error", Error: err.Error()})
		return
	}
	defer controller.Unsubscribe()

	h.logger.Info("editing session opened",
		"project_id", id,
		"user_id", identity.ID,
	)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(sessionPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(sessionPongWait))
		return nil
	})

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("editing session closed unexpectedly",
					"project_id", id,
					"error", err,
				)
			}
			return
		}

		// A bare save flushes whatever autosaves are pending.
		patch := store.Patch{}
		if len(msg.Patch) > 0 {
			var err error
			patch, err = service.ValidateDocumentPatch(msg.Patch)
			if err != nil {
				send(serverMessage{Type: "error", Error: err.Error()})
				continue
			}
		}

		switch msg.Type {
		case "autosave":
			if len(patch) == 0 {
				send(serverMessage{Type: "error", Error: "empty patch"})
				continue
			}
			controller.RequestAutosave(id, patch)
		case "save":
			if err := controller.RequestManualSave(r.Context(), id, patch); err != nil {
				send(serverMessage{Type: "error", Error: "save failed, please retry"})
				continue
			}
			send(serverMessage{Type: "saved"})
		default:
			send(serverMessage{Type: "error", Error: "unknown message type"})
		}
	}
}
