package docsync

import (
	"sync"
	"time"

	"frameline/internal/store"
)

// debouncer coalesces rapid save requests into one write per quiescence
// window. Each Schedule merges its patch into the pending payload
// (last call wins per key) and re-arms the timer; the write fires only
// once the window elapses with no further calls. Flush hands the pending
// payload to the caller instead, cancelling the timer, which is how a
// manual save jumps the queue.
type debouncer struct {
	window time.Duration
	fire   func(projectID string, patch store.Patch)

	mu        sync.Mutex
	timer     *time.Timer
	pendingID string
	pending   store.Patch
}

func newDebouncer(window time.Duration, fire func(string, store.Patch)) *debouncer {
	return &debouncer{window: window, fire: fire}
}

// Schedule merges patch into the pending payload and restarts the window.
func (d *debouncer) Schedule(projectID string, patch store.Patch) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending == nil || d.pendingID != projectID {
		d.pending = store.Patch{}
		d.pendingID = projectID
	}
	d.pending.Merge(patch)

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fireNow)
}

// Flush cancels the armed timer and returns the coalesced pending payload,
// or nil if nothing is pending. The caller performs the write itself.
func (d *debouncer) Flush() (string, store.Patch) {
	return d.take()
}

func (d *debouncer) fireNow() {
	id, patch := d.take()
	if patch != nil {
		d.fire(id, patch)
	}
}

// take atomically claims the pending payload. A timer callback racing a
// Flush finds nothing pending and fires no write.
func (d *debouncer) take() (string, store.Patch) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	id, patch := d.pendingID, d.pending
	d.pendingID = ""
	d.pending = nil
	return id, patch
}
