// Package docsync owns the local copy of one storyboard document and keeps
// it eventually consistent with the document store: remote snapshots
// overwrite the local document wholesale (the remote feed is the single
// source of truth), and local edits are coalesced into rate-limited
// merge-patch writes. There is no operational transform or CRDT layer -
// concurrent writes to the same top-level key resolve last-writer-wins,
// with the whole key value replaced. That is the accepted concurrency
// model, sharp edges included.
package docsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"frameline/internal/domain"
	"frameline/internal/domain/models"
	"frameline/internal/store"
)

// Status is the controller's externally visible state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSaving  Status = "saving"
	StatusError   Status = "error"
)

// DefaultDebounceWindow is the autosave quiescence window.
const DefaultDebounceWindow = time.Second

// writeTimeout bounds fire-and-forget autosave writes.
const writeTimeout = 30 * time.Second

// SnapshotFunc is invoked for every snapshot applied to the local
// document, including the first one and those caused by this controller's
// own writes.
type SnapshotFunc func(*models.Project)

// Option configures a Controller.
type Option func(*Controller)

// WithDebounceWindow overrides the autosave quiescence window.
func WithDebounceWindow(w time.Duration) Option {
	return func(c *Controller) { c.window = w }
}

// Controller synchronizes one storyboard document between a live editing
// session and the document store.
type Controller struct {
	store  store.DocumentStore
	logger *slog.Logger
	window time.Duration

	// deb lives for the controller's lifetime, so the pending payload and
	// armed timer survive anything the session layer does short of
	// dropping the controller itself. Bursts of edits always coalesce.
	deb *debouncer

	mu         sync.Mutex
	status     Status
	projectID  string
	doc        *models.Project
	lastErr    error
	cancel     store.CancelFunc
	onSnapshot SnapshotFunc

	// gen identifies the current subscription. Subscribe and Unsubscribe
	// bump it, and a snapshot is applied only if its subscription's gen
	// still matches - a consume goroutine woken after a re-subscription
	// may still hold buffered snapshots from the abandoned feed, and
	// those must never overwrite the new document.
	gen uint64
}

// New creates a controller over the given store.
func New(st store.DocumentStore, logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		store:  st,
		logger: logger,
		window: DefaultDebounceWindow,
		status: StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.deb = newDebouncer(c.window, c.autosaveWrite)
	return c
}

// Subscribe attaches the controller to a project's live feed. It blocks
// until the first snapshot is applied, then returns with the controller in
// idle; remote changes keep flowing into the local document until
// Unsubscribe. A failed subscription (not found, permission denied) leaves
// the controller in the error state with the distinguishing error kind,
// and no feed open.
func (c *Controller) Subscribe(ctx context.Context, projectID string, onSnapshot SnapshotFunc) error {
	c.Unsubscribe()

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.status = StatusLoading
	c.projectID = projectID
	c.doc = nil
	c.lastErr = nil
	c.onSnapshot = onSnapshot
	c.mu.Unlock()

	snaps, cancel, err := c.store.Watch(ctx, projectID)
	if err != nil {
		c.fail(err)
		return err
	}

	select {
	case snap, ok := <-snaps:
		if !ok {
			err := fmt.Errorf("feed closed before first snapshot: %w", domain.ErrNotFound)
			cancel()
			c.fail(err)
			return err
		}
		c.mu.Lock()
		c.cancel = cancel
		c.mu.Unlock()
		c.apply(snap, gen)
	case <-ctx.Done():
		cancel()
		c.fail(ctx.Err())
		return ctx.Err()
	}

	go c.consume(snaps, gen)
	return nil
}

// RequestAutosave queues a merge-patch write behind the debounce window.
// It never blocks and never changes the status - autosaves happening on
// every keystroke must not flicker the UI through saving states. A write
// that ultimately fails is logged; the next snapshot or save supersedes it.
func (c *Controller) RequestAutosave(projectID string, patch store.Patch) {
	c.deb.Schedule(projectID, patch.Clone())
}

// RequestManualSave flushes any pending autosave merged under this patch
// (this patch winning per key) and writes immediately. The status passes
// through saving and returns to idle whether or not the write succeeded;
// the returned error is the only failure signal, wrapping
// domain.ErrWriteFailed on a store write failure.
func (c *Controller) RequestManualSave(ctx context.Context, projectID string, patch store.Patch) error {
	c.setStatus(StatusSaving)
	defer c.setStatus(StatusIdle)

	c.deb.Schedule(projectID, patch.Clone())
	id, merged := c.deb.Flush()
	if len(merged) == 0 {
		return nil
	}

	if err := c.store.MergePatch(ctx, id, merged); err != nil {
		c.logger.Error("manual save failed",
			"project_id", id,
			"error", err,
		)
		return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	return nil
}

// Unsubscribe detaches the live feed. Idempotent; after it returns no
// further snapshots are applied from that subscription. It does not cancel
// an autosave write already handed to the network - if such a write lands,
// it is observed only by a later subscription.
func (c *Controller) Unsubscribe() {
	c.mu.Lock()
	c.gen++
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Document returns the current local document, or nil before the first
// snapshot. Callers must not mutate it - all mutation goes through
// RequestAutosave and RequestManualSave.
func (c *Controller) Document() *models.Project {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc
}

// Status returns the controller's current state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err returns the subscription error when Status is error. Write failures
// never land here - see RequestManualSave.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// consume applies feed snapshots until the feed closes or the
// subscription it was started for is superseded. Snapshots arrive in
// store commit order and each one overwrites the local document whole.
func (c *Controller) consume(snaps <-chan store.Snapshot, gen uint64) {
	for snap := range snaps {
		if !c.apply(snap, gen) {
			return
		}
	}
}

// apply installs the snapshot and reports whether the subscription that
// produced it is still current. Stale snapshots are discarded.
func (c *Controller) apply(snap store.Snapshot, gen uint64) bool {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return false
	}
	c.doc = snap.Project
	c.status = StatusIdle
	cb := c.onSnapshot
	c.mu.Unlock()

	if cb != nil {
		cb(snap.Project)
	}
	return true
}

func (c *Controller) autosaveWrite(projectID string, patch store.Patch) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := c.store.MergePatch(ctx, projectID, patch); err != nil {
		c.logger.Error("autosave failed",
			"project_id", projectID,
			"error", err,
		)
	}
}

func (c *Controller) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}

func (c *Controller) fail(err error) {
	c.mu.Lock()
	c.status = StatusError
	c.lastErr = err
	c.mu.Unlock()
}

// IsNotFound reports whether a subscription error was a missing document,
// as opposed to a permission failure. The two are surfaced distinctly so
// the UI can message "missing" versus "no access".
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// IsPermissionDenied reports whether a subscription error was an access
// failure.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, domain.ErrPermissionDenied)
}
