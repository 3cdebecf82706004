// Package store defines the document store contract the sync controller
// and services ride on: point reads, set-if-absent creates, shallow
// merge-patch writes with server-assigned timestamps, and a live watch
// that delivers a full document snapshot on every committed change.
package store

import (
	"context"

	"frameline/internal/domain/models"
)

// Patch is a shallow merge-patch: only the named top-level keys are
// replaced in the stored document, every other key is preserved. Values
// must be JSON-marshalable. Writers never include a lastEdited key - the
// store stamps the edit timestamp server-side so clock skew between
// clients cannot reorder edits.
type Patch map[string]any

// Merge folds other into p, last caller winning per key.
func (p Patch) Merge(other Patch) {
	for k, v := range other {
		p[k] = v
	}
}

// Clone returns a shallow copy of the patch.
func (p Patch) Clone() Patch {
	out := make(Patch, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Snapshot is one full-document state delivered by a watch.
type Snapshot struct {
	ID      string
	Project *models.Project
}

// CancelFunc detaches a watch. Safe to call more than once.
type CancelFunc func()

// DocumentStore is the remote document store contract. Implementations
// must deliver watch snapshots to a subscriber in the order the store
// committed the corresponding writes.
type DocumentStore interface {
	// Get performs a point read. Returns domain.ErrNotFound if the id does
	// not resolve to a document.
	Get(ctx context.Context, id string) (*models.Project, error)

	// Create stores a new document under id if absent. Returns
	// domain.ErrConflict if the id is already taken. Timestamps are
	// assigned by the store.
	Create(ctx context.Context, id string, project *models.Project) error

	// MergePatch applies a shallow merge-patch and stamps the document's
	// edit timestamp. Returns domain.ErrNotFound for unknown ids.
	MergePatch(ctx context.Context, id string, patch Patch) error

	// Watch opens a live feed for one document. The current state is
	// delivered as the first snapshot. The feed stays open - and keeps
	// applying remote changes - until cancel is called or ctx is done.
	// Returns domain.ErrNotFound or domain.ErrPermissionDenied without
	// opening a feed when the subscription cannot be established.
	Watch(ctx context.Context, id string) (<-chan Snapshot, CancelFunc, error)

	// ListByOwner returns summaries of the projects owned by a user,
	// most recently edited first.
	ListByOwner(ctx context.Context, ownerID string) ([]models.Project, error)
}
