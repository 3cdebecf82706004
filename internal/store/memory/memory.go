// Package memory is an in-process DocumentStore. It backs dev mode and
// tests; the contract it implements is identical to the Postgres store,
// including merge-patch semantics and watch snapshot ordering.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"frameline/internal/domain"
	"frameline/internal/domain/models"
	"frameline/internal/store"
)

const watchBuffer = 64

type document struct {
	fields    map[string]any
	createdAt time.Time
	updatedAt time.Time
}

// Store is an in-memory document store. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	docs     map[string]*document
	watchers map[string]map[int]chan store.Snapshot
	nextID   int

	// now is swappable so tests can control the server clock.
	now func() time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		docs:     make(map[string]*document),
		watchers: make(map[string]map[int]chan store.Snapshot),
		now:      time.Now,
	}
}

var _ store.DocumentStore = (*Store)(nil)

// Get implements DocumentStore.
func (s *Store) Get(ctx context.Context, id string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return decode(id, doc)
}

// Create implements DocumentStore. Timestamps are assigned here, never
// taken from the caller's document.
func (s *Store) Create(ctx context.Context, id string, project *models.Project) error {
	fields, err := encode(project)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; ok {
		return fmt.Errorf("project %s: %w", id, domain.ErrConflict)
	}
	now := s.now()
	s.docs[id] = &document{fields: fields, createdAt: now, updatedAt: now}
	s.notifyLocked(id)
	return nil
}

// MergePatch implements DocumentStore. Only the patch's top-level keys are
// replaced; the edit timestamp is stamped from the store's clock.
func (s *Store) MergePatch(ctx context.Context, id string, patch store.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	for k, v := range patch {
		norm, err := normalize(v)
		if err != nil {
			return fmt.Errorf("patch key %q: %w", k, err)
		}
		doc.fields[k] = norm
	}
	doc.updatedAt = s.now()
	s.notifyLocked(id)
	return nil
}

// Watch implements DocumentStore. The current state arrives as the first
// snapshot; later committed writes are delivered in commit order. A slow
// consumer may miss intermediate snapshots but always observes a newer
// state than the one it last read.
func (s *Store) Watch(ctx context.Context, id string) (<-chan store.Snapshot, store.CancelFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	first, err := decode(id, doc)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan store.Snapshot, watchBuffer)
	ch <- store.Snapshot{ID: id, Project: first}

	key := s.nextID
	s.nextID++
	if s.watchers[id] == nil {
		s.watchers[id] = make(map[int]chan store.Snapshot)
	}
	s.watchers[id][key] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.watchers[id], key)
			close(ch)
		})
	}

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}
	return ch, cancel, nil
}

// ListByOwner implements DocumentStore.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Project
	for id, doc := range s.docs {
		p, err := decode(id, doc)
		if err != nil {
			return nil, err
		}
		if p.OwnerID == ownerID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastEdited.After(out[j].LastEdited)
	})
	if out == nil {
		out = []models.Project{}
	}
	return out, nil
}

func (s *Store) notifyLocked(id string) {
	doc := s.docs[id]
	for _, ch := range s.watchers[id] {
		snap, err := decode(id, doc)
		if err != nil {
			continue
		}
		// On a full buffer, evict the oldest queued snapshot so the
		// newest state is always what a slow consumer eventually reads.
		// Safe without blocking: every sender holds s.mu, and cancel
		// removes the channel from watchers before closing it.
		msg := store.Snapshot{ID: id, Project: snap}
		select {
		case ch <- msg:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- msg:
			default:
			}
		}
	}
}

// encode flattens a project into generic JSON fields so later merge-patch
// writes can address individual top-level keys. Identity and timestamps
// live outside the field map - they are store-assigned.
func encode(p *models.Project) (map[string]any, error) {
	clean := *p
	clean.ID = ""
	clean.CreatedAt = time.Time{}
	clean.LastEdited = time.Time{}

	raw, err := json.Marshal(&clean)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func decode(id string, doc *document) (*models.Project, error) {
	raw, err := json.Marshal(doc.fields)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var p models.Project
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	p.ID = id
	p.CreatedAt = doc.createdAt
	p.LastEdited = doc.updatedAt
	return &p, nil
}

func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
