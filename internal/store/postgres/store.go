// Package postgres implements the document store on Postgres. Documents
// live whole in a JSONB column; merge-patch is the JSONB shallow
// concatenation operator, and the live watch rides LISTEN/NOTIFY with the
// project id as payload.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"frameline/internal/domain"
	"frameline/internal/domain/models"
	"frameline/internal/store"
)

// notifyChannel is the LISTEN/NOTIFY channel carrying changed project ids.
const notifyChannel = "frameline_storyboard_changed"

const watchBuffer = 64

// Store is the Postgres-backed document store.
type Store struct {
	pool   *pgxpool.Pool
	table  string
	logger *slog.Logger
}

// Config holds construction parameters for the store.
type Config struct {
	Pool        *pgxpool.Pool
	TablePrefix string
	Logger      *slog.Logger
}

// New creates a Postgres document store. The table name is prefixed per
// environment (dev_, test_, prod_), matching the deployment's convention.
func New(cfg Config) *Store {
	return &Store{
		pool:   cfg.Pool,
		table:  fmt.Sprintf("%sstoryboards", cfg.TablePrefix),
		logger: cfg.Logger,
	}
}

var _ store.DocumentStore = (*Store)(nil)

// EnsureSchema creates the storyboard table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         text PRIMARY KEY,
			doc        jsonb NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now()
		)
	`, s.table)
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}

	idx := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_owner_idx ON %s ((doc->>'ownerId'))
	`, s.table, s.table)
	if _, err := s.pool.Exec(ctx, idx); err != nil {
		return fmt.Errorf("create owner index: %w", err)
	}
	return nil
}

// Get implements DocumentStore.
func (s *Store) Get(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf(`
		SELECT doc, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, s.table)

	var raw []byte
	var createdAt, updatedAt time.Time
	err := s.pool.QueryRow(ctx, query, id).Scan(&raw, &createdAt, &updatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	return decodeProject(id, raw, createdAt, updatedAt)
}

// Create implements DocumentStore. Set-if-absent: an existing id is a
// conflict, not an overwrite.
func (s *Store) Create(ctx context.Context, id string, project *models.Project) error {
	doc, err := encodeProject(project)
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, doc)
		VALUES ($1, $2::jsonb)
		ON CONFLICT (id) DO NOTHING
	`, s.table)

	result, err := s.pool.Exec(ctx, query, id, doc)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", id, domain.ErrConflict)
	}

	s.notify(ctx, id)
	return nil
}

// MergePatch implements DocumentStore. The JSONB || operator replaces
// exactly the patch's top-level keys and preserves the rest, and the edit
// timestamp comes from the database clock - never from the client.
func (s *Store) MergePatch(ctx context.Context, id string, patch store.Patch) error {
	raw, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET doc = doc || $2::jsonb, updated_at = now()
		WHERE id = $1
	`, s.table)

	result, err := s.pool.Exec(ctx, query, id, raw)
	if err != nil {
		return fmt.Errorf("merge patch: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}

	s.notify(ctx, id)
	return nil
}

// Watch implements DocumentStore. A dedicated connection LISTENs for
// change notifications; each notification for this id triggers a re-read,
// so the feed always carries full snapshots in commit order.
func (s *Store) Watch(ctx context.Context, id string) (<-chan store.Snapshot, store.CancelFunc, error) {
	first, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan store.Snapshot, watchBuffer)
	ch <- store.Snapshot{ID: id, Project: first}

	listenCtx, stop := context.WithCancel(context.Background())
	go s.listen(listenCtx, id, ch)

	var once sync.Once
	cancel := func() { once.Do(stop) }

	if ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				cancel()
			case <-listenCtx.Done():
			}
		}()
	}
	return ch, cancel, nil
}

// ListByOwner implements DocumentStore.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]models.Project, error) {
	query := fmt.Sprintf(`
		SELECT id, doc, created_at, updated_at
		FROM %s
		WHERE doc->>'ownerId' = $1
		ORDER BY updated_at DESC
	`, s.table)

	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var id string
		var raw []byte
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &raw, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p, err := decodeProject(id, raw, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	if projects == nil {
		projects = []models.Project{}
	}
	return projects, nil
}

func (s *Store) listen(ctx context.Context, id string, ch chan store.Snapshot) {
	defer close(ch)

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		s.logger.Error("watch: acquire listen connection", "project_id", id, "error", err)
		return
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		s.logger.Error("watch: listen", "project_id", id, "error", err)
		return
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			// Context cancelled (unsubscribe) or connection lost.
			return
		}
		if notification.Payload != id {
			continue
		}

		project, err := s.Get(ctx, id)
		if err != nil {
			s.logger.Warn("watch: re-read after notify", "project_id", id, "error", err)
			continue
		}
		// On a full buffer, drop the oldest queued snapshot rather than
		// this one: a slow consumer may miss intermediate states but must
		// always end up reading the newest. Only this goroutine sends on
		// or closes ch, so the drain-then-send cannot race a close.
		msg := store.Snapshot{ID: id, Project: project}
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

func (s *Store) notify(ctx context.Context, id string) {
	if _, err := s.pool.Exec(ctx, "SELECT pg_notify($1, $2)", notifyChannel, id); err != nil {
		s.logger.Warn("notify change", "project_id", id, "error", err)
	}
}

func encodeProject(p *models.Project) ([]byte, error) {
	clean := *p
	clean.ID = ""
	clean.CreatedAt = time.Time{}
	clean.LastEdited = time.Time{}
	return json.Marshal(&clean)
}

func decodeProject(id string, raw []byte, createdAt, updatedAt time.Time) (*models.Project, error) {
	var p models.Project
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode project %s: %w", id, err)
	}
	p.ID = id
	p.CreatedAt = createdAt
	p.LastEdited = updatedAt
	return &p, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
