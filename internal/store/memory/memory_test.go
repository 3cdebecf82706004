package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"frameline/internal/domain"
	"frameline/internal/domain/models"
	"frameline/internal/store"
)

func seeded(t *testing.T, id string) *Store {
	t.Helper()
	s := New()
	if err := s.Create(context.Background(), id, models.NewProject("owner-1", "Board")); err != nil {
		t.Fatalf("create: %v", err)
	}
	return s
}

func TestCreateGetRoundTrip(t *testing.T) {
	s := seeded(t, "p1")

	got, err := s.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "p1" {
		t.Errorf("ID = %q, want p1", got.ID)
	}
	if got.ProjectTitle != "Board" || got.OwnerID != "owner-1" {
		t.Errorf("document fields lost: %+v", got)
	}
	if got.CreatedAt.IsZero() || got.LastEdited.IsZero() {
		t.Error("timestamps not assigned on create")
	}
}

func TestCreateIsSetIfAbsent(t *testing.T) {
	s := seeded(t, "p1")

	err := s.Create(context.Background(), "p1", models.NewProject("owner-2", "Imposter"))
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	got, err := s.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.OwnerID != "owner-1" {
		t.Errorf("existing document was overwritten: owner = %q", got.OwnerID)
	}
}

func TestGetMissing(t *testing.T) {
	s := New()
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMergePatchTouchesOnlyNamedKeys(t *testing.T) {
	s := seeded(t, "p1")

	err := s.MergePatch(context.Background(), "p1", store.Patch{"projectTitle": "Renamed"})
	if err != nil {
		t.Fatalf("merge patch: %v", err)
	}

	got, err := s.Get(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ProjectTitle != "Renamed" {
		t.Errorf("ProjectTitle = %q, want Renamed", got.ProjectTitle)
	}
	// Unnamed keys survive untouched.
	if got.OwnerID != "owner-1" {
		t.Errorf("OwnerID = %q, unrelated key was clobbered", got.OwnerID)
	}
	if got.AspectRatio != models.AspectWide {
		t.Errorf("AspectRatio = %q, unrelated key was clobbered", got.AspectRatio)
	}
	if len(got.Sequences) != 1 {
		t.Errorf("Sequences lost: %+v", got.Sequences)
	}
}

func TestMergePatchStampsServerTime(t *testing.T) {
	s := seeded(t, "p1")

	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	if err := s.MergePatch(context.Background(), "p1", store.Patch{"projectTitle": "x"}); err != nil {
		t.Fatalf("merge patch: %v", err)
	}
	got, _ := s.Get(context.Background(), "p1")
	if !got.LastEdited.Equal(base) {
		t.Errorf("LastEdited = %v, want the store clock %v", got.LastEdited, base)
	}
}

func TestMergePatchMissing(t *testing.T) {
	s := New()
	err := s.MergePatch(context.Background(), "nope", store.Patch{"projectTitle": "x"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestWatchDeliversCurrentStateFirst(t *testing.T) {
	s := seeded(t, "p1")

	snaps, cancel, err := s.Watch(context.Background(), "p1")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer cancel()

	select {
	case snap := <-snaps:
		if snap.ID != "p1" || snap.Project.ProjectTitle != "Board" {
			t.Errorf("first snapshot = %+v, want current state", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("first snapshot never arrived")
	}
}

func TestWatchDeliversCommittedWrites(t *testing.T) {
	s := seeded(t, "p1")

	snaps, cancel, err := s.Watch(context.Background(), "p1")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer cancel()
	<-snaps // current state

	if err := s.MergePatch(context.Background(), "p1", store.Patch{"projectTitle": "after"}); err != nil {
		t.Fatalf("merge patch: %v", err)
	}

	select {
	case snap := <-snaps:
		if snap.Project.ProjectTitle != "after" {
			t.Errorf("snapshot title = %q, want after", snap.Project.ProjectTitle)
		}
	case <-time.After(time.Second):
		t.Fatal("committed write never reached the watcher")
	}
}

func TestWatchMissingDocument(t *testing.T) {
	s := New()
	_, _, err := s.Watch(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestWatchCancelIsIdempotent(t *testing.T) {
	s := seeded(t, "p1")

	snaps, cancel, err := s.Watch(context.Background(), "p1")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	cancel()
	cancel() // must not panic

	// Channel is closed; writes after cancel reach nobody.
	if err := s.MergePatch(context.Background(), "p1", store.Patch{"projectTitle": "x"}); err != nil {
		t.Fatalf("merge patch: %v", err)
	}
	for range snaps {
	}
}

func TestWatchSlowConsumerKeepsNewestState(t *testing.T) {
	s := seeded(t, "p1")

	snaps, cancel, err := s.Watch(context.Background(), "p1")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer cancel()

	// Overrun the buffer without draining. Intermediate states may be
	// dropped, but the last committed write must still be delivered.
	writes := watchBuffer + 37
	for i := 0; i < writes; i++ {
		title := fmt.Sprintf("draft %d", i)
		if i == writes-1 {
			title = "final"
		}
		if err := s.MergePatch(context.Background(), "p1", store.Patch{"projectTitle": title}); err != nil {
			t.Fatalf("merge patch %d: %v", i, err)
		}
	}
	cancel()

	var last string
	for snap := range snaps {
		last = snap.Project.ProjectTitle
	}
	if last != "final" {
		t.Errorf("last delivered title = %q, want the newest committed state", last)
	}
}

func TestWatchContextCancellation(t *testing.T) {
	s := seeded(t, "p1")

	ctx, cancelCtx := context.WithCancel(context.Background())
	snaps, cancel, err := s.Watch(ctx, "p1")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer cancel()

	cancelCtx()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-snaps:
			if !ok {
				return // closed by context
			}
		case <-deadline:
			t.Fatal("feed not closed after context cancellation")
		}
	}
}

func TestListByOwner(t *testing.T) {
	s := New()
	ctx := context.Background()

	times := []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	i := 0
	s.now = func() time.Time { at := times[i]; i++; return at }

	if err := s.Create(ctx, "old", models.NewProject("u1", "Old")); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(ctx, "theirs", models.NewProject("u2", "Theirs")); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(ctx, "new", models.NewProject("u1", "New")); err != nil {
		t.Fatal(err)
	}

	got, err := s.ListByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "new" || got[1].ID != "old" {
		t.Errorf("order = [%s %s], want newest edited first", got[0].ID, got[1].ID)
	}

	none, err := s.ListByOwner(ctx, "nobody")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("ListByOwner(nobody) = %v, want empty non-nil slice", none)
	}
}

func TestMediaSurvivesStorageRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	p := models.NewProject("u1", "Board")
	frame := models.NewFrame()
	frame.Media = models.ImageMedia("https://cdn/img.png")
	p.Sequences[0].Frames = []models.Frame{frame}

	if err := s.Create(ctx, "p1", p); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	media := got.Sequences[0].Frames[0].Media
	if media.Kind != models.MediaImage || media.URL != "https://cdn/img.png" {
		t.Errorf("Media = %+v, want image preserved through encode/decode", media)
	}
}
