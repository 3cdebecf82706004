package service

import (
	"context"
	"errors"
	"testing"

	"frameline/internal/domain"
	"frameline/internal/domain/models"
	"frameline/internal/store"
	"frameline/internal/store/memory"
)

func sharedBoard(t *testing.T) store.DocumentStore {
	t.Helper()
	s := memory.New()
	p := models.NewProject("owner-1", "Board")
	p.Roles["viewer-1"] = models.RoleViewer
	p.Roles["editor-1"] = models.RoleEditor
	if err := s.Create(context.Background(), "p1", p); err != nil {
		t.Fatalf("create: %v", err)
	}
	return s
}

func identity(id string) models.Identity {
	return models.Identity{ID: id}
}

func TestAuthorizedStoreGet(t *testing.T) {
	inner := sharedBoard(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		identity models.Identity
		wantErr  bool
	}{
		{"owner reads", identity("owner-1"), false},
		{"viewer reads", identity("viewer-1"), false},
		{"editor reads", identity("editor-1"), false},
		{"stranger denied", identity("stranger"), true},
		{"anonymous denied", models.Guest(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ForIdentity(inner, tt.identity).Get(ctx, "p1")
			if tt.wantErr {
				if !errors.Is(err, domain.ErrPermissionDenied) {
					t.Errorf("err = %v, want ErrPermissionDenied", err)
				}
			} else if err != nil {
				t.Errorf("err = %v, want nil", err)
			}
		})
	}
}

func TestAuthorizedStoreWriteNeedsEditor(t *testing.T) {
	inner := sharedBoard(t)
	ctx := context.Background()
	patch := store.Patch{"projectTitle": "x"}

	if err := ForIdentity(inner, identity("viewer-1")).MergePatch(ctx, "p1", patch); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("viewer write err = %v, want ErrPermissionDenied", err)
	}
	if err := ForIdentity(inner, identity("editor-1")).MergePatch(ctx, "p1", patch); err != nil {
		t.Errorf("editor write err = %v, want nil", err)
	}
}

func TestAuthorizedStorePublicAccess(t *testing.T) {
	inner := sharedBoard(t)
	ctx := context.Background()

	// Restricted: anonymous cannot even watch.
	if _, _, err := ForIdentity(inner, models.Guest()).Watch(ctx, "p1"); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("watch err = %v, want ErrPermissionDenied", err)
	}

	// Opening the share link changes that.
	if err := inner.MergePatch(ctx, "p1", store.Patch{"publicAccess": models.PublicAccessViewer}); err != nil {
		t.Fatalf("merge patch: %v", err)
	}
	snaps, cancel, err := ForIdentity(inner, models.Guest()).Watch(ctx, "p1")
	if err != nil {
		t.Fatalf("watch err = %v, want nil for public viewer", err)
	}
	cancel()
	for range snaps {
	}

	// Viewer-level share still refuses writes.
	err = ForIdentity(inner, models.Guest()).MergePatch(ctx, "p1", store.Patch{"projectTitle": "x"})
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("anonymous write err = %v, want ErrPermissionDenied", err)
	}
}

func TestAuthorizedStoreNotFoundStaysNotFound(t *testing.T) {
	inner := sharedBoard(t)
	scoped := ForIdentity(inner, identity("stranger"))

	// A missing document is not disguised as a permission failure.
	_, err := scoped.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("err = %v, must not be ErrPermissionDenied", err)
	}
}

func TestAuthorizedStoreCreateBlocksAnonymous(t *testing.T) {
	inner := memory.New()
	err := ForIdentity(inner, models.Guest()).Create(context.Background(), "p1", models.NewProject("", "Board"))
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestAuthorizedStoreListScoping(t *testing.T) {
	inner := sharedBoard(t)
	scoped := ForIdentity(inner, identity("viewer-1"))

	if _, err := scoped.ListByOwner(context.Background(), "owner-1"); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("listing another user's boards: err = %v, want ErrPermissionDenied", err)
	}
	if _, err := scoped.ListByOwner(context.Background(), "viewer-1"); err != nil {
		t.Errorf("listing own boards: err = %v, want nil", err)
	}
}
