package service

import (
	"context"
	"fmt"

	"frameline/internal/domain"
	"frameline/internal/domain/models"
	"frameline/internal/store"
)

// authorizedStore enforces a caller's effective role in front of the
// document store, mirroring the store-side security rules of the hosted
// deployment: reads need viewer, writes need editor. Wrapping the store
// rather than the handlers means a sync controller subscribed through it
// surfaces permission failures as its own error state, distinct from
// not-found.
type authorizedStore struct {
	inner    store.DocumentStore
	identity models.Identity
}

// ForIdentity wraps a document store with access checks for one caller.
func ForIdentity(inner store.DocumentStore, identity models.Identity) store.DocumentStore {
	return &authorizedStore{inner: inner, identity: identity}
}

func (a *authorizedStore) Get(ctx context.Context, id string) (*models.Project, error) {
	p, err := a.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.RoleFor(a.identity.ID).CanView() {
		return nil, denied(id)
	}
	return p, nil
}

func (a *authorizedStore) Create(ctx context.Context, id string, project *models.Project) error {
	if a.identity.Anonymous || a.identity.ID == "" {
		return &domain.PermissionDeniedError{Message: "sign in to create a storyboard"}
	}
	return a.inner.Create(ctx, id, project)
}

func (a *authorizedStore) MergePatch(ctx context.Context, id string, patch store.Patch) error {
	p, err := a.inner.Get(ctx, id)
	if err != nil {
		return err
	}
	if !p.RoleFor(a.identity.ID).CanEdit() {
		return denied(id)
	}
	return a.inner.MergePatch(ctx, id, patch)
}

func (a *authorizedStore) Watch(ctx context.Context, id string) (<-chan store.Snapshot, store.CancelFunc, error) {
	p, err := a.inner.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !p.RoleFor(a.identity.ID).CanView() {
		return nil, nil, denied(id)
	}
	return a.inner.Watch(ctx, id)
}

func (a *authorizedStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Project, error) {
	if ownerID != a.identity.ID {
		return nil, &domain.PermissionDeniedError{Message: "cannot list another user's storyboards"}
	}
	return a.inner.ListByOwner(ctx, ownerID)
}

func denied(id string) error {
	return &domain.PermissionDeniedError{
		Message: fmt.Sprintf("you do not have access to storyboard %s", id),
	}
}
