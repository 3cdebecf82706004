package httputil

import (
	"context"
	"net/http"

	"frameline/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const identityKey contextKey = "identity"

// WithIdentity attaches the caller's identity to the request context.
func WithIdentity(r *http.Request, identity models.Identity) *http.Request {
	ctx := context.WithValue(r.Context(), identityKey, identity)
	return r.WithContext(ctx)
}

// GetIdentity retrieves the caller's identity. Requests that never passed
// the auth middleware resolve to the anonymous guest identity.
func GetIdentity(r *http.Request) models.Identity {
	if identity, ok := r.Context().Value(identityKey).(models.Identity); ok {
		return identity
	}
	return models.Guest()
}
