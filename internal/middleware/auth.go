package middleware

import (
	"net/http"
	"strings"

	"frameline/internal/auth"
	"frameline/internal/domain/models"
	"frameline/internal/httputil"
)

// Auth resolves the caller's identity. A valid bearer token yields the
// authenticated identity; a request without credentials proceeds as an
// anonymous guest - share-link holders never sign in, and per-project
// access is decided downstream from roles and publicAccess. Only a token
// that is present but invalid is rejected. A nil verifier (dev mode)
// treats every request as a guest.
func Auth(verifier auth.TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || verifier == nil {
				next.ServeHTTP(w, httputil.WithIdentity(r, models.Guest()))
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				httputil.RespondError(w, http.StatusUnauthorized, "malformed Authorization header")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, httputil.WithIdentity(r, claims.Identity()))
		})
	}
}
