package auth

import "frameline/internal/domain/models"

// TokenVerifier validates bearer tokens from the auth provider and yields
// the caller's identity. Kept as an interface so handlers and middleware
// can run against a stub in tests.
type TokenVerifier interface {
	// VerifyToken validates a JWT and returns the parsed claims. Returns
	// an error if the token is invalid, expired, or signed with the wrong
	// key.
	VerifyToken(tokenString string) (*models.AuthClaims, error)

	// Close releases any resources held by the verifier.
	Close() error
}
