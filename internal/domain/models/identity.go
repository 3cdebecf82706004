package models

import "github.com/golang-jwt/jwt/v5"

// Identity is the opaque user identity supplied by the auth provider.
// Anonymous identities represent share-link holders who never signed in.
type Identity struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Anonymous bool   `json:"anonymous"`
}

// Guest returns the identity used for requests carrying no credentials.
func Guest() Identity {
	return Identity{Anonymous: true}
}

// DisplayName returns the name to attribute comments and presence to.
func (i Identity) DisplayName() string {
	switch {
	case i.Name != "":
		return i.Name
	case i.Email != "":
		return i.Email
	default:
		return "Anonymous"
	}
}

// AuthClaims is the JWT claims structure issued by the auth provider.
type AuthClaims struct {
	jwt.RegisteredClaims
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// Identity converts verified claims into the identity handed to services.
func (c *AuthClaims) Identity() Identity {
	return Identity{
		ID:        c.Subject,
		Name:      c.Name,
		Email:     c.Email,
		Anonymous: c.IsAnonymous,
	}
}
