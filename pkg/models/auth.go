package models

import (
	"time"
)

// Principal is the validated identity behind a node or controller
// connection. The relay trusts it as produced by the identity provider.
type Principal struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Provider string    `json:"provider"`
	IssuedAt time.Time `json:"issued_at,omitempty"`
}

// AuthConfig configures the identity provider adapter. When JWTSecret is set
// bearer tokens are verified as JWTs; StaticTokens maps opaque tokens to
// principal names for deployments without an OAuth2 server.
type AuthConfig struct {
	JWTSecret    string            `json:"jwt_secret,omitempty"`
	StaticTokens map[string]string `json:"static_tokens,omitempty"`
}
