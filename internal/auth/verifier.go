package auth

import "context"

// Claims carries the identity attributes extracted from a validated bearer token.
type Claims struct {
	Subject string
	Email   string
	Name    string
	Picture string
	Scope   string
}

// TokenVerifier validates a raw bearer token and returns its identity claims.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Claims, error)
}
