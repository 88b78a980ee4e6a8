package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCOptions configures the behaviour of the OIDC verifier.
type OIDCOptions struct {
	Issuer     string
	Audience   string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// OIDCVerifier validates bearer tokens against the identity provider's
// published signing keys. Discovery and JWKS fetching (with caching) are
// handled by the underlying oidc provider.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier performs provider discovery and prepares a token verifier.
func NewOIDCVerifier(ctx context.Context, opts OIDCOptions) (*OIDCVerifier, error) {
	issuer := strings.TrimSpace(opts.Issuer)
	if issuer == "" {
		return nil, errors.New("oidc: issuer is required")
	}
	audience := strings.TrimSpace(opts.Audience)
	if audience == "" {
		return nil, errors.New("oidc: audience is required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	if opts.HTTPClient != nil {
		ctx = oidc.ClientContext(ctx, opts.HTTPClient)
	}

	discoveryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	provider, err := oidc.NewProvider(discoveryCtx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc: discovery failed: %w", err)
	}

	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: audience}),
	}, nil
}

// Verify validates the token signature, issuer, audience, and expiry, then
// extracts the profile claims the application cares about.
func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("oidc: verify token: %w", err)
	}

	var payload struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
		Scope   string `json:"scope"`
	}
	if err := token.Claims(&payload); err != nil {
		return nil, fmt.Errorf("oidc: decode claims: %w", err)
	}

	return &Claims{
		Subject: token.Subject,
		Email:   payload.Email,
		Name:    payload.Name,
		Picture: payload.Picture,
		Scope:   payload.Scope,
	}, nil
}
