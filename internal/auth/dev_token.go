package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultDevTokenTTL defines the fallback validity period for dev tokens.
const DefaultDevTokenTTL = 12 * time.Hour

// DevTokenConfig bundles the configuration required to build a DevTokenService.
type DevTokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
	Clock  func() time.Time
}

// devClaims mirrors the identity-provider claim set for locally minted tokens.
type devClaims struct {
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	Scope   string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// DevTokenService issues and validates HS256 bearer tokens for local
// development and tests, standing in for the external identity provider.
type DevTokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewDevTokenService constructs a DevTokenService instance.
func NewDevTokenService(cfg DevTokenConfig) (*DevTokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("dev token: secret must be provided")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultDevTokenTTL
	}

	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}

	return &DevTokenService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    now,
	}, nil
}

// TokenInput holds the parameters used when generating a new dev token.
type TokenInput struct {
	Subject string
	Email   string
	Name    string
	Picture string
	Scope   string
}

// Generate issues a signed token carrying the supplied identity claims.
func (s *DevTokenService) Generate(input TokenInput) (string, error) {
	if input.Subject == "" {
		return "", errors.New("dev token: subject is required")
	}

	now := s.now()
	claims := &devClaims{
		Email:   input.Email,
		Name:    input.Name,
		Picture: input.Picture,
		Scope:   input.Scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   input.Subject,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("dev token: sign token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a signed token, returning the application claims.
func (s *DevTokenService) Verify(_ context.Context, rawToken string) (*Claims, error) {
	if rawToken == "" {
		return nil, errors.New("dev token: token string is empty")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	var claims devClaims
	_, err := parser.ParseWithClaims(rawToken, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("dev token: parse token: %w", err)
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, errors.New("dev token: invalid issuer")
	}

	if claims.Subject == "" {
		return nil, errors.New("dev token: missing subject claim")
	}

	return &Claims{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
		Scope:   claims.Scope,
	}, nil
}
