package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDevTokenRoundTrip(t *testing.T) {
	svc, err := NewDevTokenService(DevTokenConfig{
		Secret: "test-secret",
		Issuer: "taskrythm-dev",
	})
	require.NoError(t, err)

	token, err := svc.Generate(TokenInput{
		Subject: "user-1",
		Email:   "user@example.com",
		Name:    "User One",
	})
	require.NoError(t, err)

	claims, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "user@example.com", claims.Email)
	require.Equal(t, "User One", claims.Name)
}

func TestDevTokenRejectsWrongIssuer(t *testing.T) {
	minter, err := NewDevTokenService(DevTokenConfig{Secret: "test-secret", Issuer: "other-issuer"})
	require.NoError(t, err)
	verifier, err := NewDevTokenService(DevTokenConfig{Secret: "test-secret", Issuer: "taskrythm-dev"})
	require.NoError(t, err)

	token, err := minter.Generate(TokenInput{Subject: "user-1"})
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), token)
	require.Error(t, err)
}

func TestDevTokenRejectsWrongSecret(t *testing.T) {
	minter, err := NewDevTokenService(DevTokenConfig{Secret: "secret-a", Issuer: "taskrythm-dev"})
	require.NoError(t, err)
	verifier, err := NewDevTokenService(DevTokenConfig{Secret: "secret-b", Issuer: "taskrythm-dev"})
	require.NoError(t, err)

	token, err := minter.Generate(TokenInput{Subject: "user-1"})
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), token)
	require.Error(t, err)
}

func TestDevTokenExpiry(t *testing.T) {
	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, err := NewDevTokenService(DevTokenConfig{
		Secret: "test-secret",
		Issuer: "taskrythm-dev",
		TTL:    time.Hour,
		Clock:  func() time.Time { return current },
	})
	require.NoError(t, err)

	token, err := svc.Generate(TokenInput{Subject: "user-1"})
	require.NoError(t, err)

	current = current.Add(2 * time.Hour)

	_, err = svc.Verify(context.Background(), token)
	require.Error(t, err)
}

func TestDevTokenGenerateRequiresSubject(t *testing.T) {
	svc, err := NewDevTokenService(DevTokenConfig{Secret: "test-secret"})
	require.NoError(t, err)

	_, err = svc.Generate(TokenInput{Email: "noone@example.com"})
	require.Error(t, err)
}
