package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	iauth "github.com/taskrythm/taskrythm/internal/auth"
	"github.com/taskrythm/taskrythm/internal/models"
	apperrors "github.com/taskrythm/taskrythm/pkg/errors"
)

func TestEnsureUserCreatesAndIsIdempotent(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	claims := &iauth.Claims{
		Subject: "idp|alice",
		Email:   "Alice@Example.com",
		Name:    "Alice",
		Picture: "https://avatars.example.com/alice.png",
	}

	first, err := stack.identity.EnsureUser(ctx, claims)
	require.NoError(t, err)
	require.Equal(t, "idp|alice", first.ExternalID)
	require.Equal(t, "alice@example.com", first.Email)
	require.Equal(t, "Alice", first.Name)

	second, err := stack.identity.EnsureUser(ctx, claims)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, stack.db.Model(&models.User{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestEnsureUserLinksByEmail(t *testing.T) {
	stack := newTestStack(t)
	ctx := context.Background()

	existing := &models.User{
		ExternalID: "old-provider|bob",
		Email:      "bob@example.com",
		Name:       "Bob",
	}
	require.NoError(t, stack.db.Create(existing).Error)

	// A new identity provider issues a different subject for the same email.
	user, err := stack.identity.EnsureUser(ctx, &iauth.Claims{
		Subject: "new-provider|bob",
		Email:   "bob@example.com",
		Name:    "Robert",
	})
	require.NoError(t, err)
	require.Equal(t, existing.ID, user.ID)

	var reloaded models.User
	require.NoError(t, stack.db.First(&reloaded, "id = ?", existing.ID).Error)
	require.Equal(t, "new-provider|bob", reloaded.ExternalID)
	require.Equal(t, "Robert", reloaded.Name)
}

func TestEnsureUserSynthesizesPlaceholderEmail(t *testing.T) {
	stack := newTestStack(t)

	user, err := stack.identity.EnsureUser(context.Background(), &iauth.Claims{Subject: "svc-account-1"})
	require.NoError(t, err)
	require.Equal(t, "svc-account-1@placeholder.local", user.Email)
}

func TestEnsureUserRejectsMissingSubject(t *testing.T) {
	stack := newTestStack(t)

	_, err := stack.identity.EnsureUser(context.Background(), &iauth.Claims{Email: "nobody@example.com"})
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = stack.identity.EnsureUser(context.Background(), nil)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
