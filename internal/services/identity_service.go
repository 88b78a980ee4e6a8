package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	iauth "github.com/taskrythm/taskrythm/internal/auth"
	"github.com/taskrythm/taskrythm/internal/models"
	apperrors "github.com/taskrythm/taskrythm/pkg/errors"
)

// IdentityService maps identity-provider subjects onto local user rows.
type IdentityService struct {
	db *gorm.DB
}

// NewIdentityService constructs an IdentityService instance.
func NewIdentityService(db *gorm.DB) (*IdentityService, error) {
	if db == nil {
		return nil, errors.New("identity service: db is required")
	}
	return &IdentityService{db: db}, nil
}

// EnsureUser returns the local user for the supplied token claims, creating
// or backfilling the row as needed. Lookup order: external id, then email
// (which covers identity-provider migrations by attaching the new external
// id to the existing row). Idempotent: at most one insert or update per call.
func (s *IdentityService) EnsureUser(ctx context.Context, claims *iauth.Claims) (*models.User, error) {
	ctx = ensureContext(ctx)

	if claims == nil || strings.TrimSpace(claims.Subject) == "" {
		return nil, apperrors.ErrUnauthorized
	}

	externalID := strings.TrimSpace(claims.Subject)
	email := strings.TrimSpace(strings.ToLower(claims.Email))

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "external_id = ?", externalID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("identity service: lookup by external id: %w", err)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) && email != "" {
		err = s.db.WithContext(ctx).First(&user, "email = ?", email).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("identity service: lookup by email: %w", err)
		}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			ExternalID: externalID,
			Email:      email,
			Name:       strings.TrimSpace(claims.Name),
			AvatarURL:  strings.TrimSpace(claims.Picture),
		}
		if user.Email == "" {
			user.Email = fmt.Sprintf("%s@placeholder.local", externalID)
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, fmt.Errorf("identity service: create user: %w", err)
		}
		return &user, nil
	}

	// Patch any local field that drifted from the freshly supplied claims.
	updates := map[string]any{}
	if user.ExternalID != externalID {
		updates["external_id"] = externalID
	}
	if email != "" && user.Email != email {
		updates["email"] = email
	}
	if name := strings.TrimSpace(claims.Name); name != "" && user.Name != name {
		updates["name"] = name
	}
	if avatar := strings.TrimSpace(claims.Picture); avatar != "" && user.AvatarURL != avatar {
		updates["avatar_url"] = avatar
	}

	if len(updates) == 0 {
		return &user, nil
	}

	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("identity service: update user: %w", err)
	}

	return &user, nil
}

// GetByID loads a user row by its local identifier.
func (s *IdentityService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("identity service: load user: %w", err)
	}
	return &user, nil
}
