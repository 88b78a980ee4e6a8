package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/taskrythm/taskrythm/internal/models"
	apperrors "github.com/taskrythm/taskrythm/pkg/errors"
)

const (
	defaultInviteExpiry     = 72 * time.Hour
	defaultInviteTokenBytes = 32
)

var (
	// ErrInviteNotFound indicates no invite matches the provided token or id.
	ErrInviteNotFound = apperrors.New("INVITE_NOT_FOUND", "Invite not found", http.StatusNotFound)
	// ErrInviteExpired indicates the invite token has expired.
	ErrInviteExpired = apperrors.New("INVITE_EXPIRED", "Invite has expired", http.StatusBadRequest)
	// ErrInviteAlreadyUsed signals that the invite has already been accepted.
	ErrInviteAlreadyUsed = apperrors.New("INVITE_USED", "Invite has already been accepted", http.StatusBadRequest)
)

// InviteOption customises InviteService behaviour.
type InviteOption func(*InviteService)

// WithInviteExpiry overrides the invite token lifetime.
func WithInviteExpiry(d time.Duration) InviteOption {
	return func(s *InviteService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithInviteClock injects a custom clock primarily for testing.
func WithInviteClock(clock func() time.Time) InviteOption {
	return func(s *InviteService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// InviteService manages generation and consumption of workspace invite tokens.
type InviteService struct {
	db       *gorm.DB
	resolver *Resolver
	activity *ActivityService
	expiry   time.Duration
	now      func() time.Time
}

// NewInviteService constructs an InviteService with the provided dependencies.
func NewInviteService(db *gorm.DB, resolver *Resolver, activity *ActivityService, opts ...InviteOption) (*InviteService, error) {
	if db == nil {
		return nil, errors.New("invite service: db is required")
	}
	if resolver == nil {
		return nil, errors.New("invite service: resolver is required")
	}

	service := &InviteService{
		db:       db,
		resolver: resolver,
		activity: activity,
		expiry:   defaultInviteExpiry,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// CreatedInvite pairs a stored invite with the raw token, which is only
// available at creation time.
type CreatedInvite struct {
	Invite models.WorkspaceInvite
	Token  string
}

// Create issues an invite for the workspace at the given role. Requires
// ADMIN or OWNER. The raw token is returned once and stored only as a hash.
func (s *InviteService) Create(ctx context.Context, userID, workspaceID, email string, role models.WorkspaceRole) (*CreatedInvite, error) {
	ctx = ensureContext(ctx)

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, apperrors.NewBadRequest("invite email is required")
	}
	if !role.Valid() {
		return nil, apperrors.NewBadRequest("unknown workspace role")
	}

	if _, err := s.resolver.EnsureRole(ctx, userID, workspaceID, RolesManager...); err != nil {
		return nil, err
	}

	token, err := generateInviteToken()
	if err != nil {
		return nil, fmt.Errorf("invite service: generate token: %w", err)
	}

	invite := models.WorkspaceInvite{
		WorkspaceID: workspaceID,
		Email:       email,
		Role:        role,
		TokenHash:   HashInviteToken(token),
		InvitedBy:   userID,
		ExpiresAt:   s.now().Add(s.expiry),
	}

	if err := s.db.WithContext(ctx).Create(&invite).Error; err != nil {
		return nil, fmt.Errorf("invite service: create invite: %w", err)
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Type:        "invite.create",
		Message:     fmt.Sprintf("invited %s as %s", email, role),
	})

	return &CreatedInvite{Invite: invite, Token: token}, nil
}

// List returns the workspace's pending and accepted invites. Requires ADMIN or OWNER.
func (s *InviteService) List(ctx context.Context, userID, workspaceID string) ([]models.WorkspaceInvite, error) {
	ctx = ensureContext(ctx)

	if _, err := s.resolver.EnsureRole(ctx, userID, workspaceID, RolesManager...); err != nil {
		return nil, err
	}

	var invites []models.WorkspaceInvite
	err := s.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Find(&invites).Error
	if err != nil {
		return nil, fmt.Errorf("invite service: list invites: %w", err)
	}

	return invites, nil
}

// Revoke deletes an unaccepted invite. Requires ADMIN or OWNER in the
// invite's workspace.
func (s *InviteService) Revoke(ctx context.Context, userID, inviteID string) error {
	ctx = ensureContext(ctx)

	var invite models.WorkspaceInvite
	err := s.db.WithContext(ctx).First(&invite, "id = ?", inviteID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInviteNotFound
	}
	if err != nil {
		return fmt.Errorf("invite service: load invite: %w", err)
	}

	if _, err := s.resolver.EnsureRole(ctx, userID, invite.WorkspaceID, RolesManager...); err != nil {
		return err
	}

	if invite.AcceptedAt != nil {
		return ErrInviteAlreadyUsed
	}

	if err := s.db.WithContext(ctx).Delete(&invite).Error; err != nil {
		return fmt.Errorf("invite service: delete invite: %w", err)
	}

	return nil
}

// Accept redeems a token for a membership at the invite's role. The token is
// the sole capability: the accepting identity's email is not compared with
// the invited address. Accepting while already a member is a no-op.
func (s *InviteService) Accept(ctx context.Context, userID, token string) (*models.WorkspaceMember, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(token) == "" {
		return nil, apperrors.NewBadRequest("invite token is required")
	}

	var invite models.WorkspaceInvite
	err := s.db.WithContext(ctx).First(&invite, "token_hash = ?", HashInviteToken(token)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("invite service: load invite: %w", err)
	}

	if invite.AcceptedAt != nil {
		return nil, ErrInviteAlreadyUsed
	}
	if s.now().After(invite.ExpiresAt) {
		return nil, ErrInviteExpired
	}

	var member models.WorkspaceMember
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lookupErr := tx.First(&member, "workspace_id = ? AND user_id = ?", invite.WorkspaceID, userID).Error
		switch {
		case lookupErr == nil:
			// Already a member: keep the existing role untouched.
		case errors.Is(lookupErr, gorm.ErrRecordNotFound):
			member = models.WorkspaceMember{
				WorkspaceID: invite.WorkspaceID,
				UserID:      userID,
				Role:        invite.Role,
			}
			if err := tx.Create(&member).Error; err != nil {
				return fmt.Errorf("invite service: create membership: %w", err)
			}
		default:
			return fmt.Errorf("invite service: lookup membership: %w", lookupErr)
		}

		acceptedAt := s.now()
		if err := tx.Model(&invite).Update("accepted_at", acceptedAt).Error; err != nil {
			return fmt.Errorf("invite service: mark accepted: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	recordActivity(s.activity, ctx, ActivityEntry{
		WorkspaceID: invite.WorkspaceID,
		UserID:      userID,
		Type:        "member.join",
		Message:     "joined the workspace via invite",
		Payload:     map[string]any{"role": member.Role},
	})

	return &member, nil
}

// CleanupExpired removes expired invites that were never accepted.
func (s *InviteService) CleanupExpired(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("accepted_at IS NULL AND expires_at < ?", s.now()).
		Delete(&models.WorkspaceInvite{})
	if result.Error != nil {
		return 0, fmt.Errorf("invite service: cleanup invites: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func generateInviteToken() (string, error) {
	buf := make([]byte, defaultInviteTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
