package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/taskrythm/taskrythm/internal/models"
	"github.com/taskrythm/taskrythm/pkg/logger"
)

// ActivityEntry captures a single activity event to persist.
type ActivityEntry struct {
	WorkspaceID string
	ProjectID   string
	TaskID      *string
	UserID      string
	Type        string
	Message     string
	Payload     map[string]any
}

// ActivityListOptions controls pagination for activity queries.
type ActivityListOptions struct {
	Page     int
	PageSize int
}

// ActivityService persists and retrieves the append-only activity trail.
type ActivityService struct {
	db *gorm.DB
}

// NewActivityService constructs an ActivityService using the provided database handle.
func NewActivityService(db *gorm.DB) (*ActivityService, error) {
	if db == nil {
		return nil, errors.New("activity service: db is required")
	}
	return &ActivityService{db: db}, nil
}

// Append stores an activity entry, marshalling the payload into JSON form.
func (s *ActivityService) Append(ctx context.Context, entry ActivityEntry) error {
	return appendActivity(s.db.WithContext(ensureContext(ctx)), entry)
}

// appendActivity writes an entry through the supplied handle so callers can
// include the append inside a wider transaction.
func appendActivity(tx *gorm.DB, entry ActivityEntry) error {
	if strings.TrimSpace(entry.Type) == "" {
		return errors.New("activity service: type is required")
	}
	if strings.TrimSpace(entry.WorkspaceID) == "" {
		return errors.New("activity service: workspace id is required")
	}

	var payload datatypes.JSON
	if entry.Payload != nil {
		encoded, err := json.Marshal(entry.Payload)
		if err != nil {
			return fmt.Errorf("activity service: marshal payload: %w", err)
		}
		payload = datatypes.JSON(encoded)
	}

	row := models.ActivityLog{
		WorkspaceID: entry.WorkspaceID,
		ProjectID:   entry.ProjectID,
		TaskID:      entry.TaskID,
		UserID:      entry.UserID,
		Type:        strings.TrimSpace(entry.Type),
		Message:     strings.TrimSpace(entry.Message),
		Payload:     payload,
	}

	return tx.Create(&row).Error
}

// recordActivity appends an entry outside a transaction, logging failures
// instead of failing the caller's request.
func recordActivity(svc *ActivityService, ctx context.Context, entry ActivityEntry) {
	if svc == nil {
		return
	}
	if err := svc.Append(ctx, entry); err != nil {
		logger.WithModule("activity").Warn("failed to record activity: " + err.Error())
	}
}

// ListByWorkspace returns paginated activity for a workspace, newest first.
func (s *ActivityService) ListByWorkspace(ctx context.Context, workspaceID string, opts ActivityListOptions) ([]models.ActivityLog, int64, error) {
	return s.list(ctx, "workspace_id = ?", workspaceID, opts)
}

// ListByProject returns paginated activity for a project, newest first.
func (s *ActivityService) ListByProject(ctx context.Context, projectID string, opts ActivityListOptions) ([]models.ActivityLog, int64, error) {
	return s.list(ctx, "project_id = ?", projectID, opts)
}

// ListByTask returns paginated activity for a task, newest first.
func (s *ActivityService) ListByTask(ctx context.Context, taskID string, opts ActivityListOptions) ([]models.ActivityLog, int64, error) {
	return s.list(ctx, "task_id = ?", taskID, opts)
}

func (s *ActivityService) list(ctx context.Context, cond string, arg string, opts ActivityListOptions) ([]models.ActivityLog, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	var (
		results []models.ActivityLog
		total   int64
	)

	query := s.db.WithContext(ctx).Model(&models.ActivityLog{}).Where(cond, arg)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("activity service: count entries: %w", err)
	}

	if err := query.
		Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("activity service: list entries: %w", err)
	}

	return results, total, nil
}

// CleanupOlderThan removes activity entries older than the supplied retention window (in days).
func (s *ActivityService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	ctx = ensureContext(ctx)

	if retentionDays <= 0 {
		return 0, errors.New("activity service: retentionDays must be positive")
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.ActivityLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("activity service: cleanup entries: %w", result.Error)
	}

	return result.RowsAffected, nil
}
