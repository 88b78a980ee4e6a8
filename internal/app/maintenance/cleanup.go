package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/taskrythm/taskrythm/internal/services"
	"github.com/taskrythm/taskrythm/pkg/logger"
)

const (
	defaultActivityRetentionDays = 0 // disabled unless configured
	defaultInviteSpec            = "@hourly"
	defaultActivitySpec          = "@daily"
)

// Cleaner coordinates background maintenance tasks such as purging expired
// invites and pruning old activity entries.
type Cleaner struct {
	invites   *services.InviteService
	activity  *services.ActivityService
	cron      *cron.Cron
	log       *zap.Logger
	enabled   bool
	retention int

	inviteSchedule   string
	activitySchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithActivityRetentionDays adjusts how long activity entries are retained.
// Zero or negative disables the activity sweep entirely.
func WithActivityRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		cleaner.retention = days
	}
}

// WithInviteSchedule overrides the cron specification for invite cleanup.
func WithInviteSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.inviteSchedule = spec
		}
	}
}

// WithActivitySchedule overrides the cron specification for activity pruning.
func WithActivitySchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.activitySchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. A nil dependency
// results in the corresponding job being skipped.
func NewCleaner(invites *services.InviteService, activity *services.ActivityService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		invites:          invites,
		activity:         activity,
		retention:        defaultActivityRetentionDays,
		inviteSchedule:   defaultInviteSpec,
		activitySchedule: defaultActivitySpec,
		log:              logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.invites != nil || (cleaner.activity != nil && cleaner.retention > 0)

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it if at
// least one job is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.invites != nil {
		if _, err := c.cron.AddFunc(c.inviteSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, err := c.invites.CleanupExpired(ctx); err != nil {
				c.log.Warn("invite cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.activity != nil && c.retention > 0 {
		if _, err := c.cron.AddFunc(c.activitySchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, err := c.activity.CleanupOlderThan(ctx, c.retention); err != nil {
				c.log.Warn("activity cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.invites != nil {
		if _, err := c.invites.CleanupExpired(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.activity != nil && c.retention > 0 {
		if _, err := c.activity.CleanupOlderThan(ctx, c.retention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
