package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/taskrythm/taskrythm/internal/ai"
	"github.com/taskrythm/taskrythm/internal/app"
	"github.com/taskrythm/taskrythm/internal/app/maintenance"
	iauth "github.com/taskrythm/taskrythm/internal/auth"
	"github.com/taskrythm/taskrythm/internal/database"
	"github.com/taskrythm/taskrythm/internal/services"
	"github.com/taskrythm/taskrythm/pkg/logger"
)

// runtimeStack holds the long-lived dependencies the server is built from.
type runtimeStack struct {
	db       *gorm.DB
	verifier iauth.TokenVerifier
	ai       *ai.Service
	cleaner  *maintenance.Cleaner
}

func buildRuntimeStack(ctx context.Context, cfg *app.Config) (*runtimeStack, error) {
	db, err := database.OpenAndMigrate(cfg.DatabaseSettings())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.WithModule("database").Info("database connected",
		zap.String("driver", strings.ToLower(strings.TrimSpace(cfg.Database.Driver))))

	verifier, err := buildVerifier(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var aiSvc *ai.Service
	if cfg.AI.Enabled {
		aiSvc, err = ai.NewService(ai.Config{
			APIKey:    cfg.AI.APIKey,
			Model:     cfg.AI.Model,
			MaxTokens: int64(cfg.AI.MaxTokens),
			Timeout:   cfg.AI.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("initialise ai service: %w", err)
		}
	}

	resolver, err := services.NewResolver(db)
	if err != nil {
		return nil, err
	}
	activitySvc, err := services.NewActivityService(db)
	if err != nil {
		return nil, err
	}
	inviteSvc, err := services.NewInviteService(db, resolver, activitySvc)
	if err != nil {
		return nil, err
	}

	cleaner := maintenance.NewCleaner(inviteSvc, activitySvc,
		maintenance.WithInviteSchedule(cfg.Maintenance.InviteSchedule),
		maintenance.WithActivitySchedule(cfg.Maintenance.ActivitySchedule),
		maintenance.WithActivityRetentionDays(cfg.Maintenance.ActivityRetentionDays),
	)

	return &runtimeStack{
		db:       db,
		verifier: verifier,
		ai:       aiSvc,
		cleaner:  cleaner,
	}, nil
}

func buildVerifier(ctx context.Context, cfg *app.Config) (iauth.TokenVerifier, error) {
	switch strings.ToLower(cfg.Auth.Mode) {
	case "oidc":
		verifier, err := iauth.NewOIDCVerifier(ctx, iauth.OIDCOptions{
			Issuer:   cfg.Auth.OIDC.Issuer,
			Audience: cfg.Auth.OIDC.Audience,
		})
		if err != nil {
			return nil, fmt.Errorf("initialise oidc verifier: %w", err)
		}
		return verifier, nil
	case "dev":
		svc, err := iauth.NewDevTokenService(iauth.DevTokenConfig{
			Secret: cfg.Auth.Dev.Secret,
			Issuer: cfg.Auth.Dev.Issuer,
			TTL:    cfg.Auth.Dev.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("initialise dev token service: %w", err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}
}

// Close tears down background jobs and the database pool.
func (s *runtimeStack) Close(log *zap.Logger) {
	if s == nil {
		return
	}

	if s.cleaner != nil {
		// Wait for in-flight jobs before the final sweep.
		<-s.cleaner.Stop().Done()

		sweepCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		if err := s.cleaner.RunOnce(sweepCtx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
		cancel()
	}

	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			log.Warn("database close failed", zap.Error(err))
		}
	}
}
