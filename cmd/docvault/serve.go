// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DocVault Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/docvault/docvault/internal/auth"
	authpg "github.com/docvault/docvault/internal/auth/postgres"
	"github.com/docvault/docvault/internal/config"
	"github.com/docvault/docvault/internal/docs"
	docspg "github.com/docvault/docvault/internal/docs/postgres"
	"github.com/docvault/docvault/internal/logging"
	"github.com/docvault/docvault/internal/mail"
	"github.com/docvault/docvault/internal/observability"
	"github.com/docvault/docvault/internal/realtime"
	rtpg "github.com/docvault/docvault/internal/realtime/postgres"
	"github.com/docvault/docvault/internal/store"
	"github.com/docvault/docvault/internal/web"
	"github.com/docvault/docvault/internal/xdg"
)

// newServeCmd creates the serve subcommand. Flag names match config keys so
// flags layer over the config file.
func newServeCmd() *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the DocVault server",
		Long: `Start the HTTP API, the realtime chat listener, and the metrics
endpoint. Pending database migrations are applied on startup.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd)
		},
	}

	cmd.Flags().String("http_addr", defaults.HTTPAddr, "HTTP API listen address")
	cmd.Flags().String("realtime_addr", defaults.RealtimeAddr, "realtime chat listen address")
	cmd.Flags().String("metrics_addr", defaults.MetricsAddr, "metrics/health listen address (empty = disabled)")
	cmd.Flags().String("base_url", defaults.BaseURL, "public base URL used in password-reset links")
	cmd.Flags().String("database_url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	cmd.Flags().String("nats_url", defaults.NATSURL, "NATS server URL for chat broadcast")
	cmd.Flags().String("log_level", defaults.LogLevel, "log level (debug, info, warn, error)")
	cmd.Flags().String("log_format", defaults.LogFormat, "log format (json or text)")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	path := configFile
	if path == "" {
		path = xdg.DefaultConfigFile()
	}

	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return err
	}

	logger := logging.Setup("docvault", version, cfg.LogFormat, cfg.LogLevel, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := applyPendingMigrations(cfg.DatabaseURL, logger); err != nil {
		return err
	}

	storageDir := cfg.StorageDir
	if storageDir == "" {
		storageDir = filepath.Join(xdg.DataDir(), "documents")
	}
	if err := xdg.EnsureDir(storageDir); err != nil {
		return err
	}

	// Metrics and health endpoint.
	obs := observability.NewServer(cfg.MetricsAddr, func() bool {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return pool.Ping(pingCtx) == nil
	})
	metrics := obs.Metrics()
	if cfg.MetricsAddr != "" {
		obsErr, err := obs.Start()
		if err != nil {
			return err
		}
		go func() {
			if serveErr := <-obsErr; serveErr != nil {
				logger.Error("Metrics server failed", "error", serveErr)
			}
		}()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = obs.Stop(stopCtx)
		}()
	}

	// Credential and session services.
	accounts := authpg.NewAccountRepository(pool)
	sessions := authpg.NewSessionRepository(pool, auth.ExpiryPolicy(cfg.SessionExpiry), cfg.SessionTTL)
	hasher := auth.NewArgon2idHasher()

	authSvc, err := auth.NewServiceWithConfig(accounts, sessions, hasher, logger, auth.ServiceConfig{
		Lockout:    auth.LockoutPolicy{Threshold: cfg.LockoutThreshold, Duration: cfg.LockoutDuration},
		SessionTTL: cfg.SessionTTL,
	})
	if err != nil {
		return err
	}

	mailer := mail.NewMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		From:     cfg.SMTP.From,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
	}, logger)

	resetSvc, err := auth.NewResetServiceWithLogger(accounts, hasher, mailer, cfg.BaseURL, logger)
	if err != nil {
		return err
	}

	// Document services.
	docSvc, err := docs.NewService(docspg.NewDocumentRepository(pool), docspg.NewCommentRepository(pool), logger)
	if err != nil {
		return err
	}

	// Realtime chat.
	bus, err := realtime.NewBus(cfg.NATSURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := bus.Close(); closeErr != nil {
			logger.Warn("Error closing broadcast bus", "error", closeErr)
		}
	}()

	chatSvc, err := realtime.NewChatService(rtpg.NewMessageRepository(pool), bus, metrics, logger)
	if err != nil {
		return err
	}

	rtServer, err := realtime.NewServer(cfg.RealtimeAddr, authSvc, chatSvc, bus, metrics, logger)
	if err != nil {
		return err
	}

	// HTTP API.
	authHandler, err := web.NewAuthHandler(authSvc, resetSvc, metrics, logger)
	if err != nil {
		return err
	}
	docsHandler, err := web.NewDocsHandler(docSvc)
	if err != nil {
		return err
	}
	webServer, err := web.NewServer(cfg.HTTPAddr, web.NewRouter(authHandler, docsHandler, authSvc), logger)
	if err != nil {
		return err
	}

	sweeper, err := auth.NewSweeper(sessions, cfg.SweepInterval, logger, func(count int64) {
		metrics.SessionsSwept.Add(float64(count))
	})
	if err != nil {
		return err
	}

	logger.Info("DocVault starting",
		"http_addr", cfg.HTTPAddr,
		"realtime_addr", cfg.RealtimeAddr,
		"session_expiry", cfg.SessionExpiry)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return webServer.Run(ctx) })
	group.Go(func() error { return rtServer.Run(ctx) })
	group.Go(func() error {
		sweeper.Run(ctx)
		return nil
	})

	if err := group.Wait(); err != nil {
		return oops.Code("SERVE_FAILED").Wrap(err)
	}

	logger.Info("DocVault stopped")
	return nil
}

// applyPendingMigrations brings the schema up to date before serving.
func applyPendingMigrations(databaseURL string, logger *slog.Logger) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = migrator.Close() }()

	pending, err := migrator.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	logger.Info("Applying pending migrations", "count", len(pending))
	if err := migrator.Up(); err != nil {
		return err
	}
	logger.Info("Migrations applied")
	return nil
}
