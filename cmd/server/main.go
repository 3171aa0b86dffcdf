// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/danhux/craftwarden/docs" // Import generated swagger docs
	"github.com/danhux/craftwarden/internal/analytics"
	"github.com/danhux/craftwarden/internal/api"
	"github.com/danhux/craftwarden/internal/auth"
	"github.com/danhux/craftwarden/internal/authz"
	"github.com/danhux/craftwarden/internal/backup"
	"github.com/danhux/craftwarden/internal/config"
	"github.com/danhux/craftwarden/internal/configfiles"
	"github.com/danhux/craftwarden/internal/events"
	"github.com/danhux/craftwarden/internal/gameserver"
	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/rcon"
	"github.com/danhux/craftwarden/internal/scheduler"
	"github.com/danhux/craftwarden/internal/supervisor"
	"github.com/danhux/craftwarden/internal/supervisor/services"
	ws "github.com/danhux/craftwarden/internal/websocket"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Str("version", api.Version).Msg("Starting Craftwarden with supervisor tree")
	logging.Info().
		Str("server_dir", cfg.GameServer.Dir).
		Str("container", cfg.GameServer.Container).
		Bool("rcon_enabled", cfg.RCON.Enabled).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Str("data_dir", cfg.Analytics.DataDir).
		Msg("Configuration loaded")

	// Open the Badger store backing users, sessions, and API keys.
	db, err := auth.OpenDB(cfg.Storage.Path)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Storage.Path).Msg("Failed to open credential store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing credential store")
		}
	}()
	logging.Info().Str("path", cfg.Storage.Path).Msg("Credential store opened")

	// === AUTHENTICATION ===

	users := auth.NewBadgerUserStore(db)
	sessions := auth.NewBadgerSessionStore(db)
	keyStore := auth.NewBadgerAPIKeyStore(db)

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	lockout := auth.NewLockoutManager(
		auth.NewMemoryLockoutStore(),
		auth.LockoutConfigFromSecurity(&cfg.Security),
	)
	apiKeys := auth.NewAPIKeyManager(keyStore, users, logging.NewAuditLogger())
	authService := auth.NewService(users, sessions, apiKeys, jwtManager, lockout)

	// Bootstrap admin from configuration. No-op when unset or existing,
	// so restarts never clobber a live account.
	if err := authService.EnsureAdmin(context.Background(), cfg.Security.AdminUsername, cfg.Security.AdminPassword); err != nil {
		logging.Fatal().Err(err).Msg("Failed to create bootstrap admin")
	}

	// === AUTHORIZATION ===

	enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{
		DefaultRole:  cfg.Security.Casbin.DefaultRole,
		CacheEnabled: cfg.Security.Casbin.CacheEnabled,
		CacheTTL:     cfg.Security.Casbin.CacheTTL,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization enforcer")
	}

	authn := auth.NewMiddleware(jwtManager, sessions, apiKeys)
	authzMW := authz.NewMiddleware(enforcer)
	loginLimiter := auth.NewLoginRateLimiter(cfg.Security.LoginMaxFailures, cfg.Security.LoginLockoutWindow)

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED - use only for local development and CI")
	}
	for _, origin := range cfg.Security.CORSOrigins {
		if origin == "*" {
			logging.Warn().Msg("CORS allows any origin - set security.cors_origins before exposing this server")
		}
	}

	// === ANALYTICS ===

	store := analytics.NewStore(cfg.Analytics.DataDir)
	processor := analytics.NewProcessor(store, cfg.Analytics.OutputDir)

	// === GAME SERVER AND CONSOLE ===

	dispatcher := rcon.NewDispatcher(&cfg.RCON)
	if cfg.RCON.Enabled {
		logging.Info().Str("address", cfg.RCON.Address).Msg("RCON console enabled")
	} else {
		logging.Info().Msg("RCON disabled - console commands and schedules will be refused")
	}

	game := gameserver.NewManager(&cfg.GameServer, dispatcher)

	// === BACKUPS ===

	var backups api.BackupManager
	backupManager, err := backup.NewManager(cfg.Backup, cfg.GameServer)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to initialize backup manager - backups disabled")
	} else {
		backups = backupManager
		logging.Info().
			Str("dir", cfg.Backup.Dir).
			Dur("interval", cfg.Backup.Interval).
			Msg("Backup manager initialized")
	}

	configFiles := configfiles.NewManager(&cfg.GameServer, &cfg.Backup, &cfg.ConfigFiles)

	// === SCHEDULER ===

	var schedules *scheduler.Service
	schedStore, err := scheduler.NewStore(cfg.Scheduler.StorePath, cfg.Scheduler.LogPath)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to open schedule store - schedules disabled")
	} else {
		schedules, err = scheduler.NewService(cfg.Scheduler, schedStore, dispatcher)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to initialize scheduler - schedules disabled")
			schedules = nil
		}
	}

	// === LIVE LOG STREAMING ===

	var hub *ws.Hub
	var follower *ws.Follower
	var tailer ws.LogTailer
	if cfg.WebSocket.Enabled {
		hub = ws.NewHub(cfg.WebSocket)
		if logPath := game.LogPath(); logPath != "" {
			follower, err = ws.NewFollower(logPath, hub)
			if err != nil {
				logging.Warn().Err(err).Str("path", logPath).Msg("Log follower unavailable - streaming without history")
			} else {
				tailer = follower
				hub.SetTailer(follower)
			}
		}
	} else {
		logging.Info().Msg("WebSocket streaming disabled")
	}

	// === EVENT PIPELINE ===

	var pipeline *events.Pipeline
	var publisher api.SamplePublisher
	if cfg.NATS.Enabled {
		var broadcaster events.Broadcaster
		if hub != nil {
			broadcaster = hub
		}
		pipeline, err = events.NewPipeline(cfg.NATS, store, broadcaster)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize event pipeline")
		}
		publisher = pipeline
	} else {
		logging.Info().Msg("Event pipeline disabled - samples append directly to storage")
	}

	// === HTTP API ===

	handler := api.NewHandler(api.Deps{
		Config:     cfg,
		Auth:       authService,
		Enforcer:   enforcer,
		Store:      store,
		Processor:  processor,
		Dispatcher: dispatcher,
		Game:       game,
		Backups:    backups,
		Configs:    configFiles,
		Schedules:  schedules,
		Pipeline:   publisher,
		Hub:        hub,
		Tailer:     tailer,
	})

	router := api.NewRouter(handler, authn, authzMW, loginLimiter)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// === SUPERVISOR TREE ===

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility.
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if schedules != nil && cfg.Scheduler.Enabled {
		tree.AddTaskService(services.NewCommandSchedulerService(schedules))
		logging.Info().Msg("Command scheduler added to supervisor tree")
	}
	if backupManager != nil && cfg.Backup.Interval > 0 {
		tree.AddTaskService(services.NewBackupSchedulerService(backupManager))
		logging.Info().Msg("Backup scheduler added to supervisor tree")
	}
	if hub != nil {
		tree.AddMessagingService(services.NewWebSocketHubService(hub))
	}
	if follower != nil {
		tree.AddMessagingService(services.NewLogFollowerService(follower))
	}
	if pipeline != nil {
		tree.AddMessagingService(services.NewEventPipelineService(pipeline))
	}

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === RUN ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
