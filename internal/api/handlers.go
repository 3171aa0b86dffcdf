// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package api

import (
	"context"
	"io"
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/danhux/craftwarden/internal/analytics"
	"github.com/danhux/craftwarden/internal/auth"
	"github.com/danhux/craftwarden/internal/authz"
	"github.com/danhux/craftwarden/internal/backup"
	"github.com/danhux/craftwarden/internal/cache"
	"github.com/danhux/craftwarden/internal/config"
	"github.com/danhux/craftwarden/internal/configfiles"
	"github.com/danhux/craftwarden/internal/events"
	"github.com/danhux/craftwarden/internal/gameserver"
	"github.com/danhux/craftwarden/internal/logging"
	"github.com/danhux/craftwarden/internal/scheduler"
	"github.com/danhux/craftwarden/internal/websocket"
)

// Version is stamped at build time via -ldflags and reported by the
// health endpoint.
var Version = "dev"

// reportCacheTTL is how long generated analytics reports are served
// from cache. Generation re-reads the stream files, so sixty seconds
// keeps dashboard refreshes cheap without going stale.
const reportCacheTTL = 60 * time.Second

// GameManager is the slice of the game-server manager the handlers use.
// Satisfied by *gameserver.Manager.
type GameManager interface {
	Status(ctx context.Context) *gameserver.Status
	Resources(ctx context.Context) (*gameserver.Resources, error)
	Logs(ctx context.Context, lines int) ([]string, error)
	Worlds() []gameserver.World
	Plugins() []gameserver.Plugin
	Players(ctx context.Context) (*gameserver.PlayerList, error)
	Start(ctx context.Context) (string, error)
	Stop(ctx context.Context) (string, error)
	Restart(ctx context.Context) (string, error)
}

// CommandDispatcher sends sanitized console commands to the game
// server. Satisfied by *rcon.Dispatcher.
type CommandDispatcher interface {
	Dispatch(ctx context.Context, raw string) (string, error)
	State() string
}

// BackupManager is the backup surface the handlers consume. Satisfied
// by *backup.Manager.
type BackupManager interface {
	CreateBackup(ctx context.Context, backupType backup.BackupType, notes string) (*backup.Backup, error)
	ListBackups(opts backup.ListOptions) []*backup.Backup
	GetBackup(id string) (*backup.Backup, error)
	DeleteBackup(id string) error
	RestoreFromBackup(ctx context.Context, id string, opts backup.RestoreOptions) (*backup.RestoreResult, error)
	DownloadBackup(id string) (io.ReadCloser, *backup.Backup, error)
	ValidateBackup(id string) (*backup.ValidationResult, error)
	GetStats() *backup.Stats
}

// SamplePublisher is the ingest-pipeline surface the collect handler
// uses. Satisfied by *events.Pipeline.
type SamplePublisher interface {
	Publish(ctx context.Context, stream string, data interface{}) error
	Running() bool
	Stats() events.PipelineStats
}

// Handler holds every dependency the HTTP handlers need. Fields left
// nil disable their endpoints with a 503 rather than a panic, so a
// partially wired server still comes up.
type Handler struct {
	config     *config.Config
	auth       *auth.Service
	enforcer   *authz.Enforcer
	store      *analytics.Store
	processor  *analytics.Processor
	dispatcher CommandDispatcher
	game       GameManager
	backups    BackupManager
	configs    *configfiles.Manager
	schedules  *scheduler.Service
	pipeline   SamplePublisher
	wsHub      *websocket.Hub
	tailer     websocket.LogTailer

	reportCache *cache.Cache
	startTime   time.Time
}

// Deps bundles the handler dependencies. The constructor takes a struct
// because the API fronts almost every subsystem in the process.
type Deps struct {
	Config     *config.Config
	Auth       *auth.Service
	Enforcer   *authz.Enforcer
	Store      *analytics.Store
	Processor  *analytics.Processor
	Dispatcher CommandDispatcher
	Game       GameManager
	Backups    BackupManager
	Configs    *configfiles.Manager
	Schedules  *scheduler.Service
	Pipeline   SamplePublisher
	Hub        *websocket.Hub
	Tailer     websocket.LogTailer
}

// NewHandler creates the handler set.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		config:      deps.Config,
		auth:        deps.Auth,
		enforcer:    deps.Enforcer,
		store:       deps.Store,
		processor:   deps.Processor,
		dispatcher:  deps.Dispatcher,
		game:        deps.Game,
		backups:     deps.Backups,
		configs:     deps.Configs,
		schedules:   deps.Schedules,
		pipeline:    deps.Pipeline,
		wsHub:       deps.Hub,
		tailer:      deps.Tailer,
		reportCache: cache.New("analytics_reports", reportCacheTTL),
		startTime:   time.Now(),
	}
}

// SetBackupManager wires the backup manager after construction. The
// manager needs the HTTP server's lifecycle to settle first during
// startup ordering.
func (h *Handler) SetBackupManager(bm BackupManager) {
	h.backups = bm
}

// ClearReportCache drops all cached analytics reports. Called after
// restores, which rewrite history under the reports' feet.
func (h *Handler) ClearReportCache() {
	h.reportCache.Clear()
}

// getUpgrader builds the WebSocket upgrader with origin checking.
func (h *Handler) getUpgrader() gorillaws.Upgrader {
	return gorillaws.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      h.checkWebSocketOrigin,
	}
}

// checkWebSocketOrigin validates the Origin header against the
// configured CORS origins. Non-browser clients send no Origin header
// and are allowed; browsers must match the allow-list.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if h.config == nil {
		return true
	}

	for _, allowed := range h.config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket origin rejected")
	return false
}
