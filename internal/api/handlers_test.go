// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/danhux/craftwarden/internal/analytics"
	"github.com/danhux/craftwarden/internal/auth"
	"github.com/danhux/craftwarden/internal/backup"
	"github.com/danhux/craftwarden/internal/config"
	"github.com/danhux/craftwarden/internal/events"
	"github.com/danhux/craftwarden/internal/gameserver"
)

// mockGameManager implements GameManager for testing.
type mockGameManager struct {
	statusFunc    func(ctx context.Context) *gameserver.Status
	resourcesFunc func(ctx context.Context) (*gameserver.Resources, error)
	logsFunc      func(ctx context.Context, lines int) ([]string, error)
	playersFunc   func(ctx context.Context) (*gameserver.PlayerList, error)
	startFunc     func(ctx context.Context) (string, error)
	stopFunc      func(ctx context.Context) (string, error)
	restartFunc   func(ctx context.Context) (string, error)
}

func (m *mockGameManager) Status(ctx context.Context) *gameserver.Status {
	if m.statusFunc != nil {
		return m.statusFunc(ctx)
	}
	return &gameserver.Status{Running: true, State: "running"}
}

func (m *mockGameManager) Resources(ctx context.Context) (*gameserver.Resources, error) {
	if m.resourcesFunc != nil {
		return m.resourcesFunc(ctx)
	}
	return &gameserver.Resources{}, nil
}

func (m *mockGameManager) Logs(ctx context.Context, lines int) ([]string, error) {
	if m.logsFunc != nil {
		return m.logsFunc(ctx, lines)
	}
	return nil, nil
}

func (m *mockGameManager) Worlds() []gameserver.World   { return nil }
func (m *mockGameManager) Plugins() []gameserver.Plugin { return nil }

func (m *mockGameManager) Players(ctx context.Context) (*gameserver.PlayerList, error) {
	if m.playersFunc != nil {
		return m.playersFunc(ctx)
	}
	return &gameserver.PlayerList{Players: []string{}}, nil
}

func (m *mockGameManager) Start(ctx context.Context) (string, error) {
	if m.startFunc != nil {
		return m.startFunc(ctx)
	}
	return "started", nil
}

func (m *mockGameManager) Stop(ctx context.Context) (string, error) {
	if m.stopFunc != nil {
		return m.stopFunc(ctx)
	}
	return "stopped", nil
}

func (m *mockGameManager) Restart(ctx context.Context) (string, error) {
	if m.restartFunc != nil {
		return m.restartFunc(ctx)
	}
	return "restarted", nil
}

// mockDispatcher implements CommandDispatcher for testing.
type mockDispatcher struct {
	dispatchFunc func(ctx context.Context, raw string) (string, error)
	stateFunc    func() string
}

func (m *mockDispatcher) Dispatch(ctx context.Context, raw string) (string, error) {
	if m.dispatchFunc != nil {
		return m.dispatchFunc(ctx, raw)
	}
	return "", nil
}

func (m *mockDispatcher) State() string {
	if m.stateFunc != nil {
		return m.stateFunc()
	}
	return "closed"
}

// mockBackupManager implements BackupManager for testing.
type mockBackupManager struct {
	createFunc   func(ctx context.Context, backupType backup.BackupType, notes string) (*backup.Backup, error)
	listFunc     func(opts backup.ListOptions) []*backup.Backup
	getFunc      func(id string) (*backup.Backup, error)
	deleteFunc   func(id string) error
	restoreFunc  func(ctx context.Context, id string, opts backup.RestoreOptions) (*backup.RestoreResult, error)
	downloadFunc func(id string) (io.ReadCloser, *backup.Backup, error)
	validateFunc func(id string) (*backup.ValidationResult, error)
	statsFunc    func() *backup.Stats
}

func (m *mockBackupManager) CreateBackup(ctx context.Context, backupType backup.BackupType, notes string) (*backup.Backup, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, backupType, notes)
	}
	return &backup.Backup{ID: "b-1", Type: backupType, Status: backup.StatusCompleted, Notes: notes}, nil
}

func (m *mockBackupManager) ListBackups(opts backup.ListOptions) []*backup.Backup {
	if m.listFunc != nil {
		return m.listFunc(opts)
	}
	return nil
}

func (m *mockBackupManager) GetBackup(id string) (*backup.Backup, error) {
	if m.getFunc != nil {
		return m.getFunc(id)
	}
	return &backup.Backup{ID: id}, nil
}

func (m *mockBackupManager) DeleteBackup(id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(id)
	}
	return nil
}

func (m *mockBackupManager) RestoreFromBackup(ctx context.Context, id string, opts backup.RestoreOptions) (*backup.RestoreResult, error) {
	if m.restoreFunc != nil {
		return m.restoreFunc(ctx, id, opts)
	}
	return &backup.RestoreResult{BackupID: id, Success: true}, nil
}

func (m *mockBackupManager) DownloadBackup(id string) (io.ReadCloser, *backup.Backup, error) {
	if m.downloadFunc != nil {
		return m.downloadFunc(id)
	}
	return io.NopCloser(bytes.NewReader(nil)), &backup.Backup{ID: id}, nil
}

func (m *mockBackupManager) ValidateBackup(id string) (*backup.ValidationResult, error) {
	if m.validateFunc != nil {
		return m.validateFunc(id)
	}
	return &backup.ValidationResult{Valid: true, BackupID: id}, nil
}

func (m *mockBackupManager) GetStats() *backup.Stats {
	if m.statsFunc != nil {
		return m.statsFunc()
	}
	return &backup.Stats{}
}

// mockPublisher implements SamplePublisher for testing.
type mockPublisher struct {
	publishFunc func(ctx context.Context, stream string, data interface{}) error
	running     bool
	published   []string
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, data interface{}) error {
	m.published = append(m.published, stream)
	if m.publishFunc != nil {
		return m.publishFunc(ctx, stream, data)
	}
	return nil
}

func (m *mockPublisher) Running() bool { return m.running }

func (m *mockPublisher) Stats() events.PipelineStats {
	return events.PipelineStats{Running: m.running}
}

// newTestAuthService builds an auth service over an in-memory store.
func newTestAuthService(t *testing.T) *auth.Service {
	t.Helper()

	db, err := auth.OpenInMemoryDB()
	if err != nil {
		t.Fatalf("OpenInMemoryDB() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})

	users := auth.NewBadgerUserStore(db)
	sessions := auth.NewMemorySessionStore()
	apiKeys := auth.NewAPIKeyManager(auth.NewBadgerAPIKeyStore(db), users, nil)

	jwtManager, err := auth.NewJWTManager(&config.SecurityConfig{
		JWTSecret:      "test-secret-test-secret-test-secret",
		SessionTimeout: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	lockout := auth.NewLockoutManager(auth.NewMemoryLockoutStore(), auth.DefaultLockoutConfig())
	return auth.NewService(users, sessions, apiKeys, jwtManager, lockout)
}

// newTestHandler wires a handler over in-memory stores and mocks.
func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	store := analytics.NewStore(t.TempDir())
	return NewHandler(Deps{
		Config:     &config.Config{},
		Auth:       newTestAuthService(t),
		Store:      store,
		Processor:  analytics.NewProcessor(store, t.TempDir()),
		Dispatcher: &mockDispatcher{},
		Game:       &mockGameManager{},
		Backups:    &mockBackupManager{},
	})
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()

	if body == nil {
		return httptest.NewRequest(method, target, nil)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	r := httptest.NewRequest(method, target, bytes.NewReader(payload))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withClaims attaches authenticated caller claims to the request.
func withClaims(r *http.Request, claims *auth.Claims) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), auth.ClaimsContextKey, claims))
}

// withURLParam injects a chi route parameter for direct handler calls.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// decodeEnvelope unmarshals the response envelope.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response envelope: %v\nbody: %s", err, rec.Body.String())
	}
	return resp
}

// dataMap extracts the envelope's data as a map.
func dataMap(t *testing.T, resp APIResponse) map[string]interface{} {
	t.Helper()

	m, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("response data is %T, want object", resp.Data)
	}
	return m
}
