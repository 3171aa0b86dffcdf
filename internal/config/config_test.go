// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

package config

import (
	"strings"
	"testing"
	"time"
)

// validConfig returns a config that passes validation, for mutation in tests.
func validConfig() *Config {
	return defaultConfig()
}

func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestValidate_Server(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "port too low",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "port too high",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "timeout too short",
			mutate:  func(c *Config) { c.Server.Timeout = 100 * time.Millisecond },
			wantErr: "HTTP_TIMEOUT",
		},
		{
			name:    "bad environment",
			mutate:  func(c *Config) { c.Server.Environment = "staging" },
			wantErr: "ENVIRONMENT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_GameServer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing dir",
			mutate:  func(c *Config) { c.GameServer.Dir = "" },
			wantErr: "GAME_SERVER_DIR",
		},
		{
			name:    "missing start command",
			mutate:  func(c *Config) { c.GameServer.StartCommand = "" },
			wantErr: "GAME_SERVER_START_CMD",
		},
		{
			name:    "missing stop command",
			mutate:  func(c *Config) { c.GameServer.StopCommand = "" },
			wantErr: "GAME_SERVER_STOP_CMD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_RCON(t *testing.T) {
	t.Parallel()

	t.Run("disabled skips validation", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.RCON.Enabled = false
		cfg.RCON.Address = "garbage"
		if err := cfg.Validate(); err != nil {
			t.Errorf("disabled RCON should not be validated, got: %v", err)
		}
	})

	t.Run("enabled requires password", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.RCON.Enabled = true
		cfg.RCON.Password = ""
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "RCON_PASSWORD") {
			t.Errorf("expected RCON_PASSWORD error, got: %v", err)
		}
	})

	t.Run("enabled requires host:port", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.RCON.Enabled = true
		cfg.RCON.Password = "secret123"
		cfg.RCON.Address = "localhost"
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "RCON_ADDRESS") {
			t.Errorf("expected RCON_ADDRESS error, got: %v", err)
		}
	})

	t.Run("enabled with valid settings", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.RCON.Enabled = true
		cfg.RCON.Password = "secret123"
		cfg.RCON.Address = "192.168.1.50:25575"
		if err := cfg.Validate(); err != nil {
			t.Errorf("valid RCON config should pass, got: %v", err)
		}
	})
}

func TestValidate_NATS(t *testing.T) {
	t.Parallel()

	t.Run("disabled skips validation", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.NATS.Enabled = false
		cfg.NATS.URL = "http://wrong-scheme"
		if err := cfg.Validate(); err != nil {
			t.Errorf("disabled NATS should not be validated, got: %v", err)
		}
	})

	t.Run("bad URL scheme", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.NATS.Enabled = true
		cfg.NATS.URL = "http://localhost:4222"
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "NATS_URL") {
			t.Errorf("expected NATS_URL error, got: %v", err)
		}
	})

	t.Run("memory below floor", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.NATS.Enabled = true
		cfg.NATS.MaxMemory = 1024
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "NATS_MAX_MEMORY") {
			t.Errorf("expected NATS_MAX_MEMORY error, got: %v", err)
		}
	})

	t.Run("batch size out of range", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.NATS.Enabled = true
		cfg.NATS.BatchSize = 100000
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "NATS_BATCH_SIZE") {
			t.Errorf("expected NATS_BATCH_SIZE error, got: %v", err)
		}
	})

	t.Run("enabled with defaults", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.NATS.Enabled = true
		if err := cfg.Validate(); err != nil {
			t.Errorf("default NATS config should pass when enabled, got: %v", err)
		}
	})
}

func TestValidate_Security(t *testing.T) {
	t.Parallel()

	t.Run("production requires JWT secret", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Server.Environment = "production"
		cfg.Security.JWTSecret = ""
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
			t.Errorf("expected JWT_SECRET error, got: %v", err)
		}
	})

	t.Run("production rejects short JWT secret", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Server.Environment = "production"
		cfg.Security.JWTSecret = "short"
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
			t.Errorf("expected JWT_SECRET length error, got: %v", err)
		}
	})

	t.Run("development allows empty JWT secret", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Security.JWTSecret = ""
		if err := cfg.Validate(); err != nil {
			t.Errorf("development should allow empty secret, got: %v", err)
		}
	})

	t.Run("short admin password rejected", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Security.AdminUsername = "admin"
		cfg.Security.AdminPassword = "short"
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "ADMIN_PASSWORD") {
			t.Errorf("expected ADMIN_PASSWORD error, got: %v", err)
		}
	})

	t.Run("admin username without password rejected", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Security.AdminUsername = "admin"
		cfg.Security.AdminPassword = ""
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "ADMIN_PASSWORD") {
			t.Errorf("expected ADMIN_PASSWORD error, got: %v", err)
		}
	})

	t.Run("bad default role", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Security.Casbin.DefaultRole = "superuser"
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), "CASBIN_DEFAULT_ROLE") {
			t.Errorf("expected CASBIN_DEFAULT_ROLE error, got: %v", err)
		}
	})

	t.Run("rate limit disabled skips bounds", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Security.RateLimitDisabled = true
		cfg.Security.RateLimitReqs = 0
		if err := cfg.Validate(); err != nil {
			t.Errorf("disabled rate limit should skip bounds, got: %v", err)
		}
	})
}

func TestValidate_Logging(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "LOG_LEVEL") {
		t.Errorf("expected LOG_LEVEL error, got: %v", err)
	}

	cfg = validConfig()
	cfg.Logging.Format = "xml"
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "LOG_FORMAT") {
		t.Errorf("expected LOG_FORMAT error, got: %v", err)
	}
}

func TestServerConfig_Addr(t *testing.T) {
	t.Parallel()

	cfg := ServerConfig{Host: "127.0.0.1", Port: 8420}
	if got := cfg.Addr(); got != "127.0.0.1:8420" {
		t.Errorf("Addr() = %q, want 127.0.0.1:8420", got)
	}
}

func TestServerConfig_IsProduction(t *testing.T) {
	t.Parallel()

	if (ServerConfig{Environment: "development"}).IsProduction() {
		t.Error("development should not be production")
	}
	if !(ServerConfig{Environment: "production"}).IsProduction() {
		t.Error("production should be production")
	}
}

func TestValidateHostPort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"valid", "127.0.0.1:25575", false},
		{"valid hostname", "mc.example.com:25575", false},
		{"missing port", "127.0.0.1", true},
		{"missing host", ":25575", true},
		{"port zero", "127.0.0.1:0", true},
		{"port too high", "127.0.0.1:99999", true},
		{"not a port", "127.0.0.1:abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateHostPort(tt.addr, "TEST_ADDR")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateHostPort(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			}
		})
	}
}

func TestValidateNATSURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"nats scheme", "nats://localhost:4222", false},
		{"tls scheme", "tls://nats.example.com:4222", false},
		{"ws scheme", "ws://localhost:8080", false},
		{"http scheme", "http://localhost:4222", true},
		{"no host", "nats://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateNATSURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateNATSURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
