package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
chat:
  url: wss://chat.easybook.example/api/chat
  reconnect_base_delay: 2s
  max_reconnect_attempts: 7
storage:
  driver: sqlite
  path: /var/lib/easybook/chat.db
log:
  level: debug
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Chat.URL != "wss://chat.easybook.example/api/chat" {
		t.Errorf("Chat.URL = %q, want %q", cfg.Chat.URL, "wss://chat.easybook.example/api/chat")
	}
	if cfg.Chat.ReconnectBaseDelay != 2*time.Second {
		t.Errorf("Chat.ReconnectBaseDelay = %v, want %v", cfg.Chat.ReconnectBaseDelay, 2*time.Second)
	}
	if cfg.Chat.MaxReconnectAttempts != 7 {
		t.Errorf("Chat.MaxReconnectAttempts = %d, want %d", cfg.Chat.MaxReconnectAttempts, 7)
	}
	if cfg.Storage.Driver != DriverSQLite {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, DriverSQLite)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
storage:
  driver: postgres
  postgres:
    host: localhost
    name: easybook
    user: chat
    password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Storage.Postgres.Password != "secret123" {
		t.Errorf("Storage.Postgres.Password = %q, want %q", cfg.Storage.Postgres.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeTempFile(t, "log:\n  level: warn\n")

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Chat.URL != DefaultChatURL {
		t.Errorf("Chat.URL = %q, want default %q", cfg.Chat.URL, DefaultChatURL)
	}
	if cfg.Chat.ReconnectBaseDelay != DefaultReconnectBaseDelay {
		t.Errorf("Chat.ReconnectBaseDelay = %v, want default %v", cfg.Chat.ReconnectBaseDelay, DefaultReconnectBaseDelay)
	}
	if cfg.Chat.MaxReconnectAttempts != DefaultMaxReconnectAttempts {
		t.Errorf("Chat.MaxReconnectAttempts = %d, want default %d", cfg.Chat.MaxReconnectAttempts, DefaultMaxReconnectAttempts)
	}
	if cfg.Storage.Driver != DriverFile {
		t.Errorf("Storage.Driver = %q, want default %q", cfg.Storage.Driver, DriverFile)
	}
	if cfg.Storage.Key != DefaultStorageKey {
		t.Errorf("Storage.Key = %q, want default %q", cfg.Storage.Key, DefaultStorageKey)
	}
	if cfg.Storage.Path == "" {
		t.Error("Storage.Path should default to a data directory")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}
	if cfg.Metrics.Port != DefaultMetricsPort {
		t.Errorf("Metrics.Port = %d, want default %d", cfg.Metrics.Port, DefaultMetricsPort)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := LoadAndValidate("")
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}
	if cfg.Chat.URL != DefaultChatURL {
		t.Errorf("Chat.URL = %q, want default %q", cfg.Chat.URL, DefaultChatURL)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EASYBOOK_CHAT_URL", "ws://10.0.0.5:8080/api/chat")
	t.Setenv("EASYBOOK_STORAGE_DRIVER", "memory")
	t.Setenv("EASYBOOK_METRICS_PORT", "9191")

	path := writeTempFile(t, "chat:\n  url: ws://ignored/api/chat\n")

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}

	if cfg.Chat.URL != "ws://10.0.0.5:8080/api/chat" {
		t.Errorf("Chat.URL = %q, want env override", cfg.Chat.URL)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, DriverMemory)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Port != 9191 {
		t.Errorf("Metrics = %+v, want enabled on 9191", cfg.Metrics)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.Storage.Driver = DriverMemory
		return *cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing url",
			mutate:  func(c *Config) { c.Chat.URL = "" },
			wantErr: "chat.url is required",
		},
		{
			name:    "http scheme",
			mutate:  func(c *Config) { c.Chat.URL = "http://localhost:8080/api/chat" },
			wantErr: `chat.url scheme must be ws or wss, got "http"`,
		},
		{
			name:    "negative attempts",
			mutate:  func(c *Config) { c.Chat.MaxReconnectAttempts = -1 },
			wantErr: "chat.max_reconnect_attempts must be >= 1",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Storage.Driver = "redis" },
			wantErr: `storage.driver "redis" is not supported`,
		},
		{
			name: "missing postgres password",
			mutate: func(c *Config) {
				c.Storage.Driver = DriverPostgres
				c.Storage.Postgres = DBConfig{Host: "localhost", Name: "db", User: "user", MaxConns: 4}
			},
			wantErr: "storage.postgres.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Storage.Driver = DriverPostgres
				c.Storage.Postgres = DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 5, MinConns: 10}
			},
			wantErr: "storage.postgres.min_conns (10) cannot exceed max_conns (5)",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: `log.level "trace" is not supported`,
		},
		{
			name: "metrics port out of range",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Port = 70000
			},
			wantErr: "metrics.port must be between 1 and 65535, got 70000",
		},
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoadAndValidateOverrides(t *testing.T) {
	t.Setenv("EASYBOOK_CHAT_URL", "ws://from-env/api/chat")
	path := writeTempFile(t, "log:\n  level: warn\n")

	cfg, err := LoadAndValidate(path,
		WithChatURL("wss://chat.example.com/api/chat"),
		WithLogLevel(""),
	)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}
	if cfg.Chat.URL != "wss://chat.example.com/api/chat" {
		t.Errorf("Chat.URL = %q, want flag override over env", cfg.Chat.URL)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want file value kept for empty override", cfg.Log.Level)
	}

	_, err = LoadAndValidate(path, WithChatURL("http://not-a-socket"))
	if err == nil {
		t.Error("expected validation error for overridden http URL")
	}
}
