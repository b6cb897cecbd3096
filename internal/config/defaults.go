package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values for optional configuration fields.
const (
	DefaultChatURL              = "ws://localhost:8080/api/chat"
	DefaultReconnectBaseDelay   = 3 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultHandshakeTimeout     = 10 * time.Second
	DefaultWriteTimeout         = 5 * time.Second
	DefaultPingInterval         = 30 * time.Second
	DefaultPingTimeout          = 90 * time.Second
	DefaultReadLimit            = 512 * 1024
	DefaultStorageDriver        = DriverFile
	DefaultStorageKey           = "easybook_chat_history"
	DefaultDBPort               = 5432
	DefaultDBSSLMode            = "prefer"
	DefaultMaxConns             = 4
	DefaultMinConns             = 1
	DefaultLogLevel             = "info"
	DefaultMetricsPort          = 9090
	DefaultMetricsPath          = "/metrics"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	// Chat defaults
	if c.Chat.URL == "" {
		c.Chat.URL = DefaultChatURL
	}
	if c.Chat.ReconnectBaseDelay == 0 {
		c.Chat.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Chat.MaxReconnectAttempts == 0 {
		c.Chat.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Chat.HandshakeTimeout == 0 {
		c.Chat.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Chat.WriteTimeout == 0 {
		c.Chat.WriteTimeout = DefaultWriteTimeout
	}
	if c.Chat.PingInterval == 0 {
		c.Chat.PingInterval = DefaultPingInterval
	}
	if c.Chat.PingTimeout == 0 {
		c.Chat.PingTimeout = DefaultPingTimeout
	}
	if c.Chat.ReadLimit == 0 {
		c.Chat.ReadLimit = DefaultReadLimit
	}

	// Storage defaults
	if c.Storage.Driver == "" {
		c.Storage.Driver = DefaultStorageDriver
	}
	if c.Storage.Key == "" {
		c.Storage.Key = DefaultStorageKey
	}
	if c.Storage.Path == "" {
		switch c.Storage.Driver {
		case DriverFile:
			c.Storage.Path = dataDir()
		case DriverSQLite:
			c.Storage.Path = filepath.Join(dataDir(), "chat.db")
		}
	}
	if c.Storage.Driver == DriverPostgres {
		applyDBDefaults(&c.Storage.Postgres)
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".easybook"
	}
	return filepath.Join(home, ".easybook")
}
