package config

import "time"

// Config is the root configuration for the chat client.
type Config struct {
	Chat    ChatConfig    `yaml:"chat"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ChatConfig holds the chat backend connection settings.
type ChatConfig struct {
	URL                  string        `yaml:"url"`
	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"`   // delay = base * attempt
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"` // attempts before giving up
	HandshakeTimeout     time.Duration `yaml:"handshake_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	PingInterval         time.Duration `yaml:"ping_interval"`
	PingTimeout          time.Duration `yaml:"ping_timeout"` // no ping/pong for this long = stale
	ReadLimit            int64         `yaml:"read_limit"`
}

// StorageConfig selects where chat history snapshots are kept.
type StorageConfig struct {
	Driver   string   `yaml:"driver"` // memory, file, sqlite, postgres
	Key      string   `yaml:"key"`
	Path     string   `yaml:"path"` // directory (file) or database file (sqlite)
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// MetricsConfig holds the health and Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)
