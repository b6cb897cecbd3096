package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EASYBOOK"

// envOverrides are applied on top of the file. Zero values leave the file's value alone.
type envOverrides struct {
	ChatURL       string `envconfig:"CHAT_URL"`
	StorageDriver string `envconfig:"STORAGE_DRIVER"`
	StoragePath   string `envconfig:"STORAGE_PATH"`
	LogLevel      string `envconfig:"LOG_LEVEL"`
	MetricsPort   int    `envconfig:"METRICS_PORT"`
}

// Load reads a YAML config file and expands environment variables.
// An empty path yields an empty configuration.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config, applies EASYBOOK_* overrides and default values.
func LoadWithDefaults(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Override adjusts a loaded config before validation, e.g. from command-line flags.
type Override func(*Config)

// WithChatURL overrides chat.url unless url is empty.
func WithChatURL(url string) Override {
	return func(c *Config) {
		if url != "" {
			c.Chat.URL = url
		}
	}
}

// WithLogLevel overrides log.level unless level is empty.
func WithLogLevel(level string) Override {
	return func(c *Config) {
		if level != "" {
			c.Log.Level = level
		}
	}
}

// LoadAndValidate loads config, applies EASYBOOK_* overrides, defaults and
// the given overrides in order, and validates.
func LoadAndValidate(path string, overrides ...Override) (*Config, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("read environment overrides: %w", err)
	}

	if env.ChatURL != "" {
		c.Chat.URL = env.ChatURL
	}
	if env.StorageDriver != "" {
		c.Storage.Driver = env.StorageDriver
	}
	if env.StoragePath != "" {
		c.Storage.Path = env.StoragePath
	}
	if env.LogLevel != "" {
		c.Log.Level = env.LogLevel
	}
	if env.MetricsPort != 0 {
		c.Metrics.Port = env.MetricsPort
		c.Metrics.Enabled = true
	}
	return nil
}
