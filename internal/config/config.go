package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHTTPPort       = 8080
	DefaultStreamInterval = 30 * time.Second
	DefaultStorageKey     = "studentScores"
	DefaultStorageDir     = "data"
	DefaultDSNEnv         = "GRADEBOOK_DSN"
	DefaultLogLevel       = "info"
)

// Storage backends.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config is the top-level configuration. Fields map 1:1 to config.example.yaml.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, WebSocket stream and /metrics listen on.
	HTTPPort int `yaml:"http_port"`

	// UIDir, when set, is served as static files with index.html fallback.
	UIDir string `yaml:"ui_dir"`

	// StreamInterval is how often the records view is re-sent to stream
	// clients even when nothing changed.
	StreamInterval time.Duration `yaml:"stream_interval"`
}

// StorageConfig selects and configures the durable slot.
type StorageConfig struct {
	// Backend is one of: file | memory | postgres.
	Backend string `yaml:"backend"`

	// Key is the slot name under which the record list is stored.
	Key string `yaml:"key"`

	// Dir is the directory holding <key>.json for the file backend.
	Dir string `yaml:"dir"`

	// DSNEnv is the name of the environment variable that holds the Postgres
	// DSN. Used when Backend == "postgres".
	DSNEnv string `yaml:"dsn_env"`
}

// DSN returns the Postgres DSN resolved from the environment.
func (s StorageConfig) DSN() string {
	if s.DSNEnv == "" {
		return ""
	}
	return os.Getenv(s.DSNEnv)
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`
}

// SlogLevel converts Level to a slog.Level. Validate guarantees it parses.
func (l LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return defaults()
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:       DefaultHTTPPort,
			StreamInterval: DefaultStreamInterval,
		},
		Storage: StorageConfig{
			Backend: BackendFile,
			Key:     DefaultStorageKey,
			Dir:     DefaultStorageDir,
			DSNEnv:  DefaultDSNEnv,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.StreamInterval <= 0 {
		return fmt.Errorf("server.stream_interval must be positive")
	}
	switch cfg.Storage.Backend {
	case BackendFile:
		if cfg.Storage.Dir == "" {
			return fmt.Errorf("storage.dir is required for the file backend")
		}
	case BackendMemory:
	case BackendPostgres:
		if cfg.Storage.DSNEnv == "" {
			return fmt.Errorf("storage.dsn_env is required for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend %q unknown: want file|memory|postgres", cfg.Storage.Backend)
	}
	if strings.TrimSpace(cfg.Storage.Key) == "" {
		return fmt.Errorf("storage.key is required")
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	return nil
}
