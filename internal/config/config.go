package config

import "time"

// SyncConfig is the root configuration for a sync daemon instance.
type SyncConfig struct {
	Instance  InstanceConfig  `yaml:"instance"`
	API       APIConfig       `yaml:"api"`
	Push      PushConfig      `yaml:"push"`
	Poller    PollerConfig    `yaml:"poller"`
	Watchlist WatchlistConfig `yaml:"watchlist"`
	Health    HealthConfig    `yaml:"health"`
}

// InstanceConfig identifies this daemon.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// APIConfig holds REST API settings for the fallback fetch path.
type APIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// PushConfig holds push-channel (WebSocket) settings.
type PushConfig struct {
	URL              string        `yaml:"url"`
	ReconnectDelay   time.Duration `yaml:"reconnect_delay"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	PingTimeout      time.Duration `yaml:"ping_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	BufferSize       int           `yaml:"buffer_size"`
}

// PollerConfig holds REST polling settings. The poll cadence itself is
// session-driven; only the per-fetch timeout is configurable.
type PollerConfig struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// WatchlistConfig selects and configures the watchlist persistence
// backend.
type WatchlistConfig struct {
	Backend  string   `yaml:"backend"` // "sqlite" or "postgres"
	SQLite   SQLite   `yaml:"sqlite"`
	Postgres DBConfig `yaml:"postgres"`
}

// SQLite holds the file-backed KV settings.
type SQLite struct {
	Path string `yaml:"path"`
}

// DBConfig holds a single Postgres connection.
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

// HealthConfig holds the health/debug HTTP endpoint settings.
type HealthConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
