package config

import (
	"time"

	"github.com/google/uuid"
)

// Default values for optional configuration fields.
const (
	DefaultBaseURL          = "http://localhost:8000"
	DefaultPushURL          = "ws://localhost:8000/ws/market"
	DefaultAPITimeout       = 10 * time.Second
	DefaultMaxRetries       = 3
	DefaultRetryBackoff     = 500 * time.Millisecond
	DefaultReconnectDelay   = 5 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultPingTimeout      = 60 * time.Second
	DefaultWriteTimeout     = 10 * time.Second
	DefaultBufferSize       = 256
	DefaultFetchTimeout     = 8 * time.Second
	DefaultWatchlistBackend = "sqlite"
	DefaultSQLitePath       = "marketsync.db"
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 4
	DefaultMinConns         = 1
	DefaultHealthPort       = 8081
	DefaultHealthPath       = "/health"
)

// ApplyDefaults fills unset fields with defaults.
func (c *SyncConfig) ApplyDefaults() {
	if c.Instance.ID == "" {
		c.Instance.ID = "syncd-" + uuid.NewString()[:8]
	}

	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}

	// Push channel defaults
	if c.Push.URL == "" {
		c.Push.URL = DefaultPushURL
	}
	if c.Push.ReconnectDelay == 0 {
		c.Push.ReconnectDelay = DefaultReconnectDelay
	}
	if c.Push.HandshakeTimeout == 0 {
		c.Push.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Push.PingTimeout == 0 {
		c.Push.PingTimeout = DefaultPingTimeout
	}
	if c.Push.WriteTimeout == 0 {
		c.Push.WriteTimeout = DefaultWriteTimeout
	}
	if c.Push.BufferSize == 0 {
		c.Push.BufferSize = DefaultBufferSize
	}

	// Poller defaults
	if c.Poller.FetchTimeout == 0 {
		c.Poller.FetchTimeout = DefaultFetchTimeout
	}

	// Watchlist defaults
	if c.Watchlist.Backend == "" {
		c.Watchlist.Backend = DefaultWatchlistBackend
	}
	if c.Watchlist.SQLite.Path == "" {
		c.Watchlist.SQLite.Path = DefaultSQLitePath
	}
	if c.Watchlist.Backend == "postgres" {
		applyDBDefaults(&c.Watchlist.Postgres)
	}

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
	if c.Health.Path == "" {
		c.Health.Path = DefaultHealthPath
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
