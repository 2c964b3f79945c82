package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *SyncConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}

	if c.Push.URL == "" {
		return errors.New("push.url is required")
	}
	if !strings.HasPrefix(c.Push.URL, "ws://") && !strings.HasPrefix(c.Push.URL, "wss://") {
		return fmt.Errorf("push.url must use ws:// or wss://, got %q", c.Push.URL)
	}
	if c.Push.ReconnectDelay <= 0 {
		return errors.New("push.reconnect_delay must be > 0")
	}
	if c.Push.BufferSize < 1 {
		return errors.New("push.buffer_size must be >= 1")
	}

	if c.Poller.FetchTimeout <= 0 {
		return errors.New("poller.fetch_timeout must be > 0")
	}

	switch c.Watchlist.Backend {
	case "sqlite":
		if c.Watchlist.SQLite.Path == "" {
			return errors.New("watchlist.sqlite.path is required")
		}
	case "postgres":
		if err := c.Watchlist.Postgres.validate("watchlist.postgres"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("watchlist.backend must be sqlite or postgres, got %q", c.Watchlist.Backend)
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
