// Package cache provides the TTL key/value store the dashboard service
// reads raw provider payloads through. Backends share get-or-miss
// semantics: an expired or absent key is a miss, never an error, and
// concurrent misses on the same key may each trigger their own upstream
// fetch (no single-flight).
package cache

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// Store is the cache collaborator injected into the dashboard service.
type Store interface {
	// Get returns the cached value for key, or found=false on a miss.
	// Expired entries are never returned.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value under key for ttl. An existing entry is replaced.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// DeleteExpired removes expired entries and reports how many went.
	DeleteExpired(ctx context.Context) (int, error)

	Close() error
}

// Config selects and configures a cache backend.
type Config struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// Open creates the Store named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = "citypulse-cache.db"
		}
		s, err := NewSQLite(path)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, eris.New("cache: driver postgres requires cache.database_url")
		}
		s, err := NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, eris.Errorf("cache: unknown driver %q", cfg.Driver)
	}
}
