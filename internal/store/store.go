// Package store caches extracted vendor page text so repeated
// classifications of the same URL skip the fetch.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/saas-classifier/internal/model"
)

// Store persists extracted documents keyed by URL.
type Store interface {
	// GetCachedText returns the live entry for url, or nil when there is
	// none or it has expired.
	GetCachedText(ctx context.Context, url string) (*model.CachedText, error)
	// SetCachedText inserts or replaces the entry for url.
	SetCachedText(ctx context.Context, url string, doc model.Document, ttl time.Duration) error
	// DeleteExpired removes expired entries and reports how many.
	DeleteExpired(ctx context.Context) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and locates the backing database.
type Config struct {
	Driver      string      `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string      `yaml:"database_url" mapstructure:"database_url"`
	Pool        *PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// Open connects to the configured database and runs migrations.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		st  Store
		err error
	)
	switch strings.ToLower(cfg.Driver) {
	case DriverSQLite, "":
		if cfg.DatabaseURL == "" {
			return nil, eris.New("store: sqlite requires a database path")
		}
		st, err = NewSQLite(cfg.DatabaseURL)
	case DriverPostgres, "postgresql", "pgx":
		st, err = NewPostgres(ctx, cfg.DatabaseURL, cfg.Pool)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}
