package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the cache uses. pgxmock satisfies it
// for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore is a shared cache backend for multi-instance deployments:
// every instance sees the same geocode and weather payloads.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects a pgx pool to the given DSN.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "cache: postgres connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "cache: postgres ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS kv_cache (
	id         TEXT PRIMARY KEY,
	key        TEXT NOT NULL UNIQUE,
	value      BYTEA NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_kv_cache_expires_at ON kv_cache(expires_at);
`

// Migrate creates the cache table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "cache: postgres migrate")
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT value FROM kv_cache WHERE key = $1 AND expires_at > now()`, key,
	)

	var value []byte
	err := row.Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "cache: postgres get")
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO kv_cache (id, key, value, cached_at, expires_at) VALUES ($1, $2, $3, now(), $4)
		 ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			cached_at = now(),
			expires_at = EXCLUDED.expires_at`,
		uuid.New().String(), key, value, time.Now().UTC().Add(ttl),
	)
	return eris.Wrap(err, "cache: postgres set")
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM kv_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "cache: postgres delete expired")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
