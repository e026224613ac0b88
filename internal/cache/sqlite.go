package cache

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a file-backed cache that survives restarts. Useful when
// geocode results should outlive a redeploy without running a database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "cache: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "cache: sqlite exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS kv_cache (
	id         TEXT PRIMARY KEY,
	key        TEXT NOT NULL UNIQUE,
	value      BLOB NOT NULL,
	cached_at  DATETIME NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_kv_cache_expires_at ON kv_cache(expires_at);
`

// Migrate creates the cache table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "cache: sqlite migrate")
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv_cache WHERE key = ? AND expires_at > ?`,
		key, time.Now().Unix(),
	)

	var value []byte
	err := row.Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "cache: sqlite get")
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_cache (id, key, value, cached_at, expires_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			cached_at = excluded.cached_at,
			expires_at = excluded.expires_at`,
		uuid.New().String(), key, value, now, now.Add(ttl).Unix(),
	)
	return eris.Wrap(err, "cache: sqlite set")
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_cache WHERE expires_at <= ?`, time.Now().Unix(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "cache: sqlite delete expired")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "cache: sqlite rows affected")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
