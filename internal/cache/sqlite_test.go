package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	_, found, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "k", []byte("v1"), time.Hour))
	val, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("v1"), val)
}

func TestSQLiteStore_UpsertOnConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	require.NoError(t, s.Set(ctx, "k", []byte("v1"), time.Hour))
	require.NoError(t, s.Set(ctx, "k", []byte("v2"), time.Hour))

	val, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("v2"), val)
}

func TestSQLiteStore_ExpiredEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	// A negative TTL writes an expires_at already in the past.
	require.NoError(t, s.Set(ctx, "stale", []byte("v"), -time.Minute))

	_, found, err := s.Get(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLiteStore_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	require.NoError(t, s.Set(ctx, "stale", []byte("a"), -time.Minute))
	require.NoError(t, s.Set(ctx, "fresh", []byte("b"), time.Hour))

	deleted, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, found, _ := s.Get(ctx, "fresh")
	assert.True(t, found)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Set(ctx, "k", []byte("persisted"), time.Hour))
	require.NoError(t, s.Close())

	s2, err := NewSQLite(path)
	require.NoError(t, err)
	defer s2.Close()
	require.NoError(t, s2.Migrate(ctx))

	val, found, err := s2.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("persisted"), val)
}
