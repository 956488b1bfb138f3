package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/garyellow/interview-linebot-go/internal/availability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ availability.Store = (*DB)(nil)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	// Temp file per test: in-memory databases are per-connection and the pool
	// may open more than one.
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_CreatesDirectoryAndFile(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "nested", "availability.db")
	db, err := New(context.Background(), dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
	assert.Equal(t, dbPath, db.Path())
	assert.NoError(t, db.Ping(context.Background()))
}

func TestDB_LoadNeverWritten(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	lines, err := db.Load(context.Background(), availability.DefaultKey)
	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)

	rec, err := db.GetRecord(context.Background(), availability.DefaultKey)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestDB_SaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	want := []string{
		"- Slot 1 : Sat, 15 Feb - 2:00 PM to 2:45 PM",
		"- Slot 2 : Sun, 16 Feb - 10:30 AM to 11:15 AM",
	}
	before := time.Now().Unix()
	require.NoError(t, db.Save(ctx, availability.DefaultKey, want))

	got, err := db.Load(ctx, availability.DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	rec, err := db.GetRecord(ctx, availability.DefaultKey)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.GreaterOrEqual(t, rec.UpdatedAt, before)
}

func TestDB_SaveReplacesRecord(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Save(ctx, "candidate-1", []string{"a", "b"}))
	require.NoError(t, db.Save(ctx, "candidate-1", []string{"c"}))
	require.NoError(t, db.Save(ctx, "candidate-2", []string{"d"}))

	got, err := db.Load(ctx, "candidate-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, got)

	count, err := db.CountRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDB_SaveEmptyRecord(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Save(ctx, availability.DefaultKey, nil))
	got, err := db.Load(ctx, availability.DefaultKey)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDB_RejectsInvalidKey(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	err := db.Save(context.Background(), "../x", []string{"a"})
	assert.ErrorIs(t, err, availability.ErrInvalidKey)

	_, err = db.Load(context.Background(), "")
	assert.ErrorIs(t, err, availability.ErrInvalidKey)
}
