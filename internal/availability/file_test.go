package availability

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_LoadNeverWritten(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "missing"))
	lines, err := store.Load(context.Background(), DefaultKey)

	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)
}

func TestFileStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store := NewFileStore(t.TempDir())
	ctx := context.Background()
	want := []string{
		"- Slot 1 : Sat, 15 Feb - 2:00 PM to 2:45 PM",
		"- Slot 4  : (invalid datetime: 2025-02-20Tnoon)",
		"- Tue, 18 Feb - 9:00 AM to 9:45 AM",
	}

	require.NoError(t, store.Save(ctx, DefaultKey, want))
	got, err := store.Load(ctx, DefaultKey)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileStore_SaveOverwritesWholeRecord(t *testing.T) {
	t.Parallel()

	store := NewFileStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, DefaultKey, []string{"a", "b", "c"}))
	require.NoError(t, store.Save(ctx, DefaultKey, []string{"d"}))

	got, err := store.Load(ctx, DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, got)
}

func TestFileStore_ContentHasNoTrailingNewline(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewFileStore(dir)

	require.NoError(t, store.Save(context.Background(), DefaultKey, []string{"one", "two"}))

	data, err := os.ReadFile(store.Path(DefaultKey))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestFileStore_EmptyFileIsEmptyRecord(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, os.WriteFile(store.Path(DefaultKey), nil, 0o644))

	got, err := store.Load(context.Background(), DefaultKey)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStore_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	store := NewFileStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "candidate-a", []string{"a"}))
	require.NoError(t, store.Save(ctx, "candidate-b", []string{"b"}))

	a, err := store.Load(ctx, "candidate-a")
	require.NoError(t, err)
	b, err := store.Load(ctx, "candidate-b")
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, a)
	assert.Equal(t, []string{"b"}, b)
}

func TestFileStore_RejectsUnsafeKeys(t *testing.T) {
	t.Parallel()

	store := NewFileStore(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"", "../escape", "a/b", ".hidden", "a..b"} {
		assert.ErrorIs(t, store.Save(ctx, key, []string{"x"}), ErrInvalidKey, key)
		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestFileStore_Ping(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "data")
	assert.NoError(t, NewFileStore(dir).Ping(context.Background()))

	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	assert.Error(t, NewFileStore(file).Ping(context.Background()))
}

func TestFileStore_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewFileStore(t.TempDir())
	assert.ErrorIs(t, store.Save(ctx, DefaultKey, []string{"x"}), context.Canceled)
}
