package database

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_MissingCollectionIsEmpty(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "data"))
	require.NoError(t, err)

	records, err := store.LoadCollection(context.Background(), "tracked_reviews")

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	records := map[string]json.RawMessage{
		"100.1": json.RawMessage(`{"threadKey":"100.1","reviewers":["ua"]}`),
		"200.1": json.RawMessage(`{"threadKey":"200.1","reviewers":[]}`),
	}
	require.NoError(t, store.SaveCollection(ctx, "tracked_reviews", records))

	loaded, err := store.LoadCollection(ctx, "tracked_reviews")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.JSONEq(t, string(records["100.1"]), string(loaded["100.1"]))

	require.NoError(t, store.SaveCollection(ctx, "tracked_reviews", map[string]json.RawMessage{}))
	loaded, err = store.LoadCollection(ctx, "tracked_reviews")
	require.NoError(t, err)
	assert.Empty(t, loaded)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are cleaned up")
	assert.Equal(t, "tracked_reviews.json", entries[0].Name())
}

func TestFileStore_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user_stats.json"), []byte("{oops"), 0o644))
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = store.LoadCollection(context.Background(), "user_stats")

	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.SaveCollection(ctx, "c", map[string]json.RawMessage{"b": json.RawMessage(`1`), "a": json.RawMessage(`2`)}))
	assert.Equal(t, []string{"a", "b"}, store.Keys("c"))
	assert.Equal(t, 1, store.Saves("c"))

	loaded, err := store.LoadCollection(ctx, "c")
	require.NoError(t, err)
	loaded["a"][0] = '9'
	again, _ := store.LoadCollection(ctx, "c")
	assert.Equal(t, json.RawMessage(`2`), again["a"], "loaded records are copies")

	boom := errors.New("boom")
	store.FailSaves(boom)
	assert.ErrorIs(t, store.SaveCollection(ctx, "c", nil), boom)
	assert.Equal(t, 1, store.Saves("c"))
}
