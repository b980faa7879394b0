package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Put(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://localhost:8080/rendered")
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "jobs/abc/page_1.png", []byte("png-data"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/rendered/jobs/abc/page_1.png", url)

	written, err := os.ReadFile(filepath.Join(dir, "jobs", "abc", "page_1.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-data"), written)
}

func TestLocalStore_PutOverwrites(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://example.com")
	require.NoError(t, err)

	ctx := context.Background()
	first, err := store.Put(ctx, "jobs/j/page_2.png", []byte("v1"), "image/png")
	require.NoError(t, err)
	second, err := store.Put(ctx, "jobs/j/page_2.png", []byte("v2"), "image/png")
	require.NoError(t, err)

	// Re-rendering replaces the object at the same stable URL.
	assert.Equal(t, first, second)
}

func TestPageImageKey(t *testing.T) {
	assert.Equal(t, "jobs/abc-123/page_7.png", PageImageKey("abc-123", 7))
}
