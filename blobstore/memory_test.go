package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// Put and Open
	data := []byte("0123456789")
	require.NoError(t, store.Put(ctx, "views/a", data))

	blob, err := store.Open(ctx, "views/a")
	require.NoError(t, err)
	require.Equal(t, int64(10), blob.Size())

	buf := make([]byte, 4)
	n, err := blob.ReadAt(ctx, buf, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "3456", string(buf))

	// Short read at the tail reports EOF
	n, err = blob.ReadAt(ctx, buf, 8)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)

	// ReadRange truncates at the end
	r, err := blob.ReadRange(ctx, 8, 5)
	require.NoError(t, err)
	tail, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "89", string(tail))
	require.NoError(t, r.Close())

	// Offset past EOF
	_, err = blob.ReadRange(ctx, 20, 1)
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, blob.Close())

	// List and Delete
	require.NoError(t, store.Put(ctx, "views/b", []byte("x")))
	require.NoError(t, store.Put(ctx, "other/c", []byte("y")))

	names, err := store.List(ctx, "views/")
	require.NoError(t, err)
	assert.Equal(t, []string{"views/a", "views/b"}, names)

	require.NoError(t, store.Delete(ctx, "views/a"))
	_, err = store.Open(ctx, "views/a")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing blob is not an error
	require.NoError(t, store.Delete(ctx, "views/a"))
}

func TestMemoryStore_CreateVisibility(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	w, err := store.Create(ctx, "staged")
	require.NoError(t, err)
	_, err = w.Write([]byte("half"))
	require.NoError(t, err)

	// Not visible until Close
	_, err = store.Open(ctx, "staged")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = w.Write([]byte("-done"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())

	blob, err := store.Open(ctx, "staged")
	require.NoError(t, err)
	got, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, "half-done", string(got))
	require.NoError(t, blob.Close())
}

func TestMemoryStore_SnapshotIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "v", []byte("old")))
	blob, err := store.Open(ctx, "v")
	require.NoError(t, err)

	// Overwrite after Open; the reader keeps the old content.
	require.NoError(t, store.Put(ctx, "v", []byte("new")))

	got, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))
	require.NoError(t, blob.Close())
}

func TestReadAll_Empty(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "empty", nil))
	blob, err := store.Open(ctx, "empty")
	require.NoError(t, err)
	got, err := ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, blob.Close())
}
