package blob

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotKey(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	assert.Equal(t, "contexts/11111111-2222-3333-4444-555555555555/v3.md", SnapshotKey(id, 3))
}

func TestFSStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	key := "contexts/u1/v1.md"
	require.NoError(t, store.Put(ctx, key, []byte("hello")))

	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	_, err = store.Get(ctx, "contexts/u1/v2.md")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.DeletePrefix(ctx, "contexts/u1/"))
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStore_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	err = store.Put(ctx, "../outside", []byte("x"))
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "a/1", []byte("one")))
	require.NoError(t, store.Put(ctx, "a/2", []byte("two")))
	require.NoError(t, store.Put(ctx, "b/1", []byte("three")))

	data, err := store.Get(ctx, "a/1")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)

	// Mutating the returned slice must not affect the stored blob.
	data[0] = 'X'
	again, err := store.Get(ctx, "a/1")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), again)

	require.NoError(t, store.DeletePrefix(ctx, "a/"))
	assert.Equal(t, 1, store.Len())
}
