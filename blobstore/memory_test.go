package blobstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	path, err := store.Put(ctx, "fp", writeSource(t, []byte("in memory")))
	require.NoError(t, err)
	assert.Equal(t, "memory://fp.tgz", path)

	ok, err := store.Has(ctx, "fp")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("in memory"), readBlob(t, store, "fp"))

	store.Corrupt("fp", []byte("tampered"))
	assert.Equal(t, []byte("tampered"), readBlob(t, store, "fp"))

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fp"}, list)

	require.NoError(t, store.Delete(ctx, "fp"))
	_, err = store.Open(ctx, "fp")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Put(ctx, "fp", filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Put(ctx, "../x", writeSource(t, nil))
	assert.ErrorIs(t, err, ErrInvalidFingerprint)
}
