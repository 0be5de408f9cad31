package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "subdir")
	assert.NoError(t, lfs.MkdirAll(dir, 0755))

	fpath := filepath.Join(dir, "test.txt")
	f, err := lfs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)

	_, err = f.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.NoError(t, f.Sync())

	info, err := f.Stat()
	assert.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	assert.NoError(t, f.Close())

	data, err := ReadFile(lfs, fpath)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	entries, err := lfs.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)

	newPath := filepath.Join(dir, "renamed.txt")
	assert.NoError(t, lfs.Rename(fpath, newPath))
	assert.NoError(t, SyncDir(lfs, dir))

	ok, err := Exists(lfs, newPath)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, lfs.Remove(newPath))
	ok, err = Exists(lfs, newPath)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, lfs.RemoveAll(dir))
	_, err = lfs.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalFS_CreateTemp(t *testing.T) {
	tmp := t.TempDir()

	f, err := Default.CreateTemp(tmp, "blob-*.tmp")
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, tmp, filepath.Dir(f.Name()))
}

func TestFaultyFS_FailAfterBytes(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(LocalFS{})
	ffs.AddRule("faulty", Fault{FailAfterBytes: 5})

	fpath := filepath.Join(tmp, "faulty.txt")
	f, err := ffs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)

	n, err := f.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = f.Write([]byte("!"))
	assert.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, 0, n)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(fpath)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestFaultyFS_Rules(t *testing.T) {
	tmp := t.TempDir()
	custom := errors.New("disk full")
	ffs := NewFaultyFS(nil)

	ffs.AddRule("open", Fault{FailOnOpen: true})
	_, err := ffs.OpenFile(filepath.Join(tmp, "open.txt"), os.O_CREATE|os.O_RDWR, 0644)
	assert.ErrorIs(t, err, ErrInjected)

	ffs.AddRule("sync", Fault{FailAfterBytes: -1, FailOnSync: true, Err: custom})
	f, err := ffs.OpenFile(filepath.Join(tmp, "sync.txt"), os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	assert.ErrorIs(t, f.Sync(), custom)
	require.NoError(t, f.Close())

	ffs.AddRule("close", Fault{FailAfterBytes: -1, FailOnClose: true})
	f, err = ffs.CreateTemp(tmp, "close-*")
	require.NoError(t, err)
	assert.ErrorIs(t, f.Close(), ErrInjected)

	ffs.AddRule("target", Fault{FailAfterBytes: -1, FailOnRename: true})
	src := filepath.Join(tmp, "src.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))
	assert.ErrorIs(t, ffs.Rename(src, filepath.Join(tmp, "target.txt")), ErrInjected)

	ffs.ClearRules()
	assert.NoError(t, ffs.Rename(src, filepath.Join(tmp, "target.txt")))
}

func TestFaultyFS_Delegation(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(LocalFS{})

	dir := filepath.Join(tmp, "subdir")
	assert.NoError(t, ffs.MkdirAll(dir, 0755))

	fpath := filepath.Join(dir, "test.txt")
	f, err := ffs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = ffs.Stat(fpath)
	assert.NoError(t, err)

	entries, err := ffs.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.NoError(t, ffs.Remove(fpath))
	assert.NoError(t, ffs.RemoveAll(dir))
}
