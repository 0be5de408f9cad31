package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"release.MF":          "name: test\n",
		".hidden":             "secret",
		"jobs/web/monit":      "check process web",
		"jobs/web/spec":       "name: web",
		"packages/redis/data": string(bytes.Repeat([]byte("redis"), 1000)),
	}
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))
	return dir
}

func TestListing(t *testing.T) {
	dir := buildTree(t)

	files, err := Listing(dir, false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		".hidden",
		filepath.FromSlash("jobs/web/monit"),
		filepath.FromSlash("jobs/web/spec"),
		filepath.FromSlash("packages/redis/data"),
		"release.MF",
	}, files)

	all, err := Listing(dir, true)
	require.NoError(t, err)
	assert.Contains(t, all, "empty")
	assert.Contains(t, all, "jobs")
	assert.Contains(t, all, filepath.FromSlash("jobs/web"))
	assert.Len(t, all, len(files)+5)

	_, err = Listing(filepath.Join(dir, "missing"), false)
	require.Error(t, err)
}

func TestPackUnpack_RoundTrip(t *testing.T) {
	src := buildTree(t)
	want, err := Listing(src, true)
	require.NoError(t, err)

	for _, c := range []Compression{Gzip, LZ4, Zstd, None} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Pack(context.Background(), src, &buf, func(o *Options) { o.Compression = c }))

			detected, _, err := Detect(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, c, detected)

			dest := filepath.Join(t.TempDir(), "out")
			require.NoError(t, Unpack(context.Background(), &buf, dest))

			got, err := Listing(dest, true)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			data, err := os.ReadFile(filepath.Join(dest, "packages", "redis", "data"))
			require.NoError(t, err)
			assert.Equal(t, bytes.Repeat([]byte("redis"), 1000), data)
		})
	}
}

func TestPack_Deterministic(t *testing.T) {
	src := buildTree(t)
	ctx := context.Background()

	var first bytes.Buffer
	require.NoError(t, Pack(ctx, src, &first))

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(src, "release.MF"), later, later))

	var second bytes.Buffer
	require.NoError(t, Pack(ctx, src, &second))
	assert.Equal(t, first.Bytes(), second.Bytes())

	require.NoError(t, os.WriteFile(filepath.Join(src, "release.MF"), []byte("name: changed\n"), 0o644))
	var third bytes.Buffer
	require.NoError(t, Pack(ctx, src, &third))
	assert.NotEqual(t, first.Bytes(), third.Bytes())
}

func TestPack_Level(t *testing.T) {
	src := buildTree(t)
	for _, c := range []Compression{Gzip, LZ4, Zstd} {
		var buf bytes.Buffer
		require.NoError(t, Pack(context.Background(), src, &buf, func(o *Options) {
			o.Compression = c
			o.Level = 9
		}), c.String())
	}
}

func TestPack_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Pack(ctx, buildTree(t), &bytes.Buffer{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestUnpack_RejectsEscapingEntries(t *testing.T) {
	for _, name := range []string{"../evil", "a/../../evil", "/etc/evil"} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			tw := tar.NewWriter(&buf)
			require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: 1, Typeflag: tar.TypeReg}))
			_, err := tw.Write([]byte("x"))
			require.NoError(t, err)
			require.NoError(t, tw.Close())

			root := t.TempDir()
			dest := filepath.Join(root, "out")
			err = Unpack(context.Background(), &buf, dest)
			require.ErrorIs(t, err, ErrUnsafePath)

			_, statErr := os.Stat(filepath.Join(root, "evil"))
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestUnpack_RejectsSymlinks(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "link", Linkname: "/etc/passwd", Typeflag: tar.TypeSymlink}))
	require.NoError(t, tw.Close())

	err := Unpack(context.Background(), &buf, t.TempDir())
	require.ErrorIs(t, err, ErrUnsupportedEntry)
}

func TestUnpack_Garbage(t *testing.T) {
	err := Unpack(context.Background(), bytes.NewReader([]byte{0x1f, 0x8b, 0, 1, 2}), t.TempDir())
	require.Error(t, err)
}
