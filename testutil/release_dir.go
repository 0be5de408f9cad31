package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/vstore/archive"
	"github.com/hupe1980/vstore/blobstore"
	"github.com/hupe1980/vstore/index"
)

// ReleaseDir is a scratch release tree: Path holds sources and index files,
// ArtifactsDir holds stored blobs. Both are removed when the test ends.
type ReleaseDir struct {
	t            testing.TB
	Path         string
	ArtifactsDir string
}

// NewReleaseDir creates both roots under t.TempDir.
func NewReleaseDir(t testing.TB) *ReleaseDir {
	t.Helper()
	return &ReleaseDir{
		t:            t,
		Path:         t.TempDir(),
		ArtifactsDir: t.TempDir(),
	}
}

// Join returns a path below Path.
func (d *ReleaseDir) Join(elem ...string) string {
	return filepath.Join(append([]string{d.Path}, elem...)...)
}

// IndexPath returns the index file path for the given subdirectory.
func (d *ReleaseDir) IndexPath(subdir string) string {
	return d.Join(subdir, index.DefaultFileName)
}

// AddDir creates subdir (and parents) below Path.
func (d *ReleaseDir) AddDir(subdir string) string {
	d.t.Helper()
	p := d.Join(subdir)
	if err := os.MkdirAll(p, 0o755); err != nil {
		d.t.Fatalf("add dir %s: %v", subdir, err)
	}
	return p
}

// AddFile writes a file at subdir/name. A nil contents creates an empty file.
func (d *ReleaseDir) AddFile(subdir, name string, contents []byte) string {
	d.t.Helper()
	p := d.Join(subdir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		d.t.Fatalf("add file %s: %v", p, err)
	}
	if err := os.WriteFile(p, contents, 0o644); err != nil {
		d.t.Fatalf("add file %s: %v", p, err)
	}
	return p
}

// AddFiles creates empty files below subdir.
func (d *ReleaseDir) AddFiles(subdir string, names ...string) {
	d.t.Helper()
	for _, name := range names {
		d.AddFile(subdir, name, nil)
	}
}

// RemoveDir deletes subdir recursively. Missing directories are ignored.
func (d *ReleaseDir) RemoveDir(subdir string) {
	d.t.Helper()
	if err := os.RemoveAll(d.Join(subdir)); err != nil {
		d.t.Fatalf("remove dir %s: %v", subdir, err)
	}
}

// RemoveFile deletes subdir/name. The file must exist.
func (d *ReleaseDir) RemoveFile(subdir, name string) {
	d.t.Helper()
	if err := os.Remove(d.Join(subdir, name)); err != nil {
		d.t.Fatalf("remove file %s: %v", name, err)
	}
}

// RemoveFiles deletes several files below subdir.
func (d *ReleaseDir) RemoveFiles(subdir string, names ...string) {
	d.t.Helper()
	for _, name := range names {
		d.RemoveFile(subdir, name)
	}
}

// WritePayload writes data to a fresh file outside both roots and returns its path.
func (d *ReleaseDir) WritePayload(data []byte) string {
	d.t.Helper()
	f, err := os.CreateTemp(d.t.TempDir(), "payload-*.tgz")
	if err != nil {
		d.t.Fatalf("write payload: %v", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		d.t.Fatalf("write payload: %v", err)
	}
	return f.Name()
}

// HasIndexFile reports whether the index file of subdir exists.
func (d *ReleaseDir) HasIndexFile(subdir string) bool {
	_, err := os.Stat(d.IndexPath(subdir))
	return err == nil
}

// ArtifactPath returns where the blob for fingerprint is stored.
func (d *ReleaseDir) ArtifactPath(fingerprint string) string {
	return filepath.Join(d.ArtifactsDir, fingerprint+"."+blobstore.DefaultExtension)
}

// HasArtifact reports whether a blob for fingerprint exists.
func (d *ReleaseDir) HasArtifact(fingerprint string) bool {
	_, err := os.Stat(d.ArtifactPath(fingerprint))
	return err == nil
}

// Listing returns the relative paths below subdir, including dotfiles.
func (d *ReleaseDir) Listing(subdir string, includeDirs bool) []string {
	d.t.Helper()
	files, err := archive.Listing(d.Join(subdir), includeDirs)
	if err != nil {
		d.t.Fatalf("listing %s: %v", subdir, err)
	}
	return files
}
