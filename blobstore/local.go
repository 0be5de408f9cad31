package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/vstore/internal/fs"
	"github.com/hupe1980/vstore/internal/mmap"
	"github.com/hupe1980/vstore/internal/pool"
	"github.com/hupe1980/vstore/resource"
)

// Options configures a LocalStore.
type Options struct {
	// Extension is appended to every blob file name. Defaults to DefaultExtension.
	Extension string

	// FileSystem is the filesystem used for all writes. Defaults to fs.Default.
	FileSystem fs.FileSystem

	// Resources throttles copies. Nil means unlimited.
	Resources *resource.Controller
}

// LocalStore implements BlobStore using the local file system.
type LocalStore struct {
	root string
	opts Options
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
// The directory is created lazily on the first Put. It fails with
// ErrInvalidExtension if the configured extension could escape root.
func NewLocalStore(root string, optFns ...func(o *Options)) (*LocalStore, error) {
	opts := Options{
		Extension:  DefaultExtension,
		FileSystem: fs.Default,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.FileSystem == nil {
		opts.FileSystem = fs.Default
	}
	opts.Extension = strings.TrimPrefix(opts.Extension, ".")
	if err := ValidateExtension(opts.Extension); err != nil {
		return nil, err
	}
	return &LocalStore{root: root, opts: opts}, nil
}

// Root returns the storage root directory.
func (s *LocalStore) Root() string { return s.root }

// Path returns the blob path for fingerprint.
func (s *LocalStore) Path(fingerprint string) string {
	return filepath.Join(s.root, fileName(fingerprint, s.opts.Extension))
}

// Put copies sourcePath into the store as `<fingerprint>.<ext>`.
func (s *LocalStore) Put(ctx context.Context, fingerprint, sourcePath string) (string, error) {
	if err := ValidateFingerprint(fingerprint); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fsys := s.opts.FileSystem

	src, err := fsys.OpenFile(sourcePath, os.O_RDONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: source %s", ErrNotFound, sourcePath)
		}
		return "", &IOError{Op: "open", Path: sourcePath, Err: err}
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return "", &IOError{Op: "stat", Path: sourcePath, Err: err}
	}
	if !info.Mode().IsRegular() {
		return "", &IOError{Op: "open", Path: sourcePath, Err: fmt.Errorf("not a regular file")}
	}

	if err := fsys.MkdirAll(s.root, 0o755); err != nil {
		return "", &IOError{Op: "mkdir", Path: s.root, Err: err}
	}

	name := fileName(fingerprint, s.opts.Extension)
	target := filepath.Join(s.root, name)

	tmp, err := fsys.CreateTemp(s.root, "."+name+".tmp-*")
	if err != nil {
		return "", &IOError{Op: "create", Path: target, Err: err}
	}
	tmpPath := tmp.Name()

	fail := func(op string, err error) (string, error) {
		_ = tmp.Close()
		_ = fsys.Remove(tmpPath)
		return "", &IOError{Op: op, Path: target, Err: err}
	}

	if _, err := pool.Copy(tmp, resource.NewRateLimitedReader(ctx, src, s.opts.Resources)); err != nil {
		if ctx.Err() != nil {
			_ = tmp.Close()
			_ = fsys.Remove(tmpPath)
			return "", err
		}
		return fail("write", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := tmp.Close(); err != nil {
		_ = fsys.Remove(tmpPath)
		return "", &IOError{Op: "close", Path: target, Err: err}
	}
	if err := fsys.Rename(tmpPath, target); err != nil {
		_ = fsys.Remove(tmpPath)
		return "", &IOError{Op: "rename", Path: target, Err: err}
	}
	if err := fs.SyncDir(fsys, s.root); err != nil {
		return "", &IOError{Op: "sync", Path: s.root, Err: err}
	}

	return target, nil
}

// Has reports whether the blob file exists.
func (s *LocalStore) Has(_ context.Context, fingerprint string) (bool, error) {
	if err := ValidateFingerprint(fingerprint); err != nil {
		return false, err
	}
	ok, err := fs.Exists(s.opts.FileSystem, s.Path(fingerprint))
	if err != nil {
		return false, &IOError{Op: "stat", Path: s.Path(fingerprint), Err: err}
	}
	return ok, nil
}

// Open opens a blob for reading. On the real filesystem the blob is memory-mapped.
func (s *LocalStore) Open(_ context.Context, fingerprint string) (Blob, error) {
	if err := ValidateFingerprint(fingerprint); err != nil {
		return nil, err
	}
	path := s.Path(fingerprint)

	if _, ok := s.opts.FileSystem.(fs.LocalFS); ok {
		m, err := mmap.Open(path)
		if err != nil {
			return nil, s.openError(path, err)
		}
		// Blobs are read start to end when digesting or extracting.
		_ = m.Advise(mmap.AccessSequential)
		return &mappedBlob{m: m}, nil
	}

	f, err := s.opts.FileSystem.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, s.openError(path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &IOError{Op: "stat", Path: path, Err: err}
	}
	return &fileBlob{f: f, size: info.Size()}, nil
}

func (s *LocalStore) openError(path string, err error) error {
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return &IOError{Op: "open", Path: path, Err: err}
}

// Delete removes the blob file.
func (s *LocalStore) Delete(_ context.Context, fingerprint string) error {
	if err := ValidateFingerprint(fingerprint); err != nil {
		return err
	}
	path := s.Path(fingerprint)
	if err := s.opts.FileSystem.Remove(path); err != nil && !os.IsNotExist(err) {
		return &IOError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// List returns the fingerprints of all stored blobs. Temp files are skipped.
func (s *LocalStore) List(_ context.Context) ([]string, error) {
	entries, err := s.opts.FileSystem.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &IOError{Op: "readdir", Path: s.root, Err: err}
	}

	suffix := ""
	if s.opts.Extension != "" {
		suffix = "." + s.opts.Extension
	}

	var fingerprints []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, suffix) {
			continue
		}
		fingerprints = append(fingerprints, strings.TrimSuffix(name, suffix))
	}
	sort.Strings(fingerprints)
	return fingerprints, nil
}

type mappedBlob struct {
	m *mmap.Mapping
}

func (b *mappedBlob) ReadAt(p []byte, off int64) (int, error) { return b.m.ReadAt(p, off) }
func (b *mappedBlob) Close() error                            { return b.m.Close() }
func (b *mappedBlob) Size() int64                             { return b.m.Size() }
func (b *mappedBlob) Bytes() ([]byte, error)                  { return b.m.Bytes(), nil }

type fileBlob struct {
	f    fs.File
	size int64
}

func (b *fileBlob) ReadAt(p []byte, off int64) (int, error) { return b.f.ReadAt(p, off) }
func (b *fileBlob) Close() error                            { return b.f.Close() }
func (b *fileBlob) Size() int64                             { return b.size }
