package index

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/vstore/codec"
	"github.com/hupe1980/vstore/internal/fs"
)

const (
	// FormatVersion is the version of the index document format.
	FormatVersion = 2

	// DefaultFileName is the conventional name of an index file.
	DefaultFileName = "index.yml"
)

// document is the on-disk shape of the index.
type document struct {
	FormatVersion int      `json:"format_version" yaml:"format_version"`
	Versions      []Record `json:"versions" yaml:"versions"`
}

func (d *document) find(key, fingerprint string) int {
	for i, r := range d.Versions {
		if r.matches(key, fingerprint) {
			return i
		}
	}
	return -1
}

// Options configures an Index.
type Options struct {
	// FileSystem is used for all reads and writes. Defaults to fs.Default.
	FileSystem fs.FileSystem

	// Codec encodes the document. Defaults to codec.ForPath(path).
	Codec codec.Codec
}

// Index is a file-backed version index.
type Index struct {
	path string
	opts Options
	mu   sync.Mutex
}

// New creates an Index backed by the file at path. Nothing is read or created
// until the first operation.
func New(path string, optFns ...func(o *Options)) *Index {
	opts := Options{
		FileSystem: fs.Default,
		Codec:      codec.ForPath(path),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.FileSystem == nil {
		opts.FileSystem = fs.Default
	}
	if opts.Codec == nil {
		opts.Codec = codec.ForPath(path)
	}
	return &Index{path: path, opts: opts}
}

// Path returns the index file path.
func (i *Index) Path() string { return i.path }

// HasIndexFile reports whether the backing file exists. An unreadable path
// (e.g. permission denied on the parent) reports false.
func (i *Index) HasIndexFile() bool {
	_, err := i.opts.FileSystem.Stat(i.path)
	return err == nil
}

// Add inserts a new record for (rec.Key, rec.Fingerprint).
func (i *Index) Add(ctx context.Context, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	return i.mutate(ctx, func(doc *document) error {
		if doc.find(rec.Key, rec.Fingerprint) >= 0 {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateVersion, rec.Key, rec.Fingerprint)
		}
		doc.Versions = append(doc.Versions, rec.Clone())
		return nil
	})
}

// Update replaces the record for an existing (rec.Key, rec.Fingerprint) pair.
func (i *Index) Update(ctx context.Context, rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	return i.mutate(ctx, func(doc *document) error {
		pos := doc.find(rec.Key, rec.Fingerprint)
		if pos < 0 {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, rec.Key, rec.Fingerprint)
		}
		doc.Versions[pos] = rec.Clone()
		return nil
	})
}

// Find looks up the record for (key, fingerprint). Absence is reported through
// the boolean; an error means the index itself could not be read.
func (i *Index) Find(ctx context.Context, key, fingerprint string) (Record, bool, error) {
	doc, err := i.read(ctx)
	if err != nil {
		return Record{}, false, err
	}
	pos := doc.find(key, fingerprint)
	if pos < 0 {
		return Record{}, false, nil
	}
	return doc.Versions[pos], true, nil
}

// Remove deletes the record for (key, fingerprint). It is the explicit
// maintenance step for clearing a dangling version.
func (i *Index) Remove(ctx context.Context, key, fingerprint string) error {
	return i.mutate(ctx, func(doc *document) error {
		pos := doc.find(key, fingerprint)
		if pos < 0 {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, key, fingerprint)
		}
		doc.Versions = append(doc.Versions[:pos], doc.Versions[pos+1:]...)
		return nil
	})
}

// RemoveKey deletes every record of key and returns how many were removed.
func (i *Index) RemoveKey(ctx context.Context, key string) (int, error) {
	removed := 0
	err := i.mutate(ctx, func(doc *document) error {
		kept := doc.Versions[:0]
		for _, r := range doc.Versions {
			if r.Key == key {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		if removed == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		doc.Versions = kept
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Versions returns the records of key in insertion order.
func (i *Index) Versions(ctx context.Context, key string) ([]Record, error) {
	doc, err := i.read(ctx)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, r := range doc.Versions {
		if r.Key == key {
			out = append(out, r)
		}
	}
	return out, nil
}

// Keys returns the distinct keys in first-seen order.
func (i *Index) Keys(ctx context.Context) ([]string, error) {
	doc, err := i.read(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var keys []string
	for _, r := range doc.Versions {
		if _, ok := seen[r.Key]; ok {
			continue
		}
		seen[r.Key] = struct{}{}
		keys = append(keys, r.Key)
	}
	return keys, nil
}

// All returns every record in insertion order.
func (i *Index) All(ctx context.Context) ([]Record, error) {
	doc, err := i.read(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Versions, nil
}

func (i *Index) read(ctx context.Context) (*document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.load()
}

// mutate runs fn against a freshly loaded document and persists the result.
// Nothing is written when fn fails.
func (i *Index) mutate(ctx context.Context, fn func(doc *document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	doc, err := i.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return i.save(doc)
}

func (i *Index) load() (*document, error) {
	data, err := fs.ReadFile(i.opts.FileSystem, i.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &document{FormatVersion: FormatVersion}, nil
		}
		return nil, &IOError{Op: "read", Path: i.path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &document{FormatVersion: FormatVersion}, nil
	}

	var doc document
	if err := i.opts.Codec.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, i.path, err)
	}
	if doc.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: %s has format_version %d (expected %d)",
			ErrIncompatibleVersion, i.path, doc.FormatVersion, FormatVersion)
	}

	seen := make(map[[2]string]struct{}, len(doc.Versions))
	for _, r := range doc.Versions {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, i.path, err)
		}
		pair := [2]string{r.Key, r.Fingerprint}
		if _, dup := seen[pair]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate entry %s/%s", ErrCorrupt, i.path, r.Key, r.Fingerprint)
		}
		seen[pair] = struct{}{}
	}
	return &doc, nil
}

func (i *Index) save(doc *document) error {
	doc.FormatVersion = FormatVersion
	if doc.Versions == nil {
		doc.Versions = []Record{}
	}

	data, err := i.opts.Codec.Marshal(doc)
	if err != nil {
		return fmt.Errorf("index: encode %s: %w", i.path, err)
	}

	fsys := i.opts.FileSystem
	dir := filepath.Dir(i.path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return &IOError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := fsys.CreateTemp(dir, "."+filepath.Base(i.path)+".tmp-*")
	if err != nil {
		return &IOError{Op: "create", Path: i.path, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = fsys.Remove(tmpPath)
		return &IOError{Op: "write", Path: i.path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = fsys.Remove(tmpPath)
		return &IOError{Op: "sync", Path: i.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = fsys.Remove(tmpPath)
		return &IOError{Op: "close", Path: i.path, Err: err}
	}
	if err := fsys.Rename(tmpPath, i.path); err != nil {
		_ = fsys.Remove(tmpPath)
		return &IOError{Op: "rename", Path: i.path, Err: err}
	}
	if err := fs.SyncDir(fsys, dir); err != nil {
		return &IOError{Op: "sync", Path: dir, Err: err}
	}
	return nil
}
