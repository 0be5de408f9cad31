package vstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vstore/archive"
	"github.com/hupe1980/vstore/blobstore"
	"github.com/hupe1980/vstore/index"
	"github.com/hupe1980/vstore/internal/digest"
	"github.com/hupe1980/vstore/internal/pool"
	"github.com/hupe1980/vstore/resource"
)

// Record is an indexed artifact version.
type Record = index.Record

// State tells whether a Record is pending or verified.
type State = index.State

const (
	// StatePending marks a record whose blob has not been stored and hashed.
	StatePending = index.StatePending
	// StateVerified marks a record carrying the digest of its stored blob.
	StateVerified = index.StateVerified
)

// Metadata carries the caller-supplied fields of a new version.
type Metadata struct {
	Version      string
	BuildNumber  int
	Dependencies []string
	// Extra holds caller-defined fields beyond the well-known ones.
	Extra map[string]string
}

func (m Metadata) record(key, fingerprint string) Record {
	rec := index.NewRecord(key, fingerprint)
	rec.Version = m.Version
	rec.BuildNumber = m.BuildNumber
	rec.Dependencies = m.Dependencies
	rec.Metadata = m.Extra
	return rec.Clone()
}

// VerifyResult is the outcome of verifying one record.
type VerifyResult struct {
	Record Record
	// Err is nil when the blob matches the recorded digest.
	Err error
}

// Store publishes artifact versions into a version index backed by a blob store.
type Store struct {
	idx   *index.Index
	blobs blobstore.BlobStore
	rc    *resource.Controller
	opts  options

	// scratchDir holds temporary archives built by PublishDir.
	scratchDir string
}

// Open creates a Store over the index file at indexPath and the blob directory
// artifactsDir. Neither needs to exist yet; both are created on first publish.
func Open(indexPath, artifactsDir string, optFns ...Option) (*Store, error) {
	opts := applyOptions(optFns)

	if indexPath == "" {
		return nil, errors.New("vstore: index path must not be empty")
	}
	if artifactsDir == "" && opts.blobStore == nil {
		return nil, errors.New("vstore: artifacts directory must not be empty")
	}

	rc := resource.NewController(resource.Config{
		IOLimitBytesPerSec: opts.ioLimit,
		MaxWorkers:         int64(opts.verifyConcurrency),
	})

	blobs := opts.blobStore
	if blobs == nil {
		local, err := blobstore.NewLocalStore(artifactsDir, func(o *blobstore.Options) {
			o.Extension = opts.extension
			o.FileSystem = opts.fileSystem
			o.Resources = rc
		})
		if err != nil {
			return nil, fmt.Errorf("vstore: %w", err)
		}
		blobs = local
	}

	idx := index.New(indexPath, func(o *index.Options) {
		o.FileSystem = opts.fileSystem
		if opts.indexCodec != nil {
			o.Codec = opts.indexCodec
		}
	})

	scratchDir := artifactsDir
	if scratchDir == "" {
		scratchDir = filepath.Dir(indexPath)
	}

	return &Store{
		idx:        idx,
		blobs:      blobs,
		rc:         rc,
		opts:       opts,
		scratchDir: scratchDir,
	}, nil
}

// Index returns the underlying version index.
func (s *Store) Index() *index.Index { return s.idx }

// Blobs returns the underlying blob store.
func (s *Store) Blobs() blobstore.BlobStore { return s.blobs }

// HasIndexFile reports whether the index file exists.
func (s *Store) HasIndexFile() bool { return s.idx.HasIndexFile() }

// Publish stores a new version. The record is indexed first as pending, then
// the payload at sourcePath is copied into the blob store, hashed, and the
// record is updated with the digest.
//
// A failure after the record is indexed leaves it pending. Publishing the same
// pair again fails with ErrDuplicateVersion until the record is removed.
func (s *Store) Publish(ctx context.Context, key, fingerprint, sourcePath string, meta Metadata) (Record, error) {
	start := time.Now()
	logger := s.opts.logger.WithPublishID(uuid.NewString())
	rec, size, err := s.publish(ctx, logger, key, fingerprint, sourcePath, meta)
	err = translateError(err)
	s.opts.metricsCollector.RecordPublish(size, time.Since(start), err)
	logger.LogPublish(ctx, key, fingerprint, rec.SHA1, size, err)
	return rec, err
}

func (s *Store) publish(ctx context.Context, logger *Logger, key, fingerprint, sourcePath string, meta Metadata) (Record, int64, error) {
	if err := validate(key, fingerprint); err != nil {
		return Record{}, 0, err
	}
	log := logger.WithVersion(key, fingerprint)

	candidate := meta.record(key, fingerprint)
	if err := s.idx.Add(ctx, candidate); err != nil {
		return Record{}, 0, err
	}
	log.DebugContext(ctx, "version indexed", "state", candidate.State())

	stored, err := s.blobs.Put(ctx, fingerprint, sourcePath)
	if err != nil {
		logger.LogDangling(ctx, key, fingerprint, "store", err)
		return Record{}, 0, err
	}
	log.DebugContext(ctx, "blob stored", "path", stored)

	sum, size, err := s.digest(ctx, fingerprint)
	if err != nil {
		logger.LogDangling(ctx, key, fingerprint, "digest", err)
		return Record{}, 0, err
	}

	verified := candidate.Verified(sum)
	if err := s.idx.Update(ctx, verified); err != nil {
		logger.LogDangling(ctx, key, fingerprint, "update", err)
		return Record{}, 0, err
	}
	return verified, size, nil
}

// PublishDir packs dir into an archive and publishes it.
func (s *Store) PublishDir(ctx context.Context, key, fingerprint, dir string, meta Metadata) (Record, error) {
	if err := validate(key, fingerprint); err != nil {
		return Record{}, translateError(err)
	}

	fsys := s.opts.fileSystem
	if err := fsys.MkdirAll(s.scratchDir, 0o755); err != nil {
		return Record{}, fmt.Errorf("%w: mkdir %s: %w", ErrIOFailure, s.scratchDir, err)
	}
	tmp, err := fsys.CreateTemp(s.scratchDir, ".vstore-pack-*")
	if err != nil {
		return Record{}, fmt.Errorf("%w: create archive in %s: %w", ErrIOFailure, s.scratchDir, err)
	}
	defer func() { _ = fsys.Remove(tmp.Name()) }()

	if err := archive.Pack(ctx, dir, tmp, func(o *archive.Options) {
		o.Compression = s.opts.compression
	}); err != nil {
		_ = tmp.Close()
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return Record{}, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return Record{}, fmt.Errorf("%w: sync archive: %w", ErrIOFailure, err)
	}
	if err := tmp.Close(); err != nil {
		return Record{}, fmt.Errorf("%w: close archive: %w", ErrIOFailure, err)
	}

	return s.Publish(ctx, key, fingerprint, tmp.Name(), meta)
}

// Exists reports whether a verified version with a stored blob exists for
// (key, fingerprint). Pending records report false.
func (s *Store) Exists(ctx context.Context, key, fingerprint string) (bool, error) {
	start := time.Now()
	ok, err := s.exists(ctx, key, fingerprint)
	err = translateError(err)
	s.opts.metricsCollector.RecordExists(ok, time.Since(start), err)
	return ok, err
}

func (s *Store) exists(ctx context.Context, key, fingerprint string) (bool, error) {
	rec, found, err := s.idx.Find(ctx, key, fingerprint)
	if err != nil || !found {
		return false, err
	}
	if rec.State() != StateVerified {
		return false, nil
	}
	return s.blobs.Has(ctx, fingerprint)
}

// Find returns the record for (key, fingerprint) in whatever state it is in.
func (s *Store) Find(ctx context.Context, key, fingerprint string) (Record, bool, error) {
	rec, found, err := s.idx.Find(ctx, key, fingerprint)
	return rec, found, translateError(err)
}

// Versions returns all records of key in publish order.
func (s *Store) Versions(ctx context.Context, key string) ([]Record, error) {
	recs, err := s.idx.Versions(ctx, key)
	return recs, translateError(err)
}

// Keys returns every indexed key.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.idx.Keys(ctx)
	return keys, translateError(err)
}

// Latest returns the verified record of key with the highest version.
// Semantic versions rank above anything unparseable, which is compared
// lexically. Among equal versions the later publish wins.
func (s *Store) Latest(ctx context.Context, key string) (Record, error) {
	recs, err := s.idx.Versions(ctx, key)
	if err != nil {
		return Record{}, translateError(err)
	}

	var (
		best  Record
		found bool
	)
	for _, r := range recs {
		if r.State() != StateVerified {
			continue
		}
		if !found || !newer(best, r) {
			best, found = r, true
		}
	}
	if !found {
		return Record{}, fmt.Errorf("%w: no verified version of %s", ErrNotFound, key)
	}
	return best, nil
}

// newer reports whether a ranks strictly above b.
func newer(a, b Record) bool {
	va, errA := semver.NewVersion(a.Version)
	vb, errB := semver.NewVersion(b.Version)
	switch {
	case errA == nil && errB == nil:
		return va.GreaterThan(vb)
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a.Version > b.Version
	}
}

// Remove deletes the record for (key, fingerprint), pending or not. The blob is
// deleted too unless another key still references the same fingerprint.
func (s *Store) Remove(ctx context.Context, key, fingerprint string) error {
	start := time.Now()
	deleted, err := s.remove(ctx, key, fingerprint)
	err = translateError(err)
	s.opts.metricsCollector.RecordRemove(time.Since(start), err)
	s.opts.logger.LogRemove(ctx, key, fingerprint, deleted, err)
	return err
}

func (s *Store) remove(ctx context.Context, key, fingerprint string) (bool, error) {
	if err := s.idx.Remove(ctx, key, fingerprint); err != nil {
		return false, err
	}

	rest, err := s.idx.All(ctx)
	if err != nil {
		return false, err
	}
	for _, r := range rest {
		if r.Fingerprint == fingerprint {
			return false, nil
		}
	}

	if err := s.blobs.Delete(ctx, fingerprint); err != nil {
		return false, err
	}
	return true, nil
}

// Verify recomputes the digest of the stored blob and compares it with the
// recorded one.
func (s *Store) Verify(ctx context.Context, key, fingerprint string) error {
	start := time.Now()
	_, err := s.verify(ctx, key, fingerprint)
	err = translateError(err)
	s.opts.metricsCollector.RecordVerify(time.Since(start), err)
	s.opts.logger.LogVerify(ctx, key, fingerprint, err)
	return err
}

func (s *Store) verify(ctx context.Context, key, fingerprint string) (Record, error) {
	rec, found, err := s.idx.Find(ctx, key, fingerprint)
	if err != nil {
		return Record{}, err
	}
	if !found {
		return Record{}, fmt.Errorf("%w: %s/%s", index.ErrNotFound, key, fingerprint)
	}
	return rec, s.verifyRecord(ctx, rec)
}

func (s *Store) verifyRecord(ctx context.Context, rec Record) error {
	if rec.State() != StateVerified {
		return fmt.Errorf("%w: %s/%s", ErrPending, rec.Key, rec.Fingerprint)
	}
	sum, _, err := s.digest(ctx, rec.Fingerprint)
	if err != nil {
		return err
	}
	if sum != rec.SHA1 {
		return &DigestMismatchError{
			Key:         rec.Key,
			Fingerprint: rec.Fingerprint,
			Expected:    rec.SHA1,
			Actual:      sum,
		}
	}
	return nil
}

// VerifyAll verifies every indexed record concurrently. Per-record failures are
// reported in the results; the returned error is set only when the index
// cannot be read or ctx is canceled.
func (s *Store) VerifyAll(ctx context.Context) ([]VerifyResult, error) {
	recs, err := s.idx.All(ctx)
	if err != nil {
		return nil, translateError(err)
	}

	results := make([]VerifyResult, len(recs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.rc.MaxWorkers())

	for i, rec := range recs {
		g.Go(func() error {
			if err := s.rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer s.rc.ReleaseWorker()

			start := time.Now()
			err := translateError(s.verifyRecord(gctx, rec))
			s.opts.metricsCollector.RecordVerify(time.Since(start), err)
			results[i] = VerifyResult{Record: rec, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.opts.logger.LogVerifyAll(ctx, len(results), failed)
	return results, nil
}

// Extract verifies the version and unpacks its archive into dest.
func (s *Store) Extract(ctx context.Context, key, fingerprint, dest string) error {
	if _, err := s.verify(ctx, key, fingerprint); err != nil {
		return translateError(err)
	}

	b, err := s.blobs.Open(ctx, fingerprint)
	if err != nil {
		return translateError(err)
	}
	defer b.Close()

	return archive.Unpack(ctx, blobstore.NewReader(b), dest)
}

// Fetch verifies the version and copies its blob to w.
func (s *Store) Fetch(ctx context.Context, key, fingerprint string, w io.Writer) (int64, error) {
	if _, err := s.verify(ctx, key, fingerprint); err != nil {
		return 0, translateError(err)
	}

	b, err := s.blobs.Open(ctx, fingerprint)
	if err != nil {
		return 0, translateError(err)
	}
	defer b.Close()

	return pool.Copy(w, blobstore.NewReader(b))
}

// digest hashes the stored blob for fingerprint and returns the digest and size.
func (s *Store) digest(ctx context.Context, fingerprint string) (string, int64, error) {
	b, err := s.blobs.Open(ctx, fingerprint)
	if err != nil {
		return "", 0, err
	}
	defer b.Close()

	if m, ok := b.(blobstore.Mappable); ok {
		if data, err := m.Bytes(); err == nil {
			return digest.Bytes(data), b.Size(), nil
		}
	}

	r := resource.NewRateLimitedReader(ctx, blobstore.NewReader(b), s.rc)
	sum, err := digest.Reader(r)
	if err != nil {
		return "", 0, fmt.Errorf("%w: digest %s: %w", ErrIOFailure, s.blobs.Path(fingerprint), err)
	}
	return sum, b.Size(), nil
}

func validate(key, fingerprint string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if !utf8.ValidString(key) {
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidKey, key)
	}
	return blobstore.ValidateFingerprint(fingerprint)
}
