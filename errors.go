package vstore

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vstore/blobstore"
	"github.com/hupe1980/vstore/index"
)

var (
	// ErrNotFound is returned when a referenced key, fingerprint, blob or source
	// file does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateVersion is returned when publishing a (key, fingerprint) pair
	// that is already indexed.
	ErrDuplicateVersion = errors.New("duplicate version")

	// ErrInvalidFingerprint is returned for empty or filesystem-unsafe fingerprints.
	ErrInvalidFingerprint = errors.New("invalid fingerprint")

	// ErrInvalidKey is returned for an empty key.
	ErrInvalidKey = errors.New("invalid key")

	// ErrCorruptIndex is returned when the index file cannot be parsed or has an
	// unsupported format version.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrIOFailure is returned for underlying filesystem errors.
	ErrIOFailure = errors.New("i/o failure")

	// ErrPending is returned when an operation needs a verified record but the
	// record has no digest yet.
	ErrPending = errors.New("version pending")

	// ErrDigestMismatch is returned (wrapped in *DigestMismatchError) when the
	// stored blob no longer matches the recorded digest.
	ErrDigestMismatch = errors.New("digest mismatch")
)

// DigestMismatchError reports a blob whose bytes hash to something other than
// the digest recorded in the index.
type DigestMismatchError struct {
	Key         string
	Fingerprint string
	Expected    string
	Actual      string
}

func (e *DigestMismatchError) Error() string {
	return fmt.Sprintf("digest mismatch for %s/%s: expected %s, got %s",
		e.Key, e.Fingerprint, e.Expected, e.Actual)
}

func (e *DigestMismatchError) Unwrap() error { return ErrDigestMismatch }

// translateError maps component errors onto the store's taxonomy. The original
// error stays in the chain.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, index.ErrNotFound), errors.Is(err, blobstore.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, index.ErrDuplicateVersion):
		return fmt.Errorf("%w: %w", ErrDuplicateVersion, err)
	case errors.Is(err, blobstore.ErrInvalidFingerprint):
		return fmt.Errorf("%w: %w", ErrInvalidFingerprint, err)
	case errors.Is(err, index.ErrCorrupt), errors.Is(err, index.ErrIncompatibleVersion):
		return fmt.Errorf("%w: %w", ErrCorruptIndex, err)
	case errors.Is(err, index.ErrIO), errors.Is(err, blobstore.ErrIO):
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return err
}
