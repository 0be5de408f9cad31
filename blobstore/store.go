package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// DefaultExtension is the file extension used for stored blobs.
const DefaultExtension = "tgz"

// maxFingerprintLen keeps `<fingerprint>.<ext>` and its temp name within common
// filesystem name limits.
const maxFingerprintLen = 200

var (
	// ErrNotFound is returned when a blob or a source file does not exist.
	ErrNotFound = errors.New("blob not found")

	// ErrInvalidFingerprint is returned for empty or filesystem-unsafe fingerprints.
	ErrInvalidFingerprint = errors.New("invalid fingerprint")

	// ErrInvalidExtension is returned for blob extensions that could escape the storage root.
	ErrInvalidExtension = errors.New("invalid blob extension")

	// ErrIO is returned (wrapped in *IOError) for any underlying write/read failure.
	ErrIO = errors.New("blob i/o failure")
)

// IOError records a failed filesystem operation on a blob.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("blobstore: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both ErrIO and the underlying cause to errors.Is/As.
func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }

// BlobStore stores and retrieves opaque payloads addressed by fingerprint.
type BlobStore interface {
	// Put copies the bytes at sourcePath into the store and returns the stored path.
	Put(ctx context.Context, fingerprint, sourcePath string) (string, error)
	// Has reports whether a blob exists for fingerprint. Content is not validated.
	Has(ctx context.Context, fingerprint string) (bool, error)
	// Path returns where the blob for fingerprint lives. It does not touch storage.
	Path(fingerprint string) string
	// Open opens the blob for reading.
	Open(ctx context.Context, fingerprint string) (Blob, error)
	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, fingerprint string) error
	// List returns the fingerprints of all stored blobs, sorted.
	List(ctx context.Context) ([]string, error)
}

// Blob is a read-only handle to a stored payload.
type Blob interface {
	io.ReaderAt
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
}

// Mappable is an optional interface for Blobs that expose their bytes directly.
type Mappable interface {
	// Bytes returns the underlying byte slice, valid until the Blob is closed.
	Bytes() ([]byte, error)
}

// NewReader returns a sequential reader over the whole blob.
func NewReader(b Blob) io.Reader {
	return io.NewSectionReader(b, 0, b.Size())
}

// ValidateFingerprint rejects fingerprints that are empty, too long, not valid
// UTF-8, or could escape the storage root or collide with temporary files.
func ValidateFingerprint(fingerprint string) error {
	switch {
	case fingerprint == "":
		return fmt.Errorf("%w: empty", ErrInvalidFingerprint)
	case len(fingerprint) > maxFingerprintLen:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidFingerprint, maxFingerprintLen)
	case !utf8.ValidString(fingerprint):
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidFingerprint, fingerprint)
	case strings.HasPrefix(fingerprint, "."):
		return fmt.Errorf("%w: %q starts with a dot", ErrInvalidFingerprint, fingerprint)
	case hasUnsafeRune(fingerprint):
		return fmt.Errorf("%w: %q contains a separator or control character", ErrInvalidFingerprint, fingerprint)
	}
	return nil
}

// ValidateExtension rejects extensions that are not valid UTF-8, contain a
// path separator or control character, or are a dot-dot segment. An empty
// extension is allowed and yields bare fingerprint file names.
func ValidateExtension(ext string) error {
	switch {
	case !utf8.ValidString(ext):
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidExtension, ext)
	case hasUnsafeRune(ext):
		return fmt.Errorf("%w: %q contains a separator or control character", ErrInvalidExtension, ext)
	case strings.HasPrefix(ext, "."), strings.Contains(ext, ".."):
		return fmt.Errorf("%w: %q contains a dot-dot sequence", ErrInvalidExtension, ext)
	}
	return nil
}

func hasUnsafeRune(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return r == '/' || r == '\\' || r < 0x20 || r == 0x7f
	})
}

func fileName(fingerprint, ext string) string {
	if ext == "" {
		return fingerprint
	}
	return fingerprint + "." + ext
}
