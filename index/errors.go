package index

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no record exists for a (key, fingerprint) pair.
	ErrNotFound = errors.New("version not found")

	// ErrDuplicateVersion is returned when adding a pair that is already indexed.
	ErrDuplicateVersion = errors.New("version already exists")

	// ErrInvalidRecord is returned for records missing their key or fingerprint,
	// or carrying a malformed digest.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrCorrupt is returned when the index file cannot be parsed.
	ErrCorrupt = errors.New("corrupt index")

	// ErrIncompatibleVersion is returned when the index format version is not supported.
	ErrIncompatibleVersion = errors.New("incompatible index format version")

	// ErrIO is returned (wrapped in *IOError) for read/write failures.
	ErrIO = errors.New("index i/o failure")
)

// IOError records a failed filesystem operation on the index file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("index: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both ErrIO and the underlying cause to errors.Is/As.
func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }
