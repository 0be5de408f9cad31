package index

import (
	"fmt"
	"maps"
	"slices"
	"unicode/utf8"

	"github.com/hupe1980/vstore/internal/digest"
)

// State tells whether a record's blob has been stored and hashed.
type State uint8

const (
	// StatePending marks a record that has a fingerprint but no digest yet.
	StatePending State = iota
	// StateVerified marks a record whose digest was computed from the stored blob.
	StateVerified
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateVerified:
		return "verified"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Record is one indexed artifact version.
type Record struct {
	// Key is the logical entity the version belongs to (e.g. a package name).
	Key string `json:"key" yaml:"key"`

	// Fingerprint identifies the version's defining inputs and addresses its blob.
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`

	// Version is the human-facing version string.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// BuildNumber is the build counter that produced this version.
	BuildNumber int `json:"build_number,omitempty" yaml:"build_number,omitempty"`

	// Dependencies lists the fingerprints this version was built against.
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`

	// Metadata holds caller-defined fields.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// SHA1 is the digest of the stored blob. It is derived data: only the store
	// sets it, from the bytes on disk.
	SHA1 string `json:"sha1,omitempty" yaml:"sha1,omitempty"`
}

// NewRecord returns a pending record for key and fingerprint.
func NewRecord(key, fingerprint string) Record {
	return Record{Key: key, Fingerprint: fingerprint}
}

// State returns StateVerified once a digest is attached.
func (r Record) State() State {
	if r.SHA1 == "" {
		return StatePending
	}
	return StateVerified
}

// Verified returns a copy of r carrying sha1.
func (r Record) Verified(sha1 string) Record {
	c := r.Clone()
	c.SHA1 = sha1
	return c
}

// Pending returns a copy of r without a digest.
func (r Record) Pending() Record {
	c := r.Clone()
	c.SHA1 = ""
	return c
}

// Clone returns a deep copy of r. Empty Dependencies and Metadata become nil,
// matching what a reload from disk yields.
func (r Record) Clone() Record {
	c := r
	c.Dependencies = nil
	if len(r.Dependencies) > 0 {
		c.Dependencies = slices.Clone(r.Dependencies)
	}
	c.Metadata = nil
	if len(r.Metadata) > 0 {
		c.Metadata = maps.Clone(r.Metadata)
	}
	return c
}

// Validate checks the fields the index relies on.
func (r Record) Validate() error {
	if r.Key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidRecord)
	}
	if !utf8.ValidString(r.Key) {
		return fmt.Errorf("%w: key %q is not valid UTF-8", ErrInvalidRecord, r.Key)
	}
	if r.Fingerprint == "" {
		return fmt.Errorf("%w: empty fingerprint", ErrInvalidRecord)
	}
	if !utf8.ValidString(r.Fingerprint) {
		return fmt.Errorf("%w: fingerprint %q is not valid UTF-8", ErrInvalidRecord, r.Fingerprint)
	}
	if r.SHA1 != "" && !digest.Valid(r.SHA1) {
		return fmt.Errorf("%w: malformed sha1 %q", ErrInvalidRecord, r.SHA1)
	}
	return nil
}

func (r Record) matches(key, fingerprint string) bool {
	return r.Key == key && r.Fingerprint == fingerprint
}
