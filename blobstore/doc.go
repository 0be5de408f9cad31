// Package blobstore stores artifact payloads addressed by fingerprint.
//
// Each payload is a single file named `<fingerprint>.<ext>` under one storage
// root (the extension is fixed per store, `tgz` by default). The store knows
// nothing about versions or digests; it owns the fingerprint -> file mapping and
// the file lifecycle.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, atomic tmp+rename writes, mmap reads
//   - MemoryStore: in-memory, for tests
//
// # Write Semantics
//
// Put copies the source into a temporary file next to the target, syncs it and
// renames it over `<fingerprint>.<ext>`. An existing blob is replaced as a whole
// (last writer wins) and is never left partially overwritten. The storage root is
// created lazily on the first write.
//
// # Errors
//
// Errors satisfy errors.Is against ErrNotFound, ErrInvalidFingerprint or ErrIO.
// I/O errors are *IOError values that also unwrap to the underlying os error.
package blobstore
