// Package index implements the version index: a durable ledger mapping a
// (key, fingerprint) pair to the build metadata of one artifact version.
//
// # File Format
//
// The index is a single structured document. The codec follows the file
// extension (YAML by default, JSON for `.json`):
//
//	format_version: 2
//	versions:
//	  - key: redis
//	    fingerprint: 0a1b2c
//	    version: "1.2"
//	    build_number: 7
//	    dependencies: [9f8e7d]
//	    metadata:
//	      blobstore_id: 3f1a...
//	    sha1: 5b6f...
//
// The `versions` list keeps insertion order. Exactly one entry exists per
// (key, fingerprint) pair. A missing file and an empty file both load as an empty
// index; HasIndexFile tells them apart.
//
// # Record States
//
// A record without a digest is Pending: its blob has not been stored and hashed
// yet (or a publish crashed half way). A record with a digest is Verified.
//
// # Consistency
//
// Every mutation loads the whole file, changes it in memory and rewrites it via
// a synced temp file that is renamed over the index. Readers therefore always see
// either the old or the new document. A mutex serializes calls on one Index; there
// is no cross-process locking, and two processes writing the same file lose
// updates (last writer wins).
package index
