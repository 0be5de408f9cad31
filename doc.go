// Package vstore provides a versioned, content-addressed artifact store.
//
// A Store composes two durable components: a version index (a single YAML or
// JSON file mapping (key, fingerprint) pairs to records) and a blob store (a
// flat directory holding one `<fingerprint>.tgz` file per stored payload).
//
// # Quick Start
//
//	s, _ := vstore.Open("./releases/packages/index.yml", "./releases/artifacts")
//	rec, _ := s.Publish(ctx, "redis", fingerprint, "/tmp/redis.tgz", vstore.Metadata{Version: "1.0"})
//	ok, _ := s.Exists(ctx, "redis", fingerprint)
//
// # Publish Protocol
//
// Publish indexes the version first as pending, copies the payload into the
// blob store, hashes the stored bytes and finally attaches the digest to the
// record. A failure part way through leaves a pending ("dangling") record.
// Pending records never report as existing, and publishing the same pair
// again fails with ErrDuplicateVersion until Remove clears the record.
//
// # Integrity
//
// The SHA-1 digest on a verified record is always computed from the bytes on
// disk. Verify and VerifyAll recompute it to detect tampering; Fetch and
// Extract verify before handing out any data.
//
// # Concurrency
//
// A Store serializes index access within one process. There is no cross-process
// locking: run one writer per index file.
package vstore
