// Package digest computes the content digest recorded for stored artifacts.
//
// Artifacts are identified by a caller-computed fingerprint, but their integrity
// is tracked by a SHA-1 digest over the bytes actually stored on disk. SHA-1 is
// what release indices have always recorded under the `sha1` field, so digests
// stay comparable with existing indices.
//
// For one-shot digests:
//
//	sum := digest.Bytes(data)
//
// For streaming digests:
//
//	sum, err := digest.Reader(f)
package digest
