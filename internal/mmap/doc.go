// Package mmap provides read-only memory-mapped access to stored blobs.
//
//	m, err := mmap.Open("artifacts/fp123.tgz")
//	if err != nil { ... }
//	defer m.Close()
//
//	m.Advise(mmap.AccessSequential)
//	sum := sha1.Sum(m.Bytes())
//
// Unix platforms use mmap(2) and madvise(2); Windows uses
// CreateFileMapping/MapViewOfFile and ignores access hints.
//
// Close is idempotent. Callers must not touch Bytes() after Close returns.
package mmap
