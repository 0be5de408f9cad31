package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
)

// MemoryStore is an in-memory BlobStore implementation for testing.
// Put still reads its source from the local filesystem.
// Thread-safe for concurrent reads and writes.
type MemoryStore struct {
	mu    sync.RWMutex
	ext   string
	blobs map[string][]byte
}

// NewMemoryStore creates a new in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ext:   DefaultExtension,
		blobs: make(map[string][]byte),
	}
}

// Path returns a pseudo path identifying the blob.
func (m *MemoryStore) Path(fingerprint string) string {
	return "memory://" + fileName(fingerprint, m.ext)
}

// Put stores a copy of the bytes at sourcePath.
func (m *MemoryStore) Put(ctx context.Context, fingerprint, sourcePath string) (string, error) {
	if err := ValidateFingerprint(fingerprint); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: source %s", ErrNotFound, sourcePath)
		}
		return "", &IOError{Op: "read", Path: sourcePath, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[fingerprint] = data
	return m.Path(fingerprint), nil
}

// Has reports whether a blob exists.
func (m *MemoryStore) Has(_ context.Context, fingerprint string) (bool, error) {
	if err := ValidateFingerprint(fingerprint); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[fingerprint]
	return ok, nil
}

// Open opens a blob for reading.
func (m *MemoryStore) Open(_ context.Context, fingerprint string) (Blob, error) {
	if err := ValidateFingerprint(fingerprint); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[fingerprint]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, m.Path(fingerprint))
	}

	// Return a copy to prevent external mutation
	copied := make([]byte, len(data))
	copy(copied, data)
	return &memoryBlob{Reader: bytes.NewReader(copied), data: copied}, nil
}

// Delete removes a blob.
func (m *MemoryStore) Delete(_ context.Context, fingerprint string) error {
	if err := ValidateFingerprint(fingerprint); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, fingerprint)
	return nil
}

// List returns all stored fingerprints.
func (m *MemoryStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.blobs))
	for name := range m.blobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Corrupt overwrites the stored bytes without going through Put.
// Tests use it to simulate tampering.
func (m *MemoryStore) Corrupt(fingerprint string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[fingerprint] = append([]byte(nil), data...)
}

type memoryBlob struct {
	*bytes.Reader
	data []byte
}

func (b *memoryBlob) Close() error           { return nil }
func (b *memoryBlob) Bytes() ([]byte, error) { return b.data, nil }
