package testutil

import (
	"math/rand"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Intn returns a pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Payload returns n pseudo-random bytes.
func (r *RNG) Payload(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf := make([]byte, n)
	_, _ = r.rand.Read(buf)
	return buf
}

const fingerprintAlphabet = "0123456789abcdef"

// Fingerprint returns a random 40 character hex string.
func (r *RNG) Fingerprint() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := make([]byte, 40)
	for i := range b {
		b[i] = fingerprintAlphabet[r.rand.Intn(len(fingerprintAlphabet))]
	}
	return string(b)
}
