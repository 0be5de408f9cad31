package digest

import (
	"crypto/sha1" //nolint:gosec // content digest compatible with existing indices
	"encoding/hex"
	"hash"
	"io"
)

// Size is the length of a hex-encoded digest.
const Size = sha1.Size * 2

// New returns a new streaming digest hash.
func New() hash.Hash {
	return sha1.New() //nolint:gosec // see package doc
}

// Bytes returns the hex digest of data.
func Bytes(data []byte) string {
	sum := sha1.Sum(data) //nolint:gosec // see package doc
	return hex.EncodeToString(sum[:])
}

// Reader consumes r and returns the hex digest of everything read.
func Reader(r io.Reader) (string, error) {
	h := New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Valid reports whether s is a well-formed lowercase hex digest.
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
