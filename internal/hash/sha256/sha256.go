// Package sha256 digests URLs into fixed-length storage keys.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher turns arbitrary-length URLs into hex SHA-256 digests.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash returns the hex digest of s.
func (*Hasher) Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
