package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// ReformHash identifies a set of reform modifications
type ReformHash Hash

// NewReformHash creates a reform hash from data
func NewReformHash(data []byte) ReformHash { return ReformHash(NewHash(data)) }

func (h ReformHash) String() string { return Hash(h).String() }

// Seed31 folds a hash into a non-negative 31-bit integer suitable for
// seeding a pseudo-random generator.
func (h Hash) Seed31() int64 {
	raw, err := hex.DecodeString(string(h))
	if err != nil || len(raw) < 8 {
		raw = []byte(h)
		for len(raw) < 8 {
			raw = append(raw, 0)
		}
	}
	v := binary.BigEndian.Uint64(raw[:8])
	return int64(v & 0x7fffffff)
}

