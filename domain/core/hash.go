package core

import (
	"crypto/sha256"
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

// Domain-specific hash types
type (
	MatrixHash  Hash
	NetworkHash Hash
	ResultHash  Hash
)

// Constructors
func NewMatrixHash(data []byte) MatrixHash   { return MatrixHash(NewHash(data)) }
func NewNetworkHash(data []byte) NetworkHash { return NetworkHash(NewHash(data)) }
func NewResultHash(data []byte) ResultHash   { return ResultHash(NewHash(data)) }

// String conversions
func (h MatrixHash) String() string  { return Hash(h).String() }
func (h NetworkHash) String() string { return Hash(h).String() }
func (h ResultHash) String() string  { return Hash(h).String() }
