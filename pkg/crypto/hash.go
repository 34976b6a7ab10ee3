// Package crypto wraps the hash functions and signature schemes chainkit
// needs into a single API surface, following the dual trait-method /
// free-function style of original_source/crates/types/src/hasher.rs and
// hashers.rs: every hash is available as a free function, and SHA-256 also
// through the Hasher interface. pkg/merkle does not take a Hasher; it hashes
// with crypto/sha256 directly.
package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // teacher pack dependency, kept deliberately
	"lukechampine.com/blake3"
)

// Hasher abstracts a 32-byte hash function. No package in this module
// consumes one; pkg/merkle's tree logic is fixed to SHA-256.
type Hasher interface {
	Hash(data []byte) [32]byte
}

// Sha256Hasher is the SHA-256 implementation of Hasher.
type Sha256Hasher struct{}

func (Sha256Hasher) Hash(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// Sha256 returns the SHA-256 digest of data.
func Sha256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// Ripemd160 returns the RIPEMD-160 digest of data, used for the short
// account-address form derived from a public key.
func Ripemd160(data []byte) [20]byte {
	h := ripemd160.New()
	h.Write(data) //nolint:errcheck // ripemd160.digest.Write never errors
	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Hash160 is SHA-256 followed by RIPEMD-160, the standard
// "public key -> short address" transform, mirroring
// original_source/crates/types/src/hasher.rs's hash160.
func Hash160(data []byte) [20]byte {
	sum := Sha256(data)
	return Ripemd160(sum[:])
}

// Blake3 returns the 32-byte BLAKE3 digest of data, exposed to contracts
// through pkg/vm's Host.Blake3 import. Stored contract code is addressed by
// SHA-256, not BLAKE3.
func Blake3(data []byte) [32]byte {
	return blake3.Sum256(data)
}
