package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"fmt"
	"math/big"
)

// VerifySecp256r1 checks a raw (r||s, 64-byte) P-256 signature against a
// SHA-256-hashed message and an uncompressed (65-byte, 0x04-prefixed)
// public key. No example repo in the pack wires a third-party P-256
// library (btcec and decred's secp256k1 are k1-only); stdlib crypto/ecdsa
// plus crypto/elliptic is the correct and only choice here.
func VerifySecp256r1(pubKey, msg, sig []byte) (bool, error) {
	if len(sig) != 64 {
		return false, fmt.Errorf("secp256r1: signature must be 64 bytes, got %d", len(sig))
	}
	x, y := elliptic.Unmarshal(elliptic.P256(), pubKey)
	if x == nil {
		return false, fmt.Errorf("secp256r1: invalid public key encoding")
	}
	pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	hash := sha256.Sum256(msg)
	return ecdsa.Verify(pub, hash[:], r, s), nil
}
