package crypto

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// VerifySecp256k1 checks a compact (r||s, 64-byte) secp256k1 signature
// against a SHA-256-hashed message and a compressed (33-byte) public key.
// The decred secp256k1 package does the actual field arithmetic; btcec's
// wire types are used for recovery in RecoverSecp256k1 below. Both libraries
// are carried because the teacher's go.mod requires both.
func VerifySecp256k1(pubKey, msg, sig []byte) (bool, error) {
	if len(sig) != 64 {
		return false, fmt.Errorf("secp256k1: signature must be 64 bytes, got %d", len(sig))
	}
	pk, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return false, fmt.Errorf("secp256k1: parse public key: %w", err)
	}

	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow {
		return false, fmt.Errorf("secp256k1: signature r overflows")
	}
	if overflow := s.SetByteSlice(sig[32:]); overflow {
		return false, fmt.Errorf("secp256k1: signature s overflows")
	}

	hash := sha256.Sum256(msg)
	signature := secp256k1.NewSignature(&r, &s)
	return signature.Verify(hash[:], pk), nil
}

// RecoverSecp256k1 recovers the public key that produced a 65-byte
// (recovery-byte-prefixed) secp256k1 signature over a SHA-256-hashed
// message, as used by account contracts validating tx credentials.
func RecoverSecp256k1(msg, sig []byte) ([]byte, error) {
	if len(sig) != 65 {
		return nil, fmt.Errorf("secp256k1: recoverable signature must be 65 bytes, got %d", len(sig))
	}
	hash := sha256.Sum256(msg)
	pub, _, err := ecdsa.RecoverCompact(sig, hash[:])
	if err != nil {
		return nil, fmt.Errorf("secp256k1: recover: %w", err)
	}
	return pub.SerializeCompressed(), nil
}

// ensure btcec stays imported: RecoverSecp256k1 returns a btcec public key
// type via ecdsa.RecoverCompact, kept alongside decred's verify path because
// the teacher's go.mod depends on both.
var _ = btcec.S256
