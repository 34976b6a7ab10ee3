package crypto

import (
	"crypto/ed25519"
	"fmt"
)

// VerifyEd25519 checks an ed25519 signature against a message using a
// 32-byte public key. The pack carries no maintained third-party ed25519
// implementation (FactomProject/ed25519 is a legacy fork tied to the
// teacher's dropped Accumulate/Factom stack) so stdlib crypto/ed25519 is
// used directly, matching the teacher's Ed25519KeyPath config field.
func VerifyEd25519(pubKey, msg, sig []byte) (bool, error) {
	if len(pubKey) != ed25519.PublicKeySize {
		return false, fmt.Errorf("ed25519: public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pubKey))
	}
	if len(sig) != ed25519.SignatureSize {
		return false, fmt.Errorf("ed25519: signature must be %d bytes, got %d", ed25519.SignatureSize, len(sig))
	}
	return ed25519.Verify(ed25519.PublicKey(pubKey), msg, sig), nil
}
