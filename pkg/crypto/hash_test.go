package crypto

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"testing"
)

func TestSha256(t *testing.T) {
	want := sha256.Sum256([]byte("chainkit"))
	got := Sha256([]byte("chainkit"))
	if got != want {
		t.Fatalf("Sha256 mismatch: got %x want %x", got, want)
	}
}

func TestHash160Length(t *testing.T) {
	out := Hash160([]byte("pubkey-bytes"))
	if len(out) != 20 {
		t.Fatalf("Hash160 length = %d, want 20", len(out))
	}
}

func TestBlake3Deterministic(t *testing.T) {
	a := Blake3([]byte("wasm code bytes"))
	b := Blake3([]byte("wasm code bytes"))
	if a != b {
		t.Fatalf("Blake3 not deterministic")
	}
}

func TestVerifyEd25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	msg := []byte("hello chain")
	sig := ed25519.Sign(priv, msg)

	ok, err := VerifyEd25519(pub, msg, sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected valid signature to verify")
	}

	tampered := bytes.Clone(sig)
	tampered[0] ^= 0xff
	ok, err = VerifyEd25519(pub, msg, tampered)
	if err != nil {
		t.Fatalf("verify tampered: %v", err)
	}
	if ok {
		t.Fatalf("expected tampered signature to fail verification")
	}
}
