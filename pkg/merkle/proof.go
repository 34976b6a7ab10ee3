package merkle

import (
	"bytes"
	"crypto/sha256"
	"fmt"
)

// Proof unifies membership and non-membership proofs, mirroring
// original_source/crates/jellyfish-merkle/src/lib.rs's proof module
// (verify_membership/verify_non_membership, Proof, ProofError). Which case
// applies is determined by whether Leaf's key hash matches the queried
// key: if it does, Siblings + Leaf prove membership; if Leaf is nil or its
// key hash differs, the same Siblings prove the queried key is absent.
type Proof struct {
	// Siblings are the sibling hashes encountered walking from the root
	// down to the terminal node, root-first.
	Siblings [][32]byte
	// Leaf is the leaf actually found at the end of the walk, or nil if an
	// empty subtree was hit before any leaf.
	Leaf *LeafNode
}

// Prove builds a Proof for key as of version.
func (t *Tree) Prove(version uint64, key []byte) (*Proof, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	root, err := t.loadRootChild(version)
	if err != nil {
		return nil, err
	}

	keyHash := sha256.Sum256(key)
	var siblings [][32]byte
	cur := root
	path := NewBitArray(keyHash).Prefix(0)

	for depth := 0; ; depth++ {
		if cur == nil {
			return &Proof{Siblings: siblings}, nil
		}
		node, err := t.loadAt(cur, path)
		if err != nil {
			return nil, err
		}
		if node.leaf != nil {
			return &Proof{Siblings: siblings, Leaf: node.leaf}, nil
		}
		bit := NewBitArray(keyHash).Bit(depth)
		var sibling *Child
		if bit {
			sibling = node.internal.Left
			cur = node.internal.Right
		} else {
			sibling = node.internal.Right
			cur = node.internal.Left
		}
		siblings = append(siblings, childHash(sibling))
		path = path.Child(bit)
	}
}

// Verify checks whether Proof establishes that key maps to value (value !=
// nil) or that key is absent (value == nil) under root.
func (p *Proof) Verify(root []byte, key, value []byte) (bool, error) {
	keyHash := sha256.Sum256(key)

	var leafExists bool
	var computed [32]byte

	switch {
	case p.Leaf == nil:
		leafExists = false
		computed = emptyHash
	case p.Leaf.KeyHash == keyHash:
		leafExists = true
		computed = p.Leaf.hash()
	default:
		leafExists = false
		computed = p.Leaf.hash()
	}

	if value != nil && !leafExists {
		return false, fmt.Errorf("merkle: proof does not attest membership for the queried key")
	}
	if value == nil && leafExists {
		return false, fmt.Errorf("merkle: proof attests membership, expected non-membership")
	}
	if leafExists {
		wantValueHash := sha256.Sum256(value)
		if p.Leaf.ValueHash != wantValueHash {
			return false, nil
		}
	}

	depth := len(p.Siblings) - 1
	for i := depth; i >= 0; i-- {
		bit := NewBitArray(keyHash).Bit(i)
		sibling := p.Siblings[i]
		if bit {
			computed = hashInternalNode(sibling, computed)
		} else {
			computed = hashInternalNode(computed, sibling)
		}
	}

	return bytes.Equal(computed[:], root), nil
}
