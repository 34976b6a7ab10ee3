package merkle

import "crypto/sha256"

// Domain-separation prefixes so a leaf hash and an internal-node hash can
// never collide, matching the distinction
// original_source/crates/jellyfish-merkle/src/lib.rs draws between
// hash_leaf_node and hash_internal_node.
const (
	leafDomain     = 0x00
	internalDomain = 0x01
)

// emptyHash is the fixed placeholder standing in for an empty subtree at
// any depth. Using one sentinel regardless of depth (rather than a
// per-depth default-hash ladder) is a standard compressed-sparse-Merkle-
// tree simplification: uniqueness still comes from the materialized path
// of actual siblings on the way to the root.
var emptyHash = [32]byte{}

// Child is an internal node's reference to one of its two subtrees: the
// version at which that subtree was last written (nodes are immutable, so
// fetching it again always means looking it up at exactly this version)
// plus its cached hash so proof construction never needs to touch disk for
// sibling hashes.
type Child struct {
	Version uint64
	Hash    [32]byte
	IsLeaf  bool
}

// LeafNode stores one key/value pair. KeyHash is SHA-256(key); ValueHash is
// SHA-256(value) -- the tree never stores raw values, only their
// commitments, since actual values live in pkg/db's versioned KV layer.
type LeafNode struct {
	KeyHash   [32]byte
	ValueHash [32]byte
}

func hashLeafNode(keyHash, valueHash [32]byte) [32]byte {
	h := sha256.New()
	h.Write([]byte{leafDomain})
	h.Write(keyHash[:])
	h.Write(valueHash[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (l LeafNode) hash() [32]byte {
	return hashLeafNode(l.KeyHash, l.ValueHash)
}

// InternalNode is a branching point with exactly two subtrees, one per bit
// value. A nil Left or Right means that side's subtree is empty.
type InternalNode struct {
	Left  *Child
	Right *Child
}

func hashInternalNode(left, right [32]byte) [32]byte {
	h := sha256.New()
	h.Write([]byte{internalDomain})
	h.Write(left[:])
	h.Write(right[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (n InternalNode) hash() [32]byte {
	return hashInternalNode(childHash(n.Left), childHash(n.Right))
}

func childHash(c *Child) [32]byte {
	if c == nil {
		return emptyHash
	}
	return c.Hash
}

// resolvedNode is whichever of {nil, Leaf, Internal} a NodeKey resolves to.
type resolvedNode struct {
	leaf     *LeafNode
	internal *InternalNode
}

func (n *resolvedNode) isEmpty() bool { return n == nil }

func (n *resolvedNode) hash() [32]byte {
	switch {
	case n == nil:
		return emptyHash
	case n.leaf != nil:
		return n.leaf.hash()
	default:
		return n.internal.hash()
	}
}
