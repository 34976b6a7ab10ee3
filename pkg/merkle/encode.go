package merkle

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// Wire tags distinguishing a serialized Leaf from a serialized Internal,
// stored as the first byte of a node's encoded form, ahead of the
// RLP-encoded body -- RLP itself has no tagged-union primitive, so the tag
// byte plays the same role go-ethereum's own trie package gives its
// leaf/branch/extension discriminator.
const (
	tagLeaf     = 0x01
	tagInternal = 0x02
)

// rlpChild is Child's canonical wire shape. RLP has no nil-pointer
// encoding for a struct field, so a missing child is carried explicitly via
// Present rather than by omitting the field.
type rlpChild struct {
	Present bool
	Version uint64
	Hash    []byte
	IsLeaf  bool
}

type rlpLeaf struct {
	KeyHash   []byte
	ValueHash []byte
}

type rlpInternal struct {
	Left  rlpChild
	Right rlpChild
}

func toRLPChild(c *Child) rlpChild {
	if c == nil {
		return rlpChild{}
	}
	return rlpChild{Present: true, Version: c.Version, Hash: c.Hash[:], IsLeaf: c.IsLeaf}
}

func fromRLPChild(c rlpChild) (*Child, error) {
	if !c.Present {
		return nil, nil
	}
	if len(c.Hash) != 32 {
		return nil, fmt.Errorf("merkle: malformed child hash, len=%d", len(c.Hash))
	}
	out := &Child{Version: c.Version, IsLeaf: c.IsLeaf}
	copy(out.Hash[:], c.Hash)
	return out, nil
}

// encodeChild encodes a version's root pointer (nil for an empty tree).
func encodeChild(c *Child) []byte {
	out, err := rlp.EncodeToBytes(toRLPChild(c))
	if err != nil {
		panic(fmt.Sprintf("merkle: encode child: %v", err))
	}
	return out
}

// decodeChild reverses encodeChild, also reporting the bytes consumed.
func decodeChild(data []byte) (*Child, int, error) {
	var body rlpChild
	if err := rlp.DecodeBytes(data, &body); err != nil {
		return nil, 0, fmt.Errorf("merkle: decode child: %w", err)
	}
	c, err := fromRLPChild(body)
	return c, len(data), err
}

// encodeNode canonically encodes a tree node for storage under pkg/db's
// jmt_nodes namespace, using RLP (the canonical-encoding library the rest
// of the domain stack's JMT node framing is grounded on) for the node
// body, with a one-byte leaf/internal tag ahead of it.
func encodeNode(n *resolvedNode) []byte {
	if n.leaf != nil {
		body, err := rlp.EncodeToBytes(rlpLeaf{KeyHash: n.leaf.KeyHash[:], ValueHash: n.leaf.ValueHash[:]})
		if err != nil {
			// KeyHash/ValueHash are fixed-size byte slices; rlp.EncodeToBytes
			// only fails on unsupported types or write errors, neither of
			// which can happen here.
			panic(fmt.Sprintf("merkle: encode leaf: %v", err))
		}
		return append([]byte{tagLeaf}, body...)
	}
	body, err := rlp.EncodeToBytes(rlpInternal{
		Left:  toRLPChild(n.internal.Left),
		Right: toRLPChild(n.internal.Right),
	})
	if err != nil {
		panic(fmt.Sprintf("merkle: encode internal: %v", err))
	}
	return append([]byte{tagInternal}, body...)
}

func decodeNode(data []byte) (*resolvedNode, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("merkle: empty node encoding")
	}
	switch data[0] {
	case tagLeaf:
		var body rlpLeaf
		if err := rlp.DecodeBytes(data[1:], &body); err != nil {
			return nil, fmt.Errorf("merkle: decode leaf: %w", err)
		}
		if len(body.KeyHash) != 32 || len(body.ValueHash) != 32 {
			return nil, fmt.Errorf("merkle: malformed leaf encoding")
		}
		leaf := &LeafNode{}
		copy(leaf.KeyHash[:], body.KeyHash)
		copy(leaf.ValueHash[:], body.ValueHash)
		return &resolvedNode{leaf: leaf}, nil
	case tagInternal:
		var body rlpInternal
		if err := rlp.DecodeBytes(data[1:], &body); err != nil {
			return nil, fmt.Errorf("merkle: decode internal: %w", err)
		}
		left, err := fromRLPChild(body.Left)
		if err != nil {
			return nil, err
		}
		right, err := fromRLPChild(body.Right)
		if err != nil {
			return nil, err
		}
		return &resolvedNode{internal: &InternalNode{Left: left, Right: right}}, nil
	default:
		return nil, fmt.Errorf("merkle: unknown node tag %d", data[0])
	}
}
