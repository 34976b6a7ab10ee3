package merkle

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/certen-labs/chainkit/pkg/apperrors"
)

// Op is one write applied to the tree in a single ApplyBatch call: a Put
// carries the new value (the tree stores its hash, not the value itself);
// Delete removes the key's leaf entirely.
type Op struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Tree is the Jellyfish Merkle Tree: a sparse, versioned, binary Merkle
// tree keyed by SHA-256(key) whose nodes are immutable once written,
// generalizing the teacher's pkg/merkle/tree.go (a single flat binary tree
// with one Proof per build) into the per-version indexed structure
// original_source/crates/jellyfish-merkle describes.
type Tree struct {
	mu    sync.Mutex
	store *NodeStore

	pendingVersion uint64
	pendingRoot    *Child
	hasPending     bool
}

func NewTree(store *NodeStore) *Tree {
	return &Tree{store: store}
}

// ApplyBatch computes the new root that results from applying ops on top
// of the tree as of version-1, staging every new/changed node in the
// NodeStore without making them durable. Returns the new root hash.
func (t *Tree) ApplyBatch(version uint64, ops []Op) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prior, err := t.loadRootChild(version - 1)
	if err != nil {
		return nil, err
	}

	sorted := make([]Op, len(ops))
	copy(sorted, ops)
	sort.Slice(sorted, func(i, j int) bool { return string(sorted[i].Key) < string(sorted[j].Key) })

	root := prior
	for _, op := range sorted {
		keyHash := sha256.Sum256(op.Key)
		path := NewBitArray(keyHash).Prefix(0)
		if op.Delete {
			root, err = t.deleteAt(root, version, 0, path, keyHash)
		} else {
			valueHash := sha256.Sum256(op.Value)
			root, err = t.insertAt(root, version, 0, path, keyHash, valueHash)
		}
		if err != nil {
			return nil, err
		}
	}

	if root != nil {
		node, err := t.resolve(root)
		if err != nil {
			return nil, err
		}
		t.store.stage(NodeKey{Version: version, Path: NewBitArray(keyHash0).Prefix(0)}, node)
	}

	t.pendingVersion = version
	t.pendingRoot = root
	t.hasPending = true

	h := childHash(root)
	return h[:], nil
}

// keyHash0 is a zero key used only to build the canonical empty-path
// NodeKey for the tree root; Prefix(0) ignores its contents entirely.
var keyHash0 [32]byte

// CommitPending flushes every node/orphan staged since the last commit, and
// the new version's root pointer, into batch.
func (t *Tree) CommitPending(batch BatchWriter) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.hasPending {
		return nil
	}
	if err := t.store.flush(batch); err != nil {
		return fmt.Errorf("merkle: flush nodes: %w", err)
	}

	var vb [8]byte
	binary.BigEndian.PutUint64(vb[:], t.pendingVersion)
	key := append(append([]byte{}, DefaultVersionNamespace...), vb[:]...)
	if err := batch.Set(key, encodeChild(t.pendingRoot)); err != nil {
		return fmt.Errorf("merkle: write root pointer: %w", err)
	}

	t.hasPending = false
	return nil
}

// loadRootChild resolves the root Child reference as of version, or nil if
// the tree was empty at that version (including version 0, the
// before-genesis state).
func (t *Tree) loadRootChild(version uint64) (*Child, error) {
	if version == 0 {
		return nil, nil
	}
	if t.hasPending && version == t.pendingVersion {
		return t.pendingRoot, nil
	}
	var vb [8]byte
	binary.BigEndian.PutUint64(vb[:], version)
	key := append(append([]byte{}, DefaultVersionNamespace...), vb[:]...)
	raw, err := t.store.raw.Get(key)
	if err != nil {
		return nil, fmt.Errorf("merkle: load root: %w", err)
	}
	if raw == nil {
		return nil, apperrors.Wrap(apperrors.KindMerkle, fmt.Sprintf("version %d", version), apperrors.ErrNoSuchVersion)
	}
	c, _, err := decodeChild(raw)
	if err != nil {
		return nil, fmt.Errorf("merkle: decode root: %w", err)
	}
	return c, nil
}

func (t *Tree) resolve(c *Child) (*resolvedNode, error) {
	if c == nil {
		return nil, nil
	}
	n, err := t.store.get(NodeKey{Version: c.Version})
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, fmt.Errorf("merkle: dangling child reference at version %d", c.Version)
	}
	return n, nil
}

// insertAt/deleteAt operate on the bit path implicitly via depth and the
// NibblePath accumulated so far; path is used only to build the NodeKey
// under which newly-created internal nodes are staged.
func (t *Tree) insertAt(cur *Child, version uint64, depth int, path NibblePath, keyHash, valueHash [32]byte) (*Child, error) {
	if cur == nil {
		leaf := &resolvedNode{leaf: &LeafNode{KeyHash: keyHash, ValueHash: valueHash}}
		t.store.stage(NodeKey{Version: version, Path: path}, leaf)
		h := leaf.hash()
		return &Child{Version: version, Hash: h, IsLeaf: true}, nil
	}

	node, err := t.loadAt(cur, path)
	if err != nil {
		return nil, err
	}

	if node.leaf != nil {
		if node.leaf.KeyHash == keyHash {
			leaf := &resolvedNode{leaf: &LeafNode{KeyHash: keyHash, ValueHash: valueHash}}
			t.store.stage(NodeKey{Version: version, Path: path}, leaf)
			h := leaf.hash()
			return &Child{Version: version, Hash: h, IsLeaf: true}, nil
		}
		// split: push both leaves down one bit at a time until they diverge.
		return t.splitLeaf(node.leaf, &LeafNode{KeyHash: keyHash, ValueHash: valueHash}, version, depth, path)
	}

	bit := NewBitArray(keyHash).Bit(depth)
	left, right := node.internal.Left, node.internal.Right
	if bit {
		newRight, err := t.insertAt(right, version, depth+1, path.Child(true), keyHash, valueHash)
		if err != nil {
			return nil, err
		}
		right = newRight
	} else {
		newLeft, err := t.insertAt(left, version, depth+1, path.Child(false), keyHash, valueHash)
		if err != nil {
			return nil, err
		}
		left = newLeft
	}
	internal := &resolvedNode{internal: &InternalNode{Left: left, Right: right}}
	t.store.stage(NodeKey{Version: version, Path: path}, internal)
	h := internal.hash()
	return &Child{Version: version, Hash: h}, nil
}

// splitLeaf handles the case of inserting a new key into a subtree
// currently occupied by a single differing leaf: it pushes both leaves
// down bit by bit, creating one Internal node per shared bit prefix, until
// their key hashes diverge, at which point each becomes a leaf of a single
// Internal node.
func (t *Tree) splitLeaf(existing, incoming *LeafNode, version uint64, depth int, path NibblePath) (*Child, error) {
	if depth >= 256 {
		return nil, fmt.Errorf("merkle: key hash collision at max depth")
	}

	eb := NewBitArray(existing.KeyHash).Bit(depth)
	ib := NewBitArray(incoming.KeyHash).Bit(depth)

	if eb != ib {
		existingLeafNode := &resolvedNode{leaf: existing}
		incomingLeafNode := &resolvedNode{leaf: incoming}
		t.store.stage(NodeKey{Version: version, Path: path.Child(eb)}, existingLeafNode)
		t.store.stage(NodeKey{Version: version, Path: path.Child(ib)}, incomingLeafNode)

		existingChild := &Child{Version: version, Hash: existingLeafNode.hash(), IsLeaf: true}
		incomingChild := &Child{Version: version, Hash: incomingLeafNode.hash(), IsLeaf: true}

		var internal *InternalNode
		if eb {
			internal = &InternalNode{Left: incomingChild, Right: existingChild}
		} else {
			internal = &InternalNode{Left: existingChild, Right: incomingChild}
		}
		node := &resolvedNode{internal: internal}
		t.store.stage(NodeKey{Version: version, Path: path}, node)
		return &Child{Version: version, Hash: node.hash()}, nil
	}

	// bits match at this depth: descend one more level together.
	childRef, err := t.splitLeaf(existing, incoming, version, depth+1, path.Child(eb))
	if err != nil {
		return nil, err
	}
	var internal *InternalNode
	if eb {
		internal = &InternalNode{Right: childRef}
	} else {
		internal = &InternalNode{Left: childRef}
	}
	node := &resolvedNode{internal: internal}
	t.store.stage(NodeKey{Version: version, Path: path}, node)
	return &Child{Version: version, Hash: node.hash()}, nil
}

func (t *Tree) deleteAt(cur *Child, version uint64, depth int, path NibblePath, keyHash [32]byte) (*Child, error) {
	if cur == nil {
		return nil, nil
	}
	node, err := t.loadAt(cur, path)
	if err != nil {
		return nil, err
	}
	if node.leaf != nil {
		if node.leaf.KeyHash != keyHash {
			return cur, nil
		}
		t.store.markOrphan(version, NodeKey{Version: cur.Version, Path: path})
		return nil, nil
	}

	bit := NewBitArray(keyHash).Bit(depth)
	left, right := node.internal.Left, node.internal.Right
	if bit {
		newRight, err := t.deleteAt(right, version, depth+1, path.Child(true), keyHash)
		if err != nil {
			return nil, err
		}
		right = newRight
	} else {
		newLeft, err := t.deleteAt(left, version, depth+1, path.Child(false), keyHash)
		if err != nil {
			return nil, err
		}
		left = newLeft
	}

	t.store.markOrphan(version, NodeKey{Version: cur.Version, Path: path})

	switch {
	case left == nil && right == nil:
		return nil, nil
	case left == nil && right.IsLeaf, right == nil && left.IsLeaf:
		// a lone leaf moves up to this node's position.
		only, onlyPath := right, path.Child(true)
		if left != nil {
			only, onlyPath = left, path.Child(false)
		}
		leaf, err := t.loadAt(only, onlyPath)
		if err != nil {
			return nil, err
		}
		t.store.stage(NodeKey{Version: version, Path: path}, leaf)
		return &Child{Version: version, Hash: only.Hash, IsLeaf: true}, nil
	default:
		internal := &resolvedNode{internal: &InternalNode{Left: left, Right: right}}
		t.store.stage(NodeKey{Version: version, Path: path}, internal)
		return &Child{Version: version, Hash: internal.hash()}, nil
	}
}

func (t *Tree) loadAt(c *Child, path NibblePath) (*resolvedNode, error) {
	n, err := t.store.get(NodeKey{Version: c.Version, Path: path})
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, fmt.Errorf("merkle: dangling child reference at version %d", c.Version)
	}
	return n, nil
}
