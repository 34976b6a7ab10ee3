package merkle

import "testing"

// memRaw is a minimal in-memory RawStore+BatchWriter pair used to exercise
// the tree without a real cometbft-db backend.
type memRaw struct {
	data map[string][]byte
}

func newMemRaw() *memRaw { return &memRaw{data: make(map[string][]byte)} }

func (m *memRaw) Get(key []byte) ([]byte, error) {
	v, ok := m.data[string(key)]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (m *memRaw) Set(key, value []byte) error {
	m.data[string(key)] = append([]byte{}, value...)
	return nil
}

func newTestTree() (*Tree, *memRaw) {
	raw := newMemRaw()
	store := NewNodeStore(raw)
	return NewTree(store), raw
}

func commitBatch(t *testing.T, tree *Tree, raw *memRaw, version uint64, ops []Op) []byte {
	t.Helper()
	root, err := tree.ApplyBatch(version, ops)
	if err != nil {
		t.Fatalf("ApplyBatch(%d): %v", version, err)
	}
	if err := tree.CommitPending(raw); err != nil {
		t.Fatalf("CommitPending(%d): %v", version, err)
	}
	return root
}

func TestSingleKeyMembership(t *testing.T) {
	tree, raw := newTestTree()
	root := commitBatch(t, tree, raw, 1, []Op{{Key: []byte("alpha"), Value: []byte("1")}})

	proof, err := tree.Prove(1, []byte("alpha"))
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	ok, err := proof.Verify(root, []byte("alpha"), []byte("1"))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected membership proof to verify")
	}
}

func TestNonMembership(t *testing.T) {
	tree, raw := newTestTree()
	root := commitBatch(t, tree, raw, 1, []Op{{Key: []byte("alpha"), Value: []byte("1")}})

	proof, err := tree.Prove(1, []byte("beta"))
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	ok, err := proof.Verify(root, []byte("beta"), nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected non-membership proof to verify")
	}
}

func TestMultiKeyMembershipAcrossVersions(t *testing.T) {
	tree, raw := newTestTree()
	commitBatch(t, tree, raw, 1, []Op{
		{Key: []byte("alpha"), Value: []byte("1")},
		{Key: []byte("beta"), Value: []byte("2")},
		{Key: []byte("gamma"), Value: []byte("3")},
	})
	rootV2 := commitBatch(t, tree, raw, 2, []Op{{Key: []byte("beta"), Value: []byte("22")}})

	proof, err := tree.Prove(2, []byte("beta"))
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	ok, err := proof.Verify(rootV2, []byte("beta"), []byte("22"))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected updated value to verify at v2")
	}

	// alpha is untouched at v2 but must still verify against rootV2.
	proofAlpha, err := tree.Prove(2, []byte("alpha"))
	if err != nil {
		t.Fatalf("Prove alpha: %v", err)
	}
	ok, err = proofAlpha.Verify(rootV2, []byte("alpha"), []byte("1"))
	if err != nil {
		t.Fatalf("Verify alpha: %v", err)
	}
	if !ok {
		t.Fatalf("expected untouched key to still verify at v2")
	}
}

func TestDeleteRemovesMembership(t *testing.T) {
	tree, raw := newTestTree()
	commitBatch(t, tree, raw, 1, []Op{
		{Key: []byte("alpha"), Value: []byte("1")},
		{Key: []byte("beta"), Value: []byte("2")},
	})
	rootV2 := commitBatch(t, tree, raw, 2, []Op{{Key: []byte("alpha"), Delete: true}})

	proof, err := tree.Prove(2, []byte("alpha"))
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	ok, err := proof.Verify(rootV2, []byte("alpha"), nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected deleted key to verify as absent")
	}
}
