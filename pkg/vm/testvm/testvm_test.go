package testvm

import (
	"testing"

	"github.com/certen-labs/chainkit/pkg/apperrors"
	"github.com/certen-labs/chainkit/pkg/storage"
	"github.com/certen-labs/chainkit/pkg/vm"
)

type memStore struct{ data map[string][]byte }

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (m *memStore) Get(key []byte) ([]byte, error) { return m.data[string(key)], nil }
func (m *memStore) Has(key []byte) (bool, error)   { _, ok := m.data[string(key)]; return ok, nil }
func (m *memStore) Set(key, value []byte) error    { m.data[string(key)] = append([]byte{}, value...); return nil }
func (m *memStore) Delete(key []byte) error        { delete(m.data, string(key)); return nil }
func (m *memStore) Iterator(start, end []byte) (storage.Iterator, error) {
	return nil, nil
}
func (m *memStore) ReverseIterator(start, end []byte) (storage.Iterator, error) {
	return nil, nil
}

func TestImmutableStateQueryRefusesWrite(t *testing.T) {
	v := New()
	codeHash := []byte{0xaa}
	v.Register(codeHash, ImmutableState())

	store := newMemStore()
	inst, err := v.BuildInstance(store, nil, vm.Program{CodeHash: codeHash})
	if err != nil {
		t.Fatalf("BuildInstance: %v", err)
	}

	ctx := vm.Context{Contract: []byte("contract"), Mode: vm.ModeImmutable}
	meter := vm.NewMeter(1_000_000)
	_, err = inst.Call("query", ctx, meter, nil)
	if err == nil {
		t.Fatalf("expected query's db_write to be refused")
	}
	if apperrors.KindOf(err) != apperrors.KindUnauthorized {
		t.Fatalf("expected KindUnauthorized, got %v (%v)", apperrors.KindOf(err), err)
	}
	if _, ok := store.data["larry"]; ok {
		t.Fatalf("write must not have reached the store")
	}
}

func TestInfiniteLoopExhaustsGas(t *testing.T) {
	v := New()
	codeHash := []byte{0xbb}
	v.Register(codeHash, InfiniteLoop())

	store := newMemStore()
	inst, err := v.BuildInstance(store, nil, vm.Program{CodeHash: codeHash})
	if err != nil {
		t.Fatalf("BuildInstance: %v", err)
	}

	ctx := vm.Context{Contract: []byte("contract"), Mode: vm.ModeMutable}
	meter := vm.NewMeter(10 * vm.Costs.Debug)
	_, err = inst.Call("execute", ctx, meter, nil)
	if apperrors.KindOf(err) != apperrors.KindOutOfGas {
		t.Fatalf("expected KindOutOfGas, got %v (%v)", apperrors.KindOf(err), err)
	}
}

func TestMaxCallDepthRefused(t *testing.T) {
	v := New()
	codeHash := []byte{0xcc}
	v.Register(codeHash, ImmutableState())

	store := newMemStore()
	inst, err := v.BuildInstance(store, nil, vm.Program{CodeHash: codeHash})
	if err != nil {
		t.Fatalf("BuildInstance: %v", err)
	}

	ctx := vm.Context{Contract: []byte("contract"), Mode: vm.ModeMutable, Depth: vm.MaxCallDepth}
	meter := vm.NewMeter(1_000_000)
	_, err = inst.Call("instantiate", ctx, meter, nil)
	if apperrors.KindOf(err) != apperrors.KindVm {
		t.Fatalf("expected KindVm (reentrancy), got %v (%v)", apperrors.KindOf(err), err)
	}
}
