package storage

import (
	"sort"
	"testing"
)

// memStore is a minimal in-memory KVStore for exercising the typed storage
// library in tests, mirroring original_source/crates/std/src/storage.rs's
// MockStorage (a plain BTreeMap<Vec<u8>, Vec<u8>>).
type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (m *memStore) Get(key []byte) ([]byte, error) {
	v, ok := m.data[string(key)]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (m *memStore) Has(key []byte) (bool, error) {
	_, ok := m.data[string(key)]
	return ok, nil
}

func (m *memStore) Set(key, value []byte) error {
	m.data[string(key)] = append([]byte{}, value...)
	return nil
}

func (m *memStore) Delete(key []byte) error {
	delete(m.data, string(key))
	return nil
}

func (m *memStore) sortedKeys(start, end []byte) []string {
	var keys []string
	for k := range m.data {
		if start != nil && k < string(start) {
			continue
		}
		if end != nil && k >= string(end) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *memStore) Iterator(start, end []byte) (Iterator, error) {
	keys := m.sortedKeys(start, end)
	return &memIterator{m: m, keys: keys}, nil
}

func (m *memStore) ReverseIterator(start, end []byte) (Iterator, error) {
	keys := m.sortedKeys(start, end)
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return &memIterator{m: m, keys: keys}, nil
}

type memIterator struct {
	m    *memStore
	keys []string
	pos  int
}

func (it *memIterator) Valid() bool { return it.pos < len(it.keys) }
func (it *memIterator) Next()       { it.pos++ }
func (it *memIterator) Key() []byte { return []byte(it.keys[it.pos]) }
func (it *memIterator) Value() []byte {
	return it.m.data[it.keys[it.pos]]
}
func (it *memIterator) Close() error { return nil }

func TestItemSaveLoad(t *testing.T) {
	store := newMemStore()
	item := NewItem[string]("chain_id", JSONCodec[string]{})

	if _, _, err := item.MayLoad(store); err != nil {
		t.Fatalf("MayLoad on unset item: %v", err)
	}

	if err := item.Save(store, "dev-1"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := item.Load(store)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "dev-1" {
		t.Fatalf("Load = %q, want dev-1", got)
	}
}

func TestMapSaveLoadRemove(t *testing.T) {
	store := newMemStore()
	m := NewMap[RawBytesKey, uint64]("account", JSONCodec[uint64]{})

	addr := RawBytesKey("addr-1")
	if err := m.Save(store, addr, 42); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := m.Load(store, addr)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != 42 {
		t.Fatalf("Load = %d, want 42", got)
	}

	if err := m.Remove(store, addr); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, err := m.MayLoad(store, addr); err != nil || ok {
		t.Fatalf("expected removed key to be absent, ok=%v err=%v", ok, err)
	}
}

func TestMapRangeOrder(t *testing.T) {
	store := newMemStore()
	m := NewMap[Uint64Key, string]("seq", JSONCodec[string]{})

	for i := uint64(1); i <= 5; i++ {
		if err := m.Save(store, Uint64Key(i), "v"); err != nil {
			t.Fatalf("Save(%d): %v", i, err)
		}
	}

	recs, err := m.Range(store, Unbounded(), Unbounded(), Ascending, nil)
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(recs) != 5 {
		t.Fatalf("Range returned %d records, want 5", len(recs))
	}
}

func TestSetInsertHasRemove(t *testing.T) {
	store := newMemStore()
	s := NewSet[RawBytesKey]("jobs")

	key := RawBytesKey("job-a")
	if ok, _ := s.Has(store, key); ok {
		t.Fatalf("expected key absent before insert")
	}
	if err := s.Insert(store, key); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if ok, _ := s.Has(store, key); !ok {
		t.Fatalf("expected key present after insert")
	}
	if err := s.Remove(store, key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ok, _ := s.Has(store, key); ok {
		t.Fatalf("expected key absent after remove")
	}
}

func TestCounterIncr(t *testing.T) {
	store := newMemStore()
	c := NewCounter("next_code_id")

	v, err := c.Incr(store, 1)
	if err != nil {
		t.Fatalf("Incr: %v", err)
	}
	if v != 1 {
		t.Fatalf("Incr = %d, want 1", v)
	}
	v, err = c.Incr(store, 5)
	if err != nil {
		t.Fatalf("Incr: %v", err)
	}
	if v != 6 {
		t.Fatalf("Incr = %d, want 6", v)
	}
}
