package storage

import "fmt"

// Set stores a collection of typed keys with no associated value -- the
// presence of the key *is* the record. Grounded on
// original_source/crates/app/src/state.rs's NEXT_CRONJOBS: Set<(Timestamp,
// Addr)>, which is deliberately a Set rather than a Map because more than
// one cronjob can share the same scheduled timestamp.
type Set[K PrimaryKey[K]] struct {
	namespace []byte
}

func NewSet[K PrimaryKey[K]](namespace string) Set[K] {
	return Set[K]{namespace: []byte(namespace)}
}

func (s Set[K]) rawKey(key K) []byte {
	return JoinKey(append([][]byte{s.namespace}, key.RawKey()...))
}

func (s Set[K]) Has(store KVStore, key K) (bool, error) {
	ok, err := store.Has(s.rawKey(key))
	if err != nil {
		return false, fmt.Errorf("storage: set %q: %w", s.namespace, err)
	}
	return ok, nil
}

func (s Set[K]) Insert(store KVStore, key K) error {
	if err := store.Set(s.rawKey(key), []byte{0x01}); err != nil {
		return fmt.Errorf("storage: set %q: %w", s.namespace, err)
	}
	return nil
}

func (s Set[K]) Remove(store KVStore, key K) error {
	if err := store.Delete(s.rawKey(key)); err != nil {
		return fmt.Errorf("storage: set %q: %w", s.namespace, err)
	}
	return nil
}

// Range iterates the keys in [min, max) in order, mirroring Map.Range but
// without values.
func (s Set[K]) Range(store KVStore, min, max Bound, order Order) ([][]byte, error) {
	prefix := JoinKey([][]byte{s.namespace, nil})
	start := appendPrefix(prefix, min.startBytes())
	end := endBoundWithNamespace(prefix, max)

	var it Iterator
	var err error
	if order == Ascending {
		it, err = store.Iterator(start, end)
	} else {
		it, err = store.ReverseIterator(start, end)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: set %q range: %w", s.namespace, err)
	}
	defer it.Close()

	var out [][]byte
	for ; it.Valid(); it.Next() {
		k := it.Key()
		if len(k) < len(prefix) {
			continue
		}
		out = append(out, append([]byte{}, k[len(prefix):]...))
	}
	return out, nil
}
