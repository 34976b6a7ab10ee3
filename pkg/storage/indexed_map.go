package storage

import "fmt"

// Index is a secondary lookup over an IndexedMap's primary data, following
// cw-storage-plus's IndexedMap/Index pattern referenced by SPEC_FULL.md's
// storage component. A Unique index stores one primary key per index key
// (e.g. "denom -> the one account holding the max supply"); a Multi index
// stores many (e.g. "owner -> every NFT they hold").
type Index[K PrimaryKey[K], T any] interface {
	// key extracts the secondary key from a stored value.
	key(v T) []byte
	// save/remove maintain the index's own namespace whenever the primary
	// map's entry changes.
	save(store KVStore, pk K, v T) error
	remove(store KVStore, pk K, v T) error
}

// UniqueIndex enforces at most one primary key per index key.
type UniqueIndex[K PrimaryKey[K], T any] struct {
	namespace []byte
	keyFn     func(T) []byte
}

func NewUniqueIndex[K PrimaryKey[K], T any](namespace string, keyFn func(T) []byte) *UniqueIndex[K, T] {
	return &UniqueIndex[K, T]{namespace: []byte(namespace), keyFn: keyFn}
}

func (idx *UniqueIndex[K, T]) key(v T) []byte { return idx.keyFn(v) }

func (idx *UniqueIndex[K, T]) save(store KVStore, pk K, v T) error {
	rawPK := JoinKey(pk.RawKey())
	full := JoinKey([][]byte{idx.namespace, idx.keyFn(v)})
	existing, err := store.Get(full)
	if err != nil {
		return err
	}
	if existing != nil && string(existing) != string(rawPK) {
		return fmt.Errorf("storage: unique index %q: duplicate key for distinct primary keys", idx.namespace)
	}
	return store.Set(full, rawPK)
}

func (idx *UniqueIndex[K, T]) remove(store KVStore, _ K, v T) error {
	full := JoinKey([][]byte{idx.namespace, idx.keyFn(v)})
	return store.Delete(full)
}

// LoadPrimaryKey resolves the primary key stored under an index key, parsed
// back into K with parse.
func (idx *UniqueIndex[K, T]) LoadPrimaryKey(store KVStore, indexKey []byte, parse func([]byte) (K, error)) (K, error) {
	var zero K
	full := JoinKey([][]byte{idx.namespace, indexKey})
	raw, err := store.Get(full)
	if err != nil {
		return zero, err
	}
	if raw == nil {
		return zero, fmt.Errorf("storage: unique index %q: no entry for index key", idx.namespace)
	}
	return parse(raw)
}

// MultiIndex allows many primary keys per index key, stored as
// namespace/indexKey/primaryKey -> primaryKey (value duplicated so range
// scans need no secondary lookup).
type MultiIndex[K PrimaryKey[K], T any] struct {
	namespace []byte
	keyFn     func(T) []byte
}

func NewMultiIndex[K PrimaryKey[K], T any](namespace string, keyFn func(T) []byte) *MultiIndex[K, T] {
	return &MultiIndex[K, T]{namespace: []byte(namespace), keyFn: keyFn}
}

func (idx *MultiIndex[K, T]) key(v T) []byte { return idx.keyFn(v) }

func (idx *MultiIndex[K, T]) entryKey(pk K, v T) []byte {
	rawPK := JoinKey(pk.RawKey())
	return JoinKey([][]byte{idx.namespace, idx.keyFn(v), rawPK})
}

func (idx *MultiIndex[K, T]) save(store KVStore, pk K, v T) error {
	return store.Set(idx.entryKey(pk, v), JoinKey(pk.RawKey()))
}

func (idx *MultiIndex[K, T]) remove(store KVStore, pk K, v T) error {
	return store.Delete(idx.entryKey(pk, v))
}

// ByIndex returns every primary key recorded under an index key.
func (idx *MultiIndex[K, T]) ByIndex(store KVStore, indexKey []byte, parse func([]byte) (K, error)) ([]K, error) {
	prefix := JoinKey([][]byte{idx.namespace, indexKey})
	it, err := store.Iterator(prefix, incrementKey(prefix))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []K
	for ; it.Valid(); it.Next() {
		pk, err := parse(it.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, pk)
	}
	return out, nil
}

// IndexedMap is a Map whose writes also maintain a set of secondary
// Indexes, so callers get typed lookups both by primary key and by any
// registered index.
type IndexedMap[K PrimaryKey[K], T any] struct {
	primary Map[K, T]
	indexes []Index[K, T]
}

func NewIndexedMap[K PrimaryKey[K], T any](namespace string, codec Codec[T], indexes ...Index[K, T]) *IndexedMap[K, T] {
	return &IndexedMap[K, T]{primary: NewMap[K, T](namespace, codec), indexes: indexes}
}

func (m *IndexedMap[K, T]) Load(store KVStore, key K) (T, error) {
	return m.primary.Load(store, key)
}

func (m *IndexedMap[K, T]) MayLoad(store KVStore, key K) (T, bool, error) {
	return m.primary.MayLoad(store, key)
}

func (m *IndexedMap[K, T]) Save(store KVStore, key K, v T) error {
	if old, ok, err := m.primary.MayLoad(store, key); err != nil {
		return err
	} else if ok {
		for _, idx := range m.indexes {
			if err := idx.remove(store, key, old); err != nil {
				return err
			}
		}
	}
	if err := m.primary.Save(store, key, v); err != nil {
		return err
	}
	for _, idx := range m.indexes {
		if err := idx.save(store, key, v); err != nil {
			return err
		}
	}
	return nil
}

func (m *IndexedMap[K, T]) Remove(store KVStore, key K) error {
	old, ok, err := m.primary.MayLoad(store, key)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	for _, idx := range m.indexes {
		if err := idx.remove(store, key, old); err != nil {
			return err
		}
	}
	return m.primary.Remove(store, key)
}

func (m *IndexedMap[K, T]) Range(store KVStore, min, max Bound, order Order, parse func([]byte) (K, error)) ([]Record, error) {
	return m.primary.Range(store, min, max, order, parse)
}
