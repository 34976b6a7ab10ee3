package storage

import (
	"fmt"

	"github.com/certen-labs/chainkit/pkg/apperrors"
)

// Map stores typed values under a namespace-prefixed, typed key, mirroring
// original_source/crates/std/src/storage/mod.rs's Map (e.g. crates/app's
// ACCOUNTS: Map<Addr, Account>, CODES: Map<Hash256, Binary>).
type Map[K PrimaryKey[K], T any] struct {
	namespace []byte
	codec     Codec[T]
}

func NewMap[K PrimaryKey[K], T any](namespace string, codec Codec[T]) Map[K, T] {
	return Map[K, T]{namespace: []byte(namespace), codec: codec}
}

func (m Map[K, T]) rawKey(key K) []byte {
	return JoinKey(append([][]byte{m.namespace}, key.RawKey()...))
}

func (m Map[K, T]) Load(store KVStore, key K) (T, error) {
	var zero T
	raw, err := store.Get(m.rawKey(key))
	if err != nil {
		return zero, fmt.Errorf("storage: map %q: %w", m.namespace, err)
	}
	if raw == nil {
		return zero, apperrors.Wrap(apperrors.KindNotFound, fmt.Sprintf("map %q key", m.namespace), apperrors.ErrNotFound)
	}
	v, err := m.codec.Unmarshal(raw)
	if err != nil {
		return zero, apperrors.Wrap(apperrors.KindDeserialize, fmt.Sprintf("map %q key", m.namespace), err)
	}
	return v, nil
}

func (m Map[K, T]) MayLoad(store KVStore, key K) (T, bool, error) {
	var zero T
	raw, err := store.Get(m.rawKey(key))
	if err != nil {
		return zero, false, fmt.Errorf("storage: map %q: %w", m.namespace, err)
	}
	if raw == nil {
		return zero, false, nil
	}
	v, err := m.codec.Unmarshal(raw)
	if err != nil {
		return zero, false, apperrors.Wrap(apperrors.KindDeserialize, fmt.Sprintf("map %q key", m.namespace), err)
	}
	return v, true, nil
}

func (m Map[K, T]) Has(store KVStore, key K) (bool, error) {
	ok, err := store.Has(m.rawKey(key))
	if err != nil {
		return false, fmt.Errorf("storage: map %q: %w", m.namespace, err)
	}
	return ok, nil
}

func (m Map[K, T]) Save(store KVStore, key K, v T) error {
	raw, err := m.codec.Marshal(v)
	if err != nil {
		return apperrors.Wrap(apperrors.KindSerialize, fmt.Sprintf("map %q key", m.namespace), err)
	}
	if err := store.Set(m.rawKey(key), raw); err != nil {
		return fmt.Errorf("storage: map %q: %w", m.namespace, err)
	}
	return nil
}

func (m Map[K, T]) Remove(store KVStore, key K) error {
	if err := store.Delete(m.rawKey(key)); err != nil {
		return fmt.Errorf("storage: map %q: %w", m.namespace, err)
	}
	return nil
}

func (m Map[K, T]) Update(store KVStore, key K, fn func(T, bool) (T, error)) (T, error) {
	var zero T
	cur, ok, err := m.MayLoad(store, key)
	if err != nil {
		return zero, err
	}
	next, err := fn(cur, ok)
	if err != nil {
		return zero, err
	}
	if err := m.Save(store, key, next); err != nil {
		return zero, err
	}
	return next, nil
}

// Range iterates entries whose key falls between min and max in the given
// order. min/max are Bounds built with Inclusive/Exclusive/Unbounded/
// PrefixInclusive against the *key*, not the namespaced raw key. parse is
// not called: each Record's Key is the raw encoded key that follows the
// length-prefixed namespace.
func (m Map[K, T]) Range(store KVStore, min, max Bound, order Order, parse func([]byte) (K, error)) ([]Record, error) {
	prefix := JoinKey([][]byte{m.namespace, nil})
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
		return nil, fmt.Errorf("storage: map %q range: %w", m.namespace, err)
	}
	defer it.Close()

	var out []Record
	for ; it.Valid(); it.Next() {
		k := it.Key()
		if len(k) < len(prefix) {
			continue
		}
		out = append(out, Record{Key: k[len(prefix):], Value: it.Value()})
	}
	return out, nil
}

func appendPrefix(namespace, suffix []byte) []byte {
	if suffix == nil {
		return namespace
	}
	out := make([]byte, 0, len(namespace)+len(suffix))
	out = append(out, namespace...)
	out = append(out, suffix...)
	return out
}

func endBoundWithNamespace(namespace []byte, b Bound) []byte {
	end := b.endBytesExclusive()
	if end == nil {
		return incrementKey(namespace)
	}
	return appendPrefix(namespace, end)
}
