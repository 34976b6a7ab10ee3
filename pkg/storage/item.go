package storage

import (
	"fmt"

	"github.com/certen-labs/chainkit/pkg/apperrors"
)

// Item stores a single typed value under a fixed key, mirroring
// original_source/crates/std/src/storage/mod.rs's Item (and crates/app's
// CHAIN_ID/CONFIG/LAST_FINALIZED_BLOCK singleton fields).
type Item[T any] struct {
	key   []byte
	codec Codec[T]
}

func NewItem[T any](key string, codec Codec[T]) Item[T] {
	return Item[T]{key: []byte(key), codec: codec}
}

func (i Item[T]) Load(store KVStore) (T, error) {
	var zero T
	raw, err := store.Get(i.key)
	if err != nil {
		return zero, fmt.Errorf("storage: item %q: %w", i.key, err)
	}
	if raw == nil {
		return zero, apperrors.Wrap(apperrors.KindNotFound, fmt.Sprintf("item %q", i.key), apperrors.ErrNotFound)
	}
	v, err := i.codec.Unmarshal(raw)
	if err != nil {
		return zero, apperrors.Wrap(apperrors.KindDeserialize, fmt.Sprintf("item %q", i.key), err)
	}
	return v, nil
}

// MayLoad is Load but returns (zero, false, nil) instead of a NotFound error
// when the item has never been set.
func (i Item[T]) MayLoad(store KVStore) (T, bool, error) {
	var zero T
	raw, err := store.Get(i.key)
	if err != nil {
		return zero, false, fmt.Errorf("storage: item %q: %w", i.key, err)
	}
	if raw == nil {
		return zero, false, nil
	}
	v, err := i.codec.Unmarshal(raw)
	if err != nil {
		return zero, false, apperrors.Wrap(apperrors.KindDeserialize, fmt.Sprintf("item %q", i.key), err)
	}
	return v, true, nil
}

func (i Item[T]) Save(store KVStore, v T) error {
	raw, err := i.codec.Marshal(v)
	if err != nil {
		return apperrors.Wrap(apperrors.KindSerialize, fmt.Sprintf("item %q", i.key), err)
	}
	if err := store.Set(i.key, raw); err != nil {
		return fmt.Errorf("storage: item %q: %w", i.key, err)
	}
	return nil
}

func (i Item[T]) Remove(store KVStore) error {
	if err := store.Delete(i.key); err != nil {
		return fmt.Errorf("storage: item %q: %w", i.key, err)
	}
	return nil
}

// Update loads the current value (or the zero value if unset), applies fn,
// and saves the result, mirroring the read-modify-write pattern the app
// state machine uses for LAST_FINALIZED_BLOCK and sequence counters.
func (i Item[T]) Update(store KVStore, fn func(T) (T, error)) (T, error) {
	var zero T
	cur, _, err := i.MayLoad(store)
	if err != nil {
		return zero, err
	}
	next, err := fn(cur)
	if err != nil {
		return zero, err
	}
	if err := i.Save(store, next); err != nil {
		return zero, err
	}
	return next, nil
}
