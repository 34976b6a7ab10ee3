package app

import (
	"sort"

	"github.com/certen-labs/chainkit/pkg/storage"
)

// CacheStore is the "pending cache store layered on C3" spec.md's data-flow
// line describes: an in-memory diff over a parent KVStore that every
// message, and every sub-message within it, writes through instead of
// touching the parent directly. Discard drops the diff; Flush replays it
// into the parent. This is what lets a failing message or sub-message
// revert without having mutated real state, and what lets the block-level
// batch be built from exactly the transactions that succeeded.
type CacheStore struct {
	parent storage.KVStore
	dirty  map[string]cacheEntry
}

type cacheEntry struct {
	value   []byte
	deleted bool
}

func NewCacheStore(parent storage.KVStore) *CacheStore {
	return &CacheStore{parent: parent, dirty: make(map[string]cacheEntry)}
}

func (c *CacheStore) Get(key []byte) ([]byte, error) {
	if e, ok := c.dirty[string(key)]; ok {
		if e.deleted {
			return nil, nil
		}
		return e.value, nil
	}
	return c.parent.Get(key)
}

func (c *CacheStore) Has(key []byte) (bool, error) {
	v, err := c.Get(key)
	return v != nil, err
}

func (c *CacheStore) Set(key, value []byte) error {
	c.dirty[string(key)] = cacheEntry{value: append([]byte{}, value...)}
	return nil
}

func (c *CacheStore) Delete(key []byte) error {
	c.dirty[string(key)] = cacheEntry{deleted: true}
	return nil
}

func (c *CacheStore) Iterator(start, end []byte) (storage.Iterator, error) {
	return c.rangeIterator(start, end, false)
}

func (c *CacheStore) ReverseIterator(start, end []byte) (storage.Iterator, error) {
	return c.rangeIterator(start, end, true)
}

// rangeIterator merges the dirty overlay with the parent's range, letting
// overlay entries shadow (or tombstone) parent entries.
func (c *CacheStore) rangeIterator(start, end []byte, reverse bool) (storage.Iterator, error) {
	var parentIt storage.Iterator
	var err error
	if reverse {
		parentIt, err = c.parent.ReverseIterator(start, end)
	} else {
		parentIt, err = c.parent.Iterator(start, end)
	}
	if err != nil {
		return nil, err
	}
	defer parentIt.Close()

	merged := make(map[string][]byte)
	for ; parentIt.Valid(); parentIt.Next() {
		merged[string(parentIt.Key())] = append([]byte{}, parentIt.Value()...)
	}
	for k, e := range c.dirty {
		if inRange(k, start, end) {
			if e.deleted {
				delete(merged, k)
			} else {
				merged[k] = e.value
			}
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if reverse {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}

	recs := make([]storage.Record, 0, len(keys))
	for _, k := range keys {
		recs = append(recs, storage.Record{Key: []byte(k), Value: merged[k]})
	}
	return &cacheIterator{recs: recs}, nil
}

func inRange(key string, start, end []byte) bool {
	if start != nil && key < string(start) {
		return false
	}
	if end != nil && key >= string(end) {
		return false
	}
	return true
}

// Writer is the narrow interface Flush needs: both *db.Batch (via
// BatchAdapter) and *CacheStore itself satisfy it, so a transaction-level
// cache can flush into the block batch and a sub-message's cache can flush
// into its parent's cache with the same method.
type Writer interface {
	Set(key, value []byte) error
	Delete(key []byte) error
}

// Flush replays every dirty entry into into, the single point where a
// CacheStore's accumulated writes become visible to whatever holds it --
// the block batch for a transaction-level cache, or a parent CacheStore for
// a nested sub-message overlay.
func (c *CacheStore) Flush(into Writer) error {
	keys := make([]string, 0, len(c.dirty))
	for k := range c.dirty {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e := c.dirty[k]
		if e.deleted {
			if err := into.Delete([]byte(k)); err != nil {
				return err
			}
			continue
		}
		if err := into.Set([]byte(k), e.value); err != nil {
			return err
		}
	}
	return nil
}

// Discard is a no-op signaling intent: the CacheStore is simply dropped
// without ever calling Flush, so its dirty set never reaches the parent.
func (c *CacheStore) Discard() {}

type cacheIterator struct {
	recs []storage.Record
	pos  int
}

func (it *cacheIterator) Valid() bool   { return it.pos < len(it.recs) }
func (it *cacheIterator) Next()         { it.pos++ }
func (it *cacheIterator) Key() []byte   { return it.recs[it.pos].Key }
func (it *cacheIterator) Value() []byte { return it.recs[it.pos].Value }
func (it *cacheIterator) Close() error  { return nil }
