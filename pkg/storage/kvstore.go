// Package storage is chainkit's typed storage library: Item, Map, Set,
// Counter and IndexedMap wrap a raw byte-oriented KVStore with generic,
// type-safe accessors, composite keys, and bounded/ordered iteration.
// The design is grounded on the CosmWasm-style storage crate at
// original_source/crates/storage (bound.rs, encoding.rs, lib.rs module list)
// and original_source/crates/std/src/storage/{mod,boxed}.rs, which is the
// "grug" framework's equivalent library: Item/Map/Set/Bound/Order/Record.
package storage

// KVStore is the raw byte-oriented store every typed accessor in this
// package is built on top of. This package's PrefixStore and pkg/db's read
// stores implement it.
type KVStore interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Set(key, value []byte) error
	Delete(key []byte) error

	// Iterator returns an ascending iterator over [start, end). A nil start
	// or end means "unbounded on that side".
	Iterator(start, end []byte) (Iterator, error)
	// ReverseIterator returns a descending iterator over [start, end).
	ReverseIterator(start, end []byte) (Iterator, error)
}

// Iterator walks a range of keys in a KVStore, following the teacher
// convention of an explicit Close() rather than channel-based iteration.
type Iterator interface {
	Valid() bool
	Next()
	Key() []byte
	Value() []byte
	Close() error
}

// Order selects ascending or descending iteration, mirroring
// original_source/crates/std/src/storage/mod.rs's Order enum.
type Order int

const (
	Ascending Order = iota
	Descending
)

// Record is a raw key/value pair returned from range iteration, mirroring
// the Rust storage crate's Record type.
type Record struct {
	Key   []byte
	Value []byte
}
