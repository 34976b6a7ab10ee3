package db

import "sort"

// Op is a single write in a batch: either a Put carrying its new value or a
// Delete. Mirrors original_source/crates/db/src/traits.rs's
// Op{Put(Vec<u8>), Delete} exactly.
type Op struct {
	Kind  OpKind
	Value []byte
}

type OpKind int

const (
	OpPut OpKind = iota
	OpDelete
)

func Put(value []byte) Op { return Op{Kind: OpPut, Value: value} }

func Delete() Op { return Op{Kind: OpDelete} }

// Batch is an ordered set of pending writes keyed by logical (unversioned)
// key, mirroring crates/db/src/traits.rs's `type Batch = BTreeMap<Vec<u8>,
// Op>` -- BTreeMap gives deterministic iteration order, which a Go map
// doesn't, so Batch here keeps keys in insertion order plus an index for
// O(1) lookup/overwrite, and Sorted produces the key order on demand.
type Batch struct {
	order []string
	ops   map[string]Op
}

func NewBatch() *Batch {
	return &Batch{ops: make(map[string]Op)}
}

func (b *Batch) Set(key, value []byte) {
	b.put(string(key), Put(value))
}

func (b *Batch) Delete(key []byte) {
	b.put(string(key), Delete())
}

func (b *Batch) put(key string, op Op) {
	if _, exists := b.ops[key]; !exists {
		b.order = append(b.order, key)
	}
	b.ops[key] = op
}

// Len reports the number of distinct keys staged in the batch.
func (b *Batch) Len() int { return len(b.order) }

// Each calls fn once per staged key in insertion order. Sorting happens at
// flush time (the JMT and the physical KV layer both want keys in sorted
// order, but callers build batches incrementally).
func (b *Batch) Each(fn func(key []byte, op Op)) {
	for _, k := range b.order {
		fn([]byte(k), b.ops[k])
	}
}

// Sorted returns the batch's keys in ascending lexicographic order, which
// is what both the versioned KV commit and the JMT's batch update need.
func (b *Batch) Sorted() []struct {
	Key []byte
	Op  Op
} {
	keys := make([]string, len(b.order))
	copy(keys, b.order)
	sort.Strings(keys)

	out := make([]struct {
		Key []byte
		Op  Op
	}, len(keys))
	for i, k := range keys {
		out[i] = struct {
			Key []byte
			Op  Op
		}{Key: []byte(k), Op: b.ops[k]}
	}
	return out
}
