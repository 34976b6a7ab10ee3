package db

import (
	"bytes"

	"github.com/certen-labs/chainkit/pkg/storage"
)

// readStore presents the versioned store as a plain storage.KVStore pinned
// to a single version: every Get/Has/Iterator call resolves each logical
// key to the newest physical entry whose version is <= the pinned version.
type readStore struct {
	back    *backend
	version uint64
	empty   bool
}

func (r *readStore) Get(key []byte) ([]byte, error) {
	if r.empty {
		return nil, nil
	}
	it, err := r.back.reverseIterator(versionPrefix(key), physicalKey(key, r.version+1))
	if err != nil {
		return nil, err
	}
	defer it.Close()
	if !it.Valid() {
		return nil, nil
	}
	present, value := unwrapValue(it.Value())
	if !present {
		return nil, nil
	}
	return value, nil
}

func (r *readStore) Has(key []byte) (bool, error) {
	v, err := r.Get(key)
	return v != nil, err
}

func (r *readStore) Set([]byte, []byte) error {
	return errReadOnlyStore
}

func (r *readStore) Delete([]byte) error {
	return errReadOnlyStore
}

func (r *readStore) Iterator(start, end []byte) (storage.Iterator, error) {
	return r.rangeIterator(start, end, false)
}

func (r *readStore) ReverseIterator(start, end []byte) (storage.Iterator, error) {
	return r.rangeIterator(start, end, true)
}

// rangeIterator scans the physical namespace in ascending (logicalKey,
// version) order and, for each run of physical entries sharing a logical
// key, yields the newest one whose version <= r.version -- unless that
// entry is a tombstone (its presence flag marks a delete), in which case the logical key is
// treated as absent. Results are then optionally reversed.
func (r *readStore) rangeIterator(start, end []byte, reverse bool) (storage.Iterator, error) {
	if r.empty {
		return &sliceIterator{}, nil
	}

	physStart := append(append([]byte{}, nsState...), start...)
	var physEnd []byte
	if end == nil {
		physEnd = incrementBytes(nsState)
	} else {
		physEnd = append(append([]byte{}, nsState...), end...)
	}

	it, err := r.back.iterator(physStart, physEnd)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var recs []storage.Record
	var curLogical []byte
	var curPresent bool
	var curValue []byte
	var curHasCandidate bool

	flush := func() {
		if curHasCandidate && curPresent {
			recs = append(recs, storage.Record{Key: append([]byte{}, curLogical...), Value: append([]byte{}, curValue...)})
		}
		curHasCandidate = false
	}

	for ; it.Valid(); it.Next() {
		logical, version, ok := splitPhysicalKey(it.Key())
		if !ok {
			continue
		}
		if curLogical == nil || !bytes.Equal(logical, curLogical) {
			flush()
			curLogical = logical
			curHasCandidate = false
		}
		if version <= r.version {
			curPresent, curValue = unwrapValue(it.Value())
			curHasCandidate = true
		}
	}
	flush()

	if reverse {
		for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
			recs[i], recs[j] = recs[j], recs[i]
		}
	}

	return &sliceIterator{recs: recs}, nil
}

// Physical values carry a one-byte presence flag so a deleted key can be
// told apart from a key whose value happens to be empty: cometbft-db's
// dbm.Batch has no notion of "write a tombstone that still sorts/iterates
// like a normal entry", so entries are wrapped rather than left raw.
const (
	flagTombstone byte = 0x00
	flagPresent   byte = 0x01
)

func wrapPresent(value []byte) []byte {
	return append([]byte{flagPresent}, value...)
}

func wrapTombstone() []byte {
	return []byte{flagTombstone}
}

func unwrapValue(raw []byte) (present bool, value []byte) {
	if len(raw) == 0 || raw[0] == flagTombstone {
		return false, nil
	}
	return true, raw[1:]
}

var errReadOnlyStore = errReadOnly("db: state view is read-only; stage writes through a Batch")

type errReadOnly string

func (e errReadOnly) Error() string { return string(e) }

func splitPhysicalKey(phys []byte) (logical []byte, version uint64, ok bool) {
	if len(phys) < len(nsState) {
		return nil, 0, false
	}
	rest := phys[len(nsState):]
	if len(rest) < 9 {
		return nil, 0, false
	}
	sepIdx := len(rest) - 9
	if rest[sepIdx] != versionSep {
		return nil, 0, false
	}
	logical = rest[:sepIdx]
	version = beUint64(rest[sepIdx+1:])
	return logical, version, true
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b[:8] {
		v = v<<8 | uint64(c)
	}
	return v
}

func incrementBytes(key []byte) []byte {
	out := append([]byte{}, key...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] < 0xff {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}

type sliceIterator struct {
	recs []storage.Record
	pos  int
}

func (s *sliceIterator) Valid() bool   { return s.pos < len(s.recs) }
func (s *sliceIterator) Next()         { s.pos++ }
func (s *sliceIterator) Key() []byte   { return s.recs[s.pos].Key }
func (s *sliceIterator) Value() []byte { return s.recs[s.pos].Value }
func (s *sliceIterator) Close() error  { return nil }
