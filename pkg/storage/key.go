package storage

import "encoding/binary"

// PrimaryKey is implemented by every type usable as a Map/IndexedMap key.
// RawKey returns the segments that make up the key (e.g. a pair key returns
// two segments); ParseKey reconstructs a typed key from the joined bytes
// produced by JoinKey, which range iteration needs to hand typed keys back
// to callers.
type PrimaryKey[T any] interface {
	RawKey() [][]byte
	ParseKey(joined []byte) (T, error)
}

// JoinKey concatenates key segments the way CosmWasm/"grug" composite keys
// do: every segment but the last is prefixed with its length as a 2-byte
// big-endian integer, so a multi-segment key can be split back into its
// parts and so prefix scans over the first N segments are unambiguous.
// Grounded on original_source/crates/storage's key-encoding module list
// (bound.rs's joined_key/joined_prefix helpers operate on exactly this
// encoding).
func JoinKey(segments [][]byte) []byte {
	if len(segments) == 1 {
		return segments[0]
	}
	var out []byte
	for i, seg := range segments {
		if i < len(segments)-1 {
			var lenBuf [2]byte
			binary.BigEndian.PutUint16(lenBuf[:], uint16(len(seg)))
			out = append(out, lenBuf[:]...)
		}
		out = append(out, seg...)
	}
	return out
}

// SplitKey reverses JoinKey for a key known to have n segments.
func SplitKey(joined []byte, n int) ([][]byte, error) {
	if n == 1 {
		return [][]byte{joined}, nil
	}
	segments := make([][]byte, 0, n)
	rest := joined
	for i := 0; i < n-1; i++ {
		if len(rest) < 2 {
			return nil, errKeyTooShort
		}
		segLen := int(binary.BigEndian.Uint16(rest[:2]))
		rest = rest[2:]
		if len(rest) < segLen {
			return nil, errKeyTooShort
		}
		segments = append(segments, rest[:segLen])
		rest = rest[segLen:]
	}
	segments = append(segments, rest)
	return segments, nil
}

// RawBytesKey adapts a plain []byte (or anything that stringifies to a
// stable encoding) into a single-segment PrimaryKey, used for Maps keyed by
// addresses, hashes, and other opaque byte strings.
type RawBytesKey []byte

func (k RawBytesKey) RawKey() [][]byte { return [][]byte{k} }

func (RawBytesKey) ParseKey(joined []byte) (RawBytesKey, error) {
	return RawBytesKey(joined), nil
}

// StringKey adapts a string into a single-segment PrimaryKey.
type StringKey string

func (k StringKey) RawKey() [][]byte { return [][]byte{[]byte(k)} }

func (StringKey) ParseKey(joined []byte) (StringKey, error) {
	return StringKey(joined), nil
}

// Uint64Key adapts a uint64 into a single-segment, big-endian-encoded
// PrimaryKey so lexicographic byte order matches numeric order.
type Uint64Key uint64

func (k Uint64Key) RawKey() [][]byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(k))
	return [][]byte{buf[:]}
}

func (Uint64Key) ParseKey(joined []byte) (Uint64Key, error) {
	if len(joined) != 8 {
		return 0, errKeyTooShort
	}
	return Uint64Key(binary.BigEndian.Uint64(joined)), nil
}

// Pair is a two-segment composite key, e.g. (Addr, Denom) for balances or
// (Timestamp, Addr) for the cronjob schedule in crates/app/src/state.rs's
// NEXT_CRONJOBS set.
type Pair[A PrimaryKey[A], B PrimaryKey[B]] struct {
	First  A
	Second B
}

func NewPair[A PrimaryKey[A], B PrimaryKey[B]](a A, b B) Pair[A, B] {
	return Pair[A, B]{First: a, Second: b}
}

func (p Pair[A, B]) RawKey() [][]byte {
	out := p.First.RawKey()
	out = append(out, p.Second.RawKey()...)
	return out
}

// ParseKey implements PrimaryKey[Pair[A, B]] for the common case where A is
// a single-segment key type (RawBytesKey, StringKey, Uint64Key all are),
// delegating to ParseKeyN(joined, 1). A Pair whose first element is itself
// multi-segment needs to call ParseKeyN directly instead.
func (p Pair[A, B]) ParseKey(joined []byte) (Pair[A, B], error) {
	return p.ParseKeyN(joined, 1)
}

// ParseKeyN reconstructs a Pair from a joined key, given the caller tells it
// how many segments the first element consumes (most callers know this
// statically, e.g. Uint64Key always consumes exactly one).
func (p Pair[A, B]) ParseKeyN(joined []byte, firstSegments int) (Pair[A, B], error) {
	totalGuess := firstSegments + 1
	segments, err := SplitKey(joined, totalGuess)
	if err != nil {
		return Pair[A, B]{}, err
	}
	a, err := p.First.ParseKey(JoinKey(segments[:firstSegments]))
	if err != nil {
		return Pair[A, B]{}, err
	}
	b, err := p.Second.ParseKey(JoinKey(segments[firstSegments:]))
	if err != nil {
		return Pair[A, B]{}, err
	}
	return Pair[A, B]{First: a, Second: b}, nil
}

type errString string

func (e errString) Error() string { return string(e) }

const errKeyTooShort = errString("storage: key too short to decode")
