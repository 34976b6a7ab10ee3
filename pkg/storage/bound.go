package storage

// Bound delimits one side of a range scan. It mirrors
// original_source/crates/storage/src/bound.rs's RawBound enum
// (Inclusive/Exclusive over a raw key) generalized with an explicit
// Unbounded case, since Go has no Option<T> to express "no bound" for free.
type Bound struct {
	kind  boundKind
	value []byte
}

type boundKind int

const (
	boundUnbounded boundKind = iota
	boundInclusive
	boundExclusive
)

func Unbounded() Bound {
	return Bound{kind: boundUnbounded}
}

func Inclusive[K PrimaryKey[K]](key K) Bound {
	return Bound{kind: boundInclusive, value: JoinKey(key.RawKey())}
}

func Exclusive[K PrimaryKey[K]](key K) Bound {
	return Bound{kind: boundExclusive, value: JoinKey(key.RawKey())}
}

// PrefixBound builds a bound from a raw prefix rather than a full key,
// mirroring bound.rs's PrefixBound<K>::joined_prefix: used to bound a
// sub-range scan to all keys sharing a given leading segment.
func PrefixInclusive(prefix []byte) Bound {
	return Bound{kind: boundInclusive, value: prefix}
}

func PrefixExclusive(prefix []byte) Bound {
	return Bound{kind: boundExclusive, value: prefix}
}

// startBytes returns the raw lower-bound byte key to pass to KVStore.Iterator
// for an ascending scan starting at this Bound.
func (b Bound) startBytes() []byte {
	switch b.kind {
	case boundUnbounded:
		return nil
	case boundInclusive:
		return b.value
	case boundExclusive:
		return append(append([]byte{}, b.value...), 0x00)
	default:
		return nil
	}
}

// endBytesExclusive returns the raw upper-bound byte key (exclusive, as
// KVStore.Iterator expects) for an ascending scan ending at this Bound.
func (b Bound) endBytesExclusive() []byte {
	switch b.kind {
	case boundUnbounded:
		return nil
	case boundInclusive:
		return incrementKey(b.value)
	case boundExclusive:
		return b.value
	default:
		return nil
	}
}

// incrementKey returns the smallest byte string strictly greater than key
// that does not share key as a prefix-preserving predecessor, used to turn
// an inclusive upper bound into cometbft-db's exclusive-end convention.
func incrementKey(key []byte) []byte {
	out := append([]byte{}, key...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] < 0xff {
			out[i]++
			return out[:i+1]
		}
	}
	// all 0xff: no exclusive upper bound exists, so return nil (unbounded).
	return nil
}
