package storage

import (
	"encoding/binary"
	"fmt"
)

// Counter is a monotonically-adjustable uint64 stored at a fixed key, used
// for things like the next code-ID sequence or per-account nonces outside
// the account contract's own storage.
type Counter struct {
	key []byte
}

func NewCounter(key string) Counter {
	return Counter{key: []byte(key)}
}

func (c Counter) Load(store KVStore) (uint64, error) {
	raw, err := store.Get(c.key)
	if err != nil {
		return 0, fmt.Errorf("storage: counter %q: %w", c.key, err)
	}
	if raw == nil {
		return 0, nil
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("storage: counter %q: corrupt value length %d", c.key, len(raw))
	}
	return binary.BigEndian.Uint64(raw), nil
}

func (c Counter) save(store KVStore, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	if err := store.Set(c.key, buf[:]); err != nil {
		return fmt.Errorf("storage: counter %q: %w", c.key, err)
	}
	return nil
}

// Incr loads the current value, adds delta, stores and returns the new
// value.
func (c Counter) Incr(store KVStore, delta uint64) (uint64, error) {
	cur, err := c.Load(store)
	if err != nil {
		return 0, err
	}
	next := cur + delta
	if err := c.save(store, next); err != nil {
		return 0, err
	}
	return next, nil
}
