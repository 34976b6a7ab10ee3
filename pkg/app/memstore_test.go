package app

import (
	"sort"

	"github.com/certen-labs/chainkit/pkg/storage"
)

// memStore is a minimal in-memory storage.KVStore for exercising pkg/app
// without a real pkg/db.DB, mirroring pkg/storage's own memstore_test.go
// helper of the same shape.
type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (m *memStore) Get(key []byte) ([]byte, error) {
	v, ok := m.data[string(key)]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (m *memStore) Has(key []byte) (bool, error) {
	_, ok := m.data[string(key)]
	return ok, nil
}

func (m *memStore) Set(key, value []byte) error {
	m.data[string(key)] = append([]byte{}, value...)
	return nil
}

func (m *memStore) Delete(key []byte) error {
	delete(m.data, string(key))
	return nil
}

func (m *memStore) sortedKeys(start, end []byte) []string {
	var keys []string
	for k := range m.data {
		if start != nil && k < string(start) {
			continue
		}
		if end != nil && k >= string(end) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *memStore) Iterator(start, end []byte) (storage.Iterator, error) {
	return &memIterator{m: m, keys: m.sortedKeys(start, end)}, nil
}

func (m *memStore) ReverseIterator(start, end []byte) (storage.Iterator, error) {
	keys := m.sortedKeys(start, end)
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return &memIterator{m: m, keys: keys}, nil
}

type memIterator struct {
	m    *memStore
	keys []string
	pos  int
}

func (it *memIterator) Valid() bool   { return it.pos < len(it.keys) }
func (it *memIterator) Next()         { it.pos++ }
func (it *memIterator) Key() []byte   { return []byte(it.keys[it.pos]) }
func (it *memIterator) Value() []byte { return it.m.data[it.keys[it.pos]] }
func (it *memIterator) Close() error  { return nil }
