package db

import (
	dbm "github.com/cometbft/cometbft-db"
)

// backend wraps a cometbft-db dbm.DB, generalizing the teacher's
// pkg/kvdb.KVAdapter (which wrapped the same interface for a single flat
// ledger) into the raw physical-key layer underneath the versioned store.
// SetSync is used for durability at commit time exactly as the teacher did.
type backend struct {
	db dbm.DB
}

func newBackend(underlying dbm.DB) *backend {
	return &backend{db: underlying}
}

func (b *backend) get(key []byte) ([]byte, error) {
	return b.db.Get(key)
}

func (b *backend) has(key []byte) (bool, error) {
	return b.db.Has(key)
}

func (b *backend) setSync(key, value []byte) error {
	return b.db.SetSync(key, value)
}

func (b *backend) deleteSync(key []byte) error {
	return b.db.DeleteSync(key)
}

func (b *backend) iterator(start, end []byte) (dbm.Iterator, error) {
	return b.db.Iterator(start, end)
}

func (b *backend) reverseIterator(start, end []byte) (dbm.Iterator, error) {
	return b.db.ReverseIterator(start, end)
}

func (b *backend) newBatch() dbm.Batch {
	return b.db.NewBatch()
}

func (b *backend) close() error {
	return b.db.Close()
}
