package app

import "github.com/certen-labs/chainkit/pkg/db"

// BatchAdapter satisfies Writer over a *db.Batch, whose Set/Delete don't
// return an error since staging into an in-memory batch cannot fail.
type BatchAdapter struct {
	Batch *db.Batch
}

func (a BatchAdapter) Set(key, value []byte) error {
	a.Batch.Set(key, value)
	return nil
}

func (a BatchAdapter) Delete(key []byte) error {
	a.Batch.Delete(key)
	return nil
}
