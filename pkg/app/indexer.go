package app

import (
	"context"

	"github.com/certen-labs/chainkit/pkg/events"
)

// EventIndexer is the capability pkg/indexer.Indexer satisfies: persist one
// finalized block's flattened events for off-chain query. App depends on
// the interface rather than the concrete type so tests and a node running
// without CHAIND_INDEXER_DSN never need a real Postgres connection.
type EventIndexer interface {
	IndexBlock(ctx context.Context, height uint64, flat []events.FlatEvent) error
}

// SetIndexer attaches an event indexer to the app; nil (the default)
// disables indexing entirely.
func (a *App) SetIndexer(idx EventIndexer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.indexer = idx
}
