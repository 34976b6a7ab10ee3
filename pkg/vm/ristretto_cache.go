package vm

import (
	"github.com/dgraph-io/ristretto"
)

// ModuleCache memoizes whatever a Vm implementation derives from a
// Program's raw bytes before it can build an Instance -- for a Wasm engine
// that's the compiled module; for the test VM it's a no-op, since
// testvm.Register already keeps contracts resident. The host-level import
// surface types (Sha256/Blake3/crypto verifies) don't belong here: this
// cache only ever holds compiled-program artifacts, not contract state.
//
// Backed by ristretto rather than a plain map so repeated code hashes
// under load get an admission/eviction policy instead of unbounded growth,
// the same role the teacher's pack gives ristretto as an indirect
// dependency of its storage stack.
type ModuleCache struct {
	cache *ristretto.Cache
}

// NewModuleCache builds a cache sized for maxCost bytes of compiled
// modules (ristretto's NumCounters convention is ~10x the expected number
// of distinct keys tracked).
func NewModuleCache(maxCost int64) (*ModuleCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxCost / 100,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &ModuleCache{cache: c}, nil
}

// Get returns the cached compiled module for codeHash, if present.
func (m *ModuleCache) Get(codeHash []byte) (any, bool) {
	return m.cache.Get(codeHash)
}

// Set stores compiled for codeHash, weighted by cost (typically the
// compiled module's size in bytes).
func (m *ModuleCache) Set(codeHash []byte, compiled any, cost int64) {
	m.cache.Set(codeHash, compiled, cost)
}

// Del evicts codeHash, used when a code is pruned (SPEC_FULL.md's
// Orphaned{since} retention window expiring).
func (m *ModuleCache) Del(codeHash []byte) {
	m.cache.Del(codeHash)
}

func (m *ModuleCache) Close() {
	m.cache.Close()
}
