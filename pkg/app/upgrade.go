package app

import (
	"fmt"

	"github.com/certen-labs/chainkit/pkg/storage"
)

// UpgradeHandler performs a state migration at a specific height, run once
// before that height's block is otherwise processed. It is the only code
// path permitted to write outside a contract's own sub-store, mirroring
// original_source/crates/app/src/upgrade.rs's "upgrades are the escape
// hatch for changes the contract model itself can't express".
type UpgradeHandler func(store storage.KVStore, block BlockInfo) error

// UpgradeRegistry maps an upgrade's trigger height to its handler. Heights
// are registered once at App construction time from the node's compiled-in
// upgrade list, never learned from chain state, so a binary either knows
// about an upgrade or it doesn't -- there is no way to inject one at
// runtime.
type UpgradeRegistry struct {
	handlers map[uint64]UpgradeHandler
}

func NewUpgradeRegistry() *UpgradeRegistry {
	return &UpgradeRegistry{handlers: make(map[uint64]UpgradeHandler)}
}

func (r *UpgradeRegistry) Register(height uint64, handler UpgradeHandler) {
	r.handlers[height] = handler
}

// RunDue executes the handler registered for height, if any, returning
// whether one ran.
func (r *UpgradeRegistry) RunDue(store storage.KVStore, height uint64, block BlockInfo) (bool, error) {
	handler, ok := r.handlers[height]
	if !ok {
		return false, nil
	}
	if err := handler(store, block); err != nil {
		return true, fmt.Errorf("app: upgrade at height %d: %w", height, err)
	}
	return true, nil
}
