package app

import (
	"github.com/certen-labs/chainkit/pkg/storage"
	"github.com/certen-labs/chainkit/pkg/vm"
)

// Simulate runs tx's full withhold_fee -> authenticate -> execute ->
// backrun -> finalize_fee pipeline against an ephemeral CacheStore layered
// over the chain's latest committed state, discarding every write it makes.
// It exists purely to estimate gas before a transaction is actually
// broadcast, per SPEC_FULL.md §7's "external query paths" note that
// simulation must never touch committed state.
func Simulate(latest storage.KVStore, engine vm.Vm, block BlockInfo, chainID string, tx Tx) TxResult {
	scratch := NewCacheStore(latest)
	qp := &QueryProvider{Store: scratch, Engine: engine, Block: block, ChainID: chainID}
	qp.Querier = qp
	return newTxPipeline(scratch, engine, qp, block, chainID).RunTx(scratch, tx, true)
}
