// Package app implements the deterministic state machine SPEC_FULL.md calls
// C5: it owns the block lifecycle (PrepareProposal/ProcessProposal/
// FinalizeBlock/Commit/CheckTx/Query/InitChain), the per-tx pipeline
// (withhold fee -> authenticate -> execute -> backrun -> finalize fee), and
// the reserved chain-level state every message type reads or mutates.
// Generalized from the teacher's pkg/consensus (ValidatorApp's ABCI
// lifecycle, mutex-guarded single-app-instance shape) into a contract-host
// driven state machine instead of a fixed ValidatorBlock schema.
package app

// Config is chain-level configuration, grounded on
// original_source/contracts/taxman/src/types.rs's Config (fee_denom,
// fee_rate) combined with the account/bank/taxman addresses every grug-like
// chain config carries.
type Config struct {
	Owner      []byte
	Bank       []byte
	Taxman     []byte
	FeeDenom   string
	MaxTxBytes uint64
}

// Account is per-address metadata, grounded on
// original_source/crates/std/src/types/account.rs's Account{code_hash, admin}.
type Account struct {
	CodeHash []byte
	Admin    []byte
}

// BlockInfo mirrors grug_types::BlockInfo as surfaced through
// original_source/grug/httpd/src/graphql/types/status.rs's BlockInfo.
type BlockInfo struct {
	Height    uint64
	Timestamp int64 // unix seconds, UTC
	Hash      []byte
}

// CodeStatus distinguishes code blobs still referenced by at least one
// account from ones eligible for pruning, per spec.md's "Code" type:
// "Codes carry a status Orphaned{since} or InUse{usage}; a code may be
// pruned only when orphaned past a retention window."
type CodeStatus int

const (
	CodeInUse CodeStatus = iota
	CodeOrphaned
)

type CodeMeta struct {
	Status     CodeStatus
	OrphanedAt uint64 // block height at which usage dropped to zero; meaningless if InUse
	UsageCount uint32
}
