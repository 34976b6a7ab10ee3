// Package vm defines the contract host boundary described in SPEC_FULL.md
// C4: the Context/Response/SubMsg vocabulary contracts exchange with the
// state machine, the Vm/Instance capability interfaces a concrete engine
// (an in-process test VM or a Wasm runtime) must satisfy, and the gas
// metering and import-surface types shared by every engine. Grounded on
// original_source/crates/types/src/context.rs's Context union and
// crates/app/src/vm.rs's create_vm_instance.
package vm

// Mode tells the host which entry point kind is running, which in turn
// determines whether writes through the storage import are permitted. This
// generalizes the single "instantiate/execute vs query" distinction grug
// draws implicitly through ImmutableCtx/MutableCtx into an explicit field,
// since authenticate needs the narrow write carve-out SPEC_FULL.md §4.4
// describes.
type Mode int

const (
	// ModeMutable permits unrestricted storage writes: instantiate,
	// execute, migrate, reply, receive, bank_execute, finalize_fee,
	// cron_execute, withhold_fee.
	ModeMutable Mode = iota
	// ModeImmutable forbids all storage writes: query, bank_query, and any
	// contract reached transitively through query_chain.
	ModeImmutable
	// ModeAuthenticate permits writes only to keys that begin with the
	// contract's reserved "_nonce" prefix, per DESIGN.md's Open Question
	// decision on the authenticate-context mutation rule.
	ModeAuthenticate
)

// NonceKey is the key prefix ModeAuthenticate allows writes under.
var NonceKey = []byte("_nonce")

// Context is the union of all context types passed into a contract call,
// mirroring original_source/crates/types/src/context.rs's Context struct
// field for field.
type Context struct {
	ChainID        string
	BlockHeight    uint64
	BlockTimestamp int64 // unix seconds, UTC
	BlockHash      []byte
	Contract       []byte // the callee's address
	Sender         []byte // nil if the entry point has no caller (e.g. cron)
	Funds          Coins
	Simulate       bool
	Mode           Mode
	// Depth is the current sub-message/transitive-call nesting depth,
	// starting at 0 for the top-level entry point call. An Instance
	// refuses the call once Depth reaches MaxCallDepth.
	Depth int
}

// Coin is a single denom/amount pair; Coins is a sorted-by-denom list, the
// same shape the teacher's and the pack's fee/balance code assumes.
type Coin struct {
	Denom  string
	Amount uint64
}

type Coins []Coin

// AmountOf returns the amount of denom held, or 0 if absent.
func (c Coins) AmountOf(denom string) uint64 {
	for _, coin := range c {
		if coin.Denom == denom {
			return coin.Amount
		}
	}
	return 0
}
