// Package testvm is the in-process Go-native contract engine SPEC_FULL.md
// §4.4 calls for alongside the Wasm engine: contracts are plain Go
// functions registered by code hash instead of compiled bytecode, letting
// the state machine and its tests run without a Wasm runtime. Grounded on
// original_source/crates/testing/src/vm.rs (a Rust-closures-as-contracts
// test VM playing the same role for the Rust app crate) and the tester
// contracts under original_source/contracts/testers/{infinite-loop,
// immutable-state}.
package testvm

import (
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/certen-labs/chainkit/pkg/apperrors"
	"github.com/certen-labs/chainkit/pkg/storage"
	"github.com/certen-labs/chainkit/pkg/vm"
)

// EntryFunc is one exported entry point's Go implementation.
type EntryFunc func(ctx vm.Context, host *vm.Host, msg []byte) (vm.Response, error)

// Contract is the full set of entry points a registered program may
// implement; a nil field means the contract doesn't export that entry
// point, matching how a Wasm module may simply omit an export.
type Contract struct {
	Instantiate  EntryFunc
	Execute      EntryFunc
	Migrate      EntryFunc
	Query        EntryFunc
	Authenticate EntryFunc
	Backrun      EntryFunc
	Reply        EntryFunc
	Receive      EntryFunc
	BankExecute  EntryFunc
	BankQuery    EntryFunc
	WithholdFee  EntryFunc
	FinalizeFee  EntryFunc
	CronExecute  EntryFunc
}

func (c *Contract) entry(name string) EntryFunc {
	switch name {
	case "instantiate":
		return c.Instantiate
	case "execute":
		return c.Execute
	case "migrate":
		return c.Migrate
	case "query":
		return c.Query
	case "authenticate":
		return c.Authenticate
	case "backrun":
		return c.Backrun
	case "reply":
		return c.Reply
	case "receive":
		return c.Receive
	case "bank_execute":
		return c.BankExecute
	case "bank_query":
		return c.BankQuery
	case "withhold_fee":
		return c.WithholdFee
	case "finalize_fee":
		return c.FinalizeFee
	case "cron_execute":
		return c.CronExecute
	default:
		return nil
	}
}

// VM implements vm.Vm by resolving Program.CodeHash against a registry of
// Contract values installed with Register.
type VM struct {
	mu       sync.RWMutex
	programs map[string]*Contract
}

func New() *VM {
	return &VM{programs: make(map[string]*Contract)}
}

// Register installs contract under codeHash. Tests and genesis wiring call
// this instead of uploading Wasm bytes: codeHash stands in for the content
// hash a real upload-code message would have computed from the bytecode.
func (v *VM) Register(codeHash []byte, contract *Contract) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.programs[hex.EncodeToString(codeHash)] = contract
}

func (v *VM) BuildInstance(store storage.KVStore, querier vm.QueryProvider, program vm.Program) (vm.Instance, error) {
	v.mu.RLock()
	contract, ok := v.programs[hex.EncodeToString(program.CodeHash)]
	v.mu.RUnlock()
	if !ok {
		return nil, apperrors.New(apperrors.KindVm, fmt.Sprintf("testvm: no contract registered for code hash %x", program.CodeHash))
	}
	return &instance{contract: contract, store: store, querier: querier}, nil
}

type instance struct {
	contract *Contract
	store    storage.KVStore
	querier  vm.QueryProvider
}

func (i *instance) Call(entryPoint string, ctx vm.Context, meter *vm.Meter, msg []byte) (vm.Response, error) {
	if ctx.Depth >= vm.MaxCallDepth {
		return vm.Response{}, apperrors.Wrap(apperrors.KindVm, "max call depth reached", apperrors.ErrReentrancy)
	}
	fn := i.contract.entry(entryPoint)
	if fn == nil {
		return vm.Response{}, apperrors.New(apperrors.KindVm, fmt.Sprintf("testvm: contract exports no %q entry point", entryPoint))
	}
	host := vm.NewHost(i.store, i.querier, meter, ctx.Mode)
	defer host.Close()
	return fn(ctx, host, msg)
}
