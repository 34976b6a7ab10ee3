package vm

import "github.com/certen-labs/chainkit/pkg/storage"

// Program is whatever a concrete Vm needs to build an Instance: Wasm bytes
// for the Wasm engine, or a code-hash lookup key into an in-process
// contract registry for the test VM. The state machine never inspects
// Program itself, only builds one from the target account's CodeHash and
// passes it through to the Vm it has chosen
// at construction, per SPEC_FULL.md's "Dynamic dispatch across contract
// code" redesign note.
type Program struct {
	CodeHash []byte
	Bytes    []byte
}

// Vm is the capability the state machine holds: something that can build a
// runnable Instance from a sub-store, a query provider, and a program.
// Grounded on original_source/crates/app/src/vm.rs's create_vm_instance and
// the redesign note's "VM capability: build_instance(storage, querier,
// program) -> Instance".
type Vm interface {
	BuildInstance(store storage.KVStore, querier QueryProvider, program Program) (Instance, error)
}

// Instance is one contract invocation's runnable handle: Call dispatches to
// the named exported entry point (instantiate, execute, migrate, query,
// authenticate, backrun, reply, receive, bank_execute, bank_query,
// withhold_fee, finalize_fee, cron_execute) under gas metering.
type Instance interface {
	Call(entryPoint string, ctx Context, meter *Meter, msg []byte) (Response, error)
}
