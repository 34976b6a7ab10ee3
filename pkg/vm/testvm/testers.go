package testvm

import (
	"github.com/certen-labs/chainkit/pkg/apperrors"
	"github.com/certen-labs/chainkit/pkg/vm"
)

// InfiniteLoop ports original_source/contracts/testers/infinite-loop: its
// execute entry point never returns on its own, so the only thing that can
// stop it is the gas meter. Since a Go-native contract can't be trapped
// mid-instruction the way a Wasm engine traps on an exhausted fuel meter,
// the loop calls host.Debug once per iteration purely so each iteration
// pays (and is charged) for an import, giving OutOfGas a chance to fire;
// a real Wasm build would instead meter at instruction granularity.
func InfiniteLoop() *Contract {
	return &Contract{
		Instantiate: func(ctx vm.Context, host *vm.Host, msg []byte) (vm.Response, error) {
			return vm.NewResponse(), nil
		},
		Execute: func(ctx vm.Context, host *vm.Host, msg []byte) (vm.Response, error) {
			for {
				if err := host.Debug(ctx.Contract, "looping"); err != nil {
					return vm.Response{}, err
				}
			}
		},
	}
}

// ImmutableState ports original_source/contracts/testers/immutable-state:
// its query entry point attempts a raw db_write, which the host must
// refuse because query always runs in vm.ModeImmutable. The contract's
// execute entry point additionally demonstrates a transitive query_chain
// call landing in the same immutable context.
func ImmutableState() *Contract {
	return &Contract{
		Instantiate: func(ctx vm.Context, host *vm.Host, msg []byte) (vm.Response, error) {
			return vm.NewResponse(), nil
		},
		Execute: func(ctx vm.Context, host *vm.Host, msg []byte) (vm.Response, error) {
			if _, err := host.QueryChain(vm.QueryRequest{WasmSmart: &vm.QueryWasmSmart{Contract: ctx.Contract, Payload: msg}}); err != nil {
				return vm.Response{}, err
			}
			return vm.NewResponse(), nil
		},
		Query: func(ctx vm.Context, host *vm.Host, msg []byte) (vm.Response, error) {
			// This must fail: query runs under vm.ModeImmutable.
			if err := host.DbWrite([]byte("larry"), []byte("engineer")); err != nil {
				return vm.Response{}, err
			}
			return vm.Response{}, apperrors.New(apperrors.KindVm, "immutable-state: write import should have been refused")
		},
	}
}
