package app

import (
	"errors"
	"testing"

	"github.com/certen-labs/chainkit/pkg/events"
	"github.com/certen-labs/chainkit/pkg/storage"
	"github.com/certen-labs/chainkit/pkg/vm"
	"github.com/certen-labs/chainkit/pkg/vm/testvm"
)

var errFailingExecute = errors.New("execute always fails")

func newTestEngine() (*testvm.VM, []byte, []byte) {
	engine := testvm.New()
	walletHash := []byte("wallet-code")
	counterHash := []byte("counter-code")

	engine.Register(walletHash, &testvm.Contract{
		Authenticate: func(ctx vm.Context, host *vm.Host, msg []byte) (vm.Response, error) {
			return vm.NewResponse(), nil
		},
	})
	engine.Register(counterHash, &testvm.Contract{
		Execute: func(ctx vm.Context, host *vm.Host, msg []byte) (vm.Response, error) {
			cur, err := host.DbRead([]byte("count"))
			if err != nil {
				return vm.Response{}, err
			}
			next := byte(0)
			if len(cur) == 1 {
				next = cur[0]
			}
			next++
			if err := host.DbWrite([]byte("count"), []byte{next}); err != nil {
				return vm.Response{}, err
			}
			return vm.NewResponse().WithEvent(events.New("incremented")), nil
		},
	})
	return engine, walletHash, counterHash
}

func newTestPipeline(t *testing.T, engine vm.Vm, sender, target []byte) (*memStore, *txPipeline) {
	t.Helper()
	store := newMemStore()
	if err := ChainConfig.Save(store, Config{}); err != nil {
		t.Fatalf("ChainConfig.Save: %v", err)
	}
	block := BlockInfo{Height: 1, Timestamp: 1000}
	qp := &QueryProvider{Store: store, Engine: engine, Block: block, ChainID: "test"}
	qp.Querier = qp
	return store, newTxPipeline(store, engine, qp, block, "test")
}

func TestRunTxExecutesMessageAndCommitsState(t *testing.T) {
	engine, walletHash, counterHash := newTestEngine()
	sender := []byte("wallet-1")
	counter := []byte("counter-1")

	store, pipeline := newTestPipeline(t, engine, sender, counter)
	if err := Accounts.Save(store, storage.RawBytesKey(sender), Account{CodeHash: walletHash}); err != nil {
		t.Fatalf("Accounts.Save(sender): %v", err)
	}
	if err := Accounts.Save(store, storage.RawBytesKey(counter), Account{CodeHash: counterHash}); err != nil {
		t.Fatalf("Accounts.Save(counter): %v", err)
	}

	tx := Tx{
		Sender:   sender,
		GasLimit: 1_000_000,
		Msgs:     []vm.Message{{Target: counter, EntryPoint: "execute"}},
	}
	result := pipeline.RunTx(store, tx, false)
	if !result.Success {
		t.Fatalf("RunTx failed: %+v", result.Error)
	}

	sub := ContractSubstore(store, counter)
	got, err := sub.Get([]byte("count"))
	if err != nil {
		t.Fatalf("read counter state: %v", err)
	}
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("counter state = %v, want [1]", got)
	}
}

func TestRunTxFailsWhenAuthenticateMissing(t *testing.T) {
	engine, _, counterHash := newTestEngine()
	sender := []byte("unregistered-sender")
	counter := []byte("counter-1")

	store, pipeline := newTestPipeline(t, engine, sender, counter)
	if err := Accounts.Save(store, storage.RawBytesKey(counter), Account{CodeHash: counterHash}); err != nil {
		t.Fatalf("Accounts.Save(counter): %v", err)
	}
	// sender account is never registered, so Accounts.Load in authenticate fails.

	tx := Tx{Sender: sender, GasLimit: 1_000_000, Msgs: []vm.Message{{Target: counter, EntryPoint: "execute"}}}
	result := pipeline.RunTx(store, tx, false)
	if result.Success {
		t.Fatalf("expected RunTx to fail for an unknown sender")
	}

	sub := ContractSubstore(store, counter)
	if got, _ := sub.Get([]byte("count")); got != nil {
		t.Fatalf("expected no state change on auth failure, got %v", got)
	}
}

func TestRunTxFailingMessageRevertsWholeTx(t *testing.T) {
	engine, walletHash, counterHash := newTestEngine()
	engine.Register([]byte("fail-code"), &testvm.Contract{
		Execute: func(ctx vm.Context, host *vm.Host, msg []byte) (vm.Response, error) {
			return vm.Response{}, errFailingExecute
		},
	})

	sender := []byte("wallet-1")
	counter := []byte("counter-1")
	failing := []byte("failing-1")

	store, pipeline := newTestPipeline(t, engine, sender, counter)
	if err := Accounts.Save(store, storage.RawBytesKey(sender), Account{CodeHash: walletHash}); err != nil {
		t.Fatalf("Accounts.Save(sender): %v", err)
	}
	if err := Accounts.Save(store, storage.RawBytesKey(counter), Account{CodeHash: counterHash}); err != nil {
		t.Fatalf("Accounts.Save(counter): %v", err)
	}
	if err := Accounts.Save(store, storage.RawBytesKey(failing), Account{CodeHash: []byte("fail-code")}); err != nil {
		t.Fatalf("Accounts.Save(failing): %v", err)
	}

	tx := Tx{
		Sender:   sender,
		GasLimit: 1_000_000,
		Msgs: []vm.Message{
			{Target: counter, EntryPoint: "execute"},
			{Target: failing, EntryPoint: "execute"},
		},
	}
	result := pipeline.RunTx(store, tx, false)
	if result.Success {
		t.Fatalf("expected RunTx to fail: one of its messages errored")
	}

	sub := ContractSubstore(store, counter)
	if got, _ := sub.Get([]byte("count")); got != nil {
		t.Fatalf("expected the whole tx-level cache discarded, got counter state %v", got)
	}
}
