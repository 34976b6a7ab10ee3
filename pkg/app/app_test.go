package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft-db/memdb"
	"go.uber.org/zap"

	"github.com/certen-labs/chainkit/pkg/db"
	"github.com/certen-labs/chainkit/pkg/vm"
	"github.com/certen-labs/chainkit/pkg/vm/testvm"
)

func newTestApp(t *testing.T) (*App, *testvm.VM, []byte, []byte) {
	t.Helper()
	store, err := db.Open(memdb.NewMemDB())
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	engine, walletHash, counterHash := newTestEngine()
	a := NewApp(zap.NewNop(), "test-1", store, engine, nil, nil)
	return a, engine, walletHash, counterHash
}

func TestInitChainThenFinalizeBlockThenCommit(t *testing.T) {
	a, _, walletHash, counterHash := newTestApp(t)
	sender := []byte("wallet-1")
	counter := []byte("counter-1")

	gen := Genesis{
		ChainID: "test-1",
		Accounts: []GenesisAccount{
			{Address: sender, CodeHash: walletHash},
			{Address: counter, CodeHash: counterHash},
		},
	}
	raw, err := json.Marshal(gen)
	if err != nil {
		t.Fatalf("marshal genesis: %v", err)
	}

	ctx := context.Background()
	if _, err := a.InitChain(ctx, &abcitypes.RequestInitChain{
		ChainId:       "test-1",
		Time:          time.Unix(1000, 0),
		InitialHeight: 1,
		AppStateBytes: raw,
	}); err != nil {
		t.Fatalf("InitChain: %v", err)
	}

	tx := wireTx{
		Sender:   sender,
		GasLimit: 1_000_000,
		Msgs:     []wireMessage{{Target: counter, EntryPoint: "execute"}},
	}
	txBytes, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal tx: %v", err)
	}

	resp, err := a.FinalizeBlock(ctx, &abcitypes.RequestFinalizeBlock{
		Height: 1,
		Time:   time.Unix(1001, 0),
		Txs:    [][]byte{txBytes},
	})
	if err != nil {
		t.Fatalf("FinalizeBlock: %v", err)
	}
	if len(resp.TxResults) != 1 || resp.TxResults[0].Code != 0 {
		t.Fatalf("FinalizeBlock tx result: %+v", resp.TxResults)
	}
	if len(resp.AppHash) == 0 {
		t.Fatalf("expected a non-empty app hash from FinalizeBlock")
	}

	if _, err := a.Commit(ctx, &abcitypes.RequestCommit{}); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	info, err := a.Info(ctx, &abcitypes.RequestInfo{})
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.LastBlockHeight != 1 {
		t.Fatalf("Info.LastBlockHeight = %d, want 1", info.LastBlockHeight)
	}

	qresp, err := a.Query(ctx, &abcitypes.RequestQuery{Path: "/config"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if qresp.Code != 0 {
		t.Fatalf("Query(/config) code = %d, log = %q", qresp.Code, qresp.Log)
	}
}

func TestInitChainRunsGenesisMessages(t *testing.T) {
	a, engine, _, _ := newTestApp(t)
	counterHash := []byte("counter-code-genesis")
	engine.Register(counterHash, &testvm.Contract{
		Instantiate: func(ctx vm.Context, host *vm.Host, msg []byte) (vm.Response, error) {
			return vm.NewResponse(), host.DbWrite([]byte("initialized"), []byte{1})
		},
	})

	counter := []byte("counter-1")
	gen := Genesis{
		ChainID: "test-1",
		Accounts: []GenesisAccount{
			{Address: counter, CodeHash: counterHash},
		},
		Messages: []GenesisMessage{
			{Target: counter, EntryPoint: "instantiate"},
		},
	}
	raw, err := json.Marshal(gen)
	if err != nil {
		t.Fatalf("marshal genesis: %v", err)
	}

	ctx := context.Background()
	if _, err := a.InitChain(ctx, &abcitypes.RequestInitChain{
		ChainId:       "test-1",
		Time:          time.Unix(1000, 0),
		InitialHeight: 1,
		AppStateBytes: raw,
	}); err != nil {
		t.Fatalf("InitChain: %v", err)
	}

	sub := ContractSubstore(a.store.StateStorageLatest(), counter)
	got, err := sub.Get([]byte("initialized"))
	if err != nil {
		t.Fatalf("read genesis-message state: %v", err)
	}
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("genesis message did not run: got %v", got)
	}
}
