package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	abcitypes "github.com/cometbft/cometbft/abci/types"

	"github.com/certen-labs/chainkit/pkg/events"
)

type recordingIndexer struct {
	heights []uint64
	counts  []int
}

func (r *recordingIndexer) IndexBlock(ctx context.Context, height uint64, flat []events.FlatEvent) error {
	r.heights = append(r.heights, height)
	r.counts = append(r.counts, len(flat))
	return nil
}

func TestFinalizeBlockIndexesEmittedEvents(t *testing.T) {
	a, _, walletHash, counterHash := newTestApp(t)
	idx := &recordingIndexer{}
	a.SetIndexer(idx)

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
	if _, err := a.InitChain(ctx, &abcitypes.RequestInitChain{ChainId: "test-1", Time: time.Unix(1000, 0), InitialHeight: 1, AppStateBytes: raw}); err != nil {
		t.Fatalf("InitChain: %v", err)
	}

	tx := wireTx{Sender: sender, GasLimit: 1_000_000, Msgs: []wireMessage{{Target: counter, EntryPoint: "execute"}}}
	txBytes, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal tx: %v", err)
	}
	if _, err := a.FinalizeBlock(ctx, &abcitypes.RequestFinalizeBlock{Height: 1, Time: time.Unix(1001, 0), Txs: [][]byte{txBytes}}); err != nil {
		t.Fatalf("FinalizeBlock: %v", err)
	}

	if len(idx.heights) != 1 || idx.heights[0] != 1 {
		t.Fatalf("expected IndexBlock called once for height 1, got %+v", idx.heights)
	}
	if idx.counts[0] == 0 {
		t.Fatalf("expected at least one indexed event from the counter's \"incremented\" event")
	}
}
