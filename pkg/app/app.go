package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	"go.uber.org/zap"

	"github.com/certen-labs/chainkit/pkg/apperrors"
	"github.com/certen-labs/chainkit/pkg/db"
	"github.com/certen-labs/chainkit/pkg/events"
	"github.com/certen-labs/chainkit/pkg/storage"
	"github.com/certen-labs/chainkit/pkg/vm"
)

// App implements abcitypes.Application, generalizing
// pkg/consensus/ValidatorApp's ABCI lifecycle from a single
// bespoke-transaction chain into the full instantiate/execute/query
// contract-host state machine SPEC_FULL.md describes.
type App struct {
	mu sync.Mutex

	logger  *zap.Logger
	chainID string
	store   *db.DB
	engine  vm.Vm
	cfg     Config
	metrics *Metrics
	indexer EventIndexer

	upgrades *UpgradeRegistry

	// block tracks the in-flight block's header across
	// PrepareProposal/ProcessProposal/FinalizeBlock/Commit.
	block BlockInfo

	// pending is the whole-block CacheStore built in FinalizeBlock and
	// flushed into the versioned store's batch just before Commit.
	pending *CacheStore
}

// NewApp wires a store, VM engine and upgrade registry into an ABCI
// application. The logger is injected rather than looked up globally,
// matching SPEC_FULL.md's "every package-level constructor accepts an
// injected logger" rule. metrics may be nil, in which case block height,
// gas-used and tx-count observations are silently skipped -- useful for
// tests that don't want to stand up a prometheus.Registry.
func NewApp(logger *zap.Logger, chainID string, store *db.DB, engine vm.Vm, upgrades *UpgradeRegistry, metrics *Metrics) *App {
	if upgrades == nil {
		upgrades = NewUpgradeRegistry()
	}
	return &App{
		logger:   logger,
		chainID:  chainID,
		store:    store,
		engine:   engine,
		upgrades: upgrades,
		metrics:  metrics,
	}
}

func (a *App) queryProvider(view storage.KVStore) *QueryProvider {
	qp := &QueryProvider{Store: view, Engine: a.engine, Block: a.block, ChainID: a.chainID}
	qp.Querier = qp
	return qp
}

// Info reports the application's last committed height and app hash, read
// straight from LastFinalized rather than tracked separately in memory --
// the reserved state item is the single source of truth.
func (a *App) Info(ctx context.Context, req *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	info, ok, err := LastFinalized.MayLoad(a.store.StateStorageLatest())
	if err != nil {
		return nil, fmt.Errorf("app: info: %w", err)
	}
	if !ok {
		return &abcitypes.ResponseInfo{AppVersion: 1}, nil
	}
	return &abcitypes.ResponseInfo{
		LastBlockHeight:  int64(info.Height),
		LastBlockAppHash: info.Hash,
		AppVersion:       1,
	}, nil
}

// InitChain loads the genesis document's chain config and initial accounts
// into state, then runs every genesis message in order against that same
// state, per spec.md §6.
func (a *App) InitChain(ctx context.Context, req *abcitypes.RequestInitChain) (*abcitypes.ResponseInitChain, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	gen, err := ParseGenesis(req.AppStateBytes)
	if err != nil {
		return nil, fmt.Errorf("app: init_chain: %w", err)
	}
	cache := NewCacheStore(a.store.StateStorageLatest())
	if err := ApplyGenesis(cache, gen); err != nil {
		return nil, fmt.Errorf("app: init_chain: %w", err)
	}

	genesisBlock := BlockInfo{Height: uint64(req.InitialHeight) - 1, Timestamp: req.Time.Unix(), Hash: nil}
	qp := &QueryProvider{Store: cache, Engine: a.engine, Block: genesisBlock, ChainID: req.ChainId}
	qp.Querier = qp
	pipeline := newTxPipeline(cache, a.engine, qp, genesisBlock, req.ChainId)
	meter := vm.NewMeter(QueryGasLimit)
	root := events.NewFrame(events.New("genesis"))
	for i, msg := range gen.Messages {
		frame := events.NewFrame(events.New("message").WithAttribute("entry_point", msg.EntryPoint).WithAttribute("target", string(msg.Target)))
		ok := pipeline.execMessage(cache, meter, nil, vm.Message{Target: msg.Target, EntryPoint: msg.EntryPoint, Payload: msg.Payload}, frame, 0)
		root.AddChild(frame)
		if !ok {
			return nil, fmt.Errorf("app: init_chain: genesis message %d to %x failed", i, msg.Target)
		}
	}

	batch := db.NewBatch()
	if err := cache.Flush(BatchAdapter{Batch: batch}); err != nil {
		return nil, fmt.Errorf("app: init_chain: flush: %w", err)
	}
	if _, _, err := a.store.FlushButNotCommit(batch); err != nil {
		return nil, fmt.Errorf("app: init_chain: %w", err)
	}
	if _, _, err := a.store.Commit(); err != nil {
		return nil, fmt.Errorf("app: init_chain: %w", err)
	}
	a.cfg = gen.Config
	a.logger.Info("chain initialized",
		zap.String("chain_id", req.ChainId),
		zap.Int("genesis_messages", len(gen.Messages)),
		zap.Int("genesis_events", len(events.Flatten(root))),
	)
	return &abcitypes.ResponseInitChain{}, nil
}

// CheckTx runs the same pipeline FinalizeBlock does, but against a
// throwaway CacheStore that is always discarded, so mempool admission never
// touches committed state.
func (a *App) CheckTx(ctx context.Context, req *abcitypes.RequestCheckTx) (*abcitypes.ResponseCheckTx, error) {
	tx, err := DecodeTx(req.Tx)
	if err != nil {
		return &abcitypes.ResponseCheckTx{Code: 1, Log: err.Error()}, nil
	}

	a.mu.Lock()
	block := a.block
	a.mu.Unlock()

	scratch := NewCacheStore(a.store.StateStorageLatest())
	qp := a.queryProvider(scratch)
	result := newTxPipeline(scratch, a.engine, qp, block, a.chainID).RunTx(scratch, tx, true)
	if !result.Success {
		msg := "transaction failed"
		if result.Error != nil {
			msg = result.Error.Error()
		}
		return &abcitypes.ResponseCheckTx{Code: 1, Log: msg, GasUsed: int64(result.GasUsed)}, nil
	}
	return &abcitypes.ResponseCheckTx{Code: 0, GasUsed: int64(result.GasUsed), GasWanted: int64(tx.GasLimit)}, nil
}

// PrepareProposal trims the mempool's offered transactions down to
// max_tx_bytes, matching spec.md §4.5's block-assembly step.
func (a *App) PrepareProposal(ctx context.Context, req *abcitypes.RequestPrepareProposal) (*abcitypes.ResponsePrepareProposal, error) {
	a.mu.Lock()
	maxBytes := a.cfg.MaxTxBytes
	a.mu.Unlock()
	if maxBytes == 0 {
		return &abcitypes.ResponsePrepareProposal{Txs: req.Txs}, nil
	}

	var total uint64
	var kept [][]byte
	for _, tx := range req.Txs {
		total += uint64(len(tx))
		if total > maxBytes {
			break
		}
		kept = append(kept, tx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: kept}, nil
}

// ProcessProposal rejects a proposal outright if any transaction fails to
// decode; full semantic validity is left to FinalizeBlock, matching
// spec.md §4.5's "basic validity, not full execution" scoping.
func (a *App) ProcessProposal(ctx context.Context, req *abcitypes.RequestProcessProposal) (*abcitypes.ResponseProcessProposal, error) {
	for _, tx := range req.Txs {
		if _, err := DecodeTx(tx); err != nil {
			return &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}, nil
		}
	}
	return &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_ACCEPT}, nil
}

// FinalizeBlock runs any upgrade due at this height, then the transaction
// pipeline for each tx, then every due cronjob in (timestamp, addr)
// ascending order, then flushes the accumulated block batch via
// FlushButNotCommit -- Commit performs the actual durable write, per
// spec.md §4.5's two-phase block lifecycle.
func (a *App) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.block = BlockInfo{Height: uint64(req.Height), Timestamp: req.Time.Unix(), Hash: req.Hash}
	a.pending = NewCacheStore(a.store.StateStorageLatest())

	if ran, err := a.upgrades.RunDue(a.pending, uint64(req.Height), a.block); err != nil {
		return nil, fmt.Errorf("app: finalize_block: %w", err)
	} else if ran {
		a.logger.Info("upgrade applied", zap.Int64("height", req.Height))
	}

	txResults := make([]*abcitypes.ExecTxResult, len(req.Txs))
	var blockEvents []events.FlatEvent
	for i, raw := range req.Txs {
		tx, err := DecodeTx(raw)
		if err != nil {
			txResults[i] = &abcitypes.ExecTxResult{Code: 1, Log: err.Error()}
			continue
		}
		qp := a.queryProvider(a.pending)
		result := newTxPipeline(a.pending, a.engine, qp, a.block, a.chainID).RunTx(a.pending, tx, false)
		a.metrics.observeTx(result)
		blockEvents = append(blockEvents, result.Events...)
		txResults[i] = toExecTxResult(result)
	}

	if err := a.runDueCronjobs(); err != nil {
		return nil, fmt.Errorf("app: finalize_block: %w", err)
	}
	a.metrics.observeBlockHeight(a.block.Height)

	if a.indexer != nil {
		if err := a.indexer.IndexBlock(ctx, a.block.Height, blockEvents); err != nil {
			a.logger.Warn("event indexing failed", zap.Uint64("height", a.block.Height), zap.Error(err))
		}
	}

	if err := LastFinalized.Save(a.pending, a.block); err != nil {
		return nil, fmt.Errorf("app: finalize_block: %w", err)
	}

	batch := db.NewBatch()
	if err := a.pending.Flush(BatchAdapter{Batch: batch}); err != nil {
		return nil, fmt.Errorf("app: finalize_block: flush: %w", err)
	}
	root, _, err := a.store.FlushButNotCommit(batch)
	if err != nil {
		return nil, fmt.Errorf("app: finalize_block: %w", err)
	}

	return &abcitypes.ResponseFinalizeBlock{TxResults: txResults, AppHash: root}, nil
}

func (a *App) runDueCronjobs() error {
	due, err := DueCronJobs(a.pending, a.block.Timestamp)
	if err != nil {
		return err
	}
	for _, key := range due {
		contract := []byte(key.Second)
		if err := a.runCronjob(contract); err != nil {
			a.logger.Warn("cron job failed", zap.ByteString("contract", contract), zap.Error(err))
		}
		a.metrics.observeCronjob()
		if err := NextCronjobs.Remove(a.pending, key); err != nil {
			return err
		}
		if err := a.rescheduleCronjob(contract); err != nil {
			a.logger.Warn("cron reschedule failed", zap.ByteString("contract", contract), zap.Error(err))
		}
	}
	return nil
}

func (a *App) runCronjob(contract []byte) error {
	acct, err := Accounts.Load(a.pending, storage.RawBytesKey(contract))
	if err != nil {
		return err
	}
	qp := a.queryProvider(a.pending)
	instance, err := a.engine.BuildInstance(ContractSubstore(a.pending, contract), qp, vm.Program{CodeHash: acct.CodeHash})
	if err != nil {
		return err
	}
	ctx := vm.Context{
		ChainID:        a.chainID,
		BlockHeight:    a.block.Height,
		BlockTimestamp: a.block.Timestamp,
		BlockHash:      a.block.Hash,
		Contract:       contract,
		Mode:           vm.ModeMutable,
	}
	meter := vm.NewMeter(CronGasLimit)
	_, err = instance.Call("cron_execute", ctx, meter, nil)
	return err
}

// CronGasLimit bounds each cronjob's own execution, distinct from any
// transaction's declared gas limit since cronjobs have no sender to charge.
const CronGasLimit = 5_000_000

func (a *App) rescheduleCronjob(contract []byte) error {
	expr, ok, err := CronSchedules.MayLoad(a.pending, storage.RawBytesKey(contract))
	if err != nil || !ok {
		return err
	}
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return err
	}
	next := NextRun(schedule, a.block.Timestamp)
	return NextCronjobs.Insert(a.pending, NewCronKey(uint64(next), contract))
}

func toExecTxResult(result TxResult) *abcitypes.ExecTxResult {
	code := uint32(0)
	log := ""
	if !result.Success {
		code = 1
		if result.Error != nil {
			log = result.Error.Error()
		}
	}
	return &abcitypes.ExecTxResult{
		Code:    code,
		Log:     log,
		GasUsed: int64(result.GasUsed),
		Events:  toABCIEvents(result.Events),
	}
}

func toABCIEvents(flat []events.FlatEvent) []abcitypes.Event {
	out := make([]abcitypes.Event, 0, len(flat))
	for _, fe := range flat {
		attrs := make([]abcitypes.EventAttribute, 0, len(fe.Event.Attributes)+1)
		attrs = append(attrs, abcitypes.EventAttribute{Key: "path", Value: fe.Path})
		for _, at := range fe.Event.Attributes {
			attrs = append(attrs, abcitypes.EventAttribute{Key: at.Key, Value: at.Value})
		}
		out = append(out, abcitypes.Event{Type: fe.Event.Type, Attributes: attrs})
	}
	return out
}

// Commit durably writes the block batch FinalizeBlock staged and reports
// the resulting app hash, mirroring the two-step
// FlushButNotCommit/Commit handoff pkg/db's versioned store exposes.
func (a *App) Commit(ctx context.Context, req *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, root, err := a.store.Commit()
	if err != nil {
		return nil, fmt.Errorf("app: commit: %w", err)
	}
	a.logger.Info("block committed", zap.Uint64("height", a.block.Height), zap.Binary("app_hash", root))
	return &abcitypes.ResponseCommit{}, nil
}

// Query dispatches the /config, /status, /app_config, /account, /code,
// /wasm/raw, /wasm/scan and /wasm/smart paths (see decodeQueryRequest)
// against the QueryProvider built over the last committed state.
func (a *App) Query(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	a.mu.Lock()
	store := a.store.StateStorageLatest()
	block := a.block
	a.mu.Unlock()

	qp := a.queryProvider(store)
	qp.Block = block

	qreq, err := decodeQueryRequest(req.Path, req.Data)
	if err != nil {
		return &abcitypes.ResponseQuery{Code: 1, Log: err.Error()}, nil
	}
	resp, err := qp.Query(qreq)
	if err != nil {
		code := uint32(1)
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			code = 2
		}
		return &abcitypes.ResponseQuery{Code: code, Log: err.Error()}, nil
	}
	value, err := json.Marshal(resp)
	if err != nil {
		return &abcitypes.ResponseQuery{Code: 1, Log: err.Error()}, nil
	}
	return &abcitypes.ResponseQuery{Code: 0, Value: value}, nil
}

// ExtendVote, VerifyVoteExtension and the state-sync snapshot RPCs have no
// role in this application: SPEC_FULL.md's Non-goals exclude vote
// extensions and state-sync entirely, so these mirror
// pkg/consensus/abci_validator.go's own no-op stubs for the same methods.
func (a *App) ExtendVote(ctx context.Context, req *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (a *App) VerifyVoteExtension(ctx context.Context, req *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

func (a *App) ListSnapshots(ctx context.Context, req *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

func (a *App) OfferSnapshot(ctx context.Context, req *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{Result: abcitypes.ResponseOfferSnapshot_ABORT}, nil
}

func (a *App) LoadSnapshotChunk(ctx context.Context, req *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

func (a *App) ApplySnapshotChunk(ctx context.Context, req *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{Result: abcitypes.ResponseApplySnapshotChunk_ABORT}, nil
}
