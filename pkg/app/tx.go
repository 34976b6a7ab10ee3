package app

import (
	"encoding/json"
	"fmt"

	"github.com/certen-labs/chainkit/pkg/apperrors"
	"github.com/certen-labs/chainkit/pkg/events"
	"github.com/certen-labs/chainkit/pkg/storage"
	"github.com/certen-labs/chainkit/pkg/vm"
)

// Tx is a single transaction: one sender, one declared gas limit, and an
// ordered list of messages to execute, each addressed to a contract and an
// entry point. Authentication material (nonce, signature) is opaque to the
// pipeline and left entirely to the sender contract's authenticate entry
// point, per SPEC_FULL.md §4.4's "accounts are just contracts" design.
type Tx struct {
	Sender   []byte
	GasLimit uint64
	Msgs     []vm.Message
	AuthData []byte
}

// TxResult is what FinalizeBlock and CheckTx both need from running a
// transaction: whether it succeeded overall, the gas it consumed, and the
// flattened event log for the indexer.
type TxResult struct {
	Success bool
	GasUsed uint64
	Events  []events.FlatEvent
	Error   error
}

// wireMessage/wireTx are Tx's JSON wire encoding, kept separate from
// vm.Message/Tx themselves so the VM's internal vocabulary doesn't dictate
// the wire format transactions are gossiped and stored in.
type wireMessage struct {
	Target     []byte `json:"target"`
	EntryPoint string `json:"entry_point"`
	Payload    []byte `json:"payload"`
}

type wireTx struct {
	Sender   []byte        `json:"sender"`
	GasLimit uint64        `json:"gas_limit"`
	Msgs     []wireMessage `json:"msgs"`
	AuthData []byte        `json:"auth_data"`
}

// EncodeTx is DecodeTx's inverse, used by cmd/chaincli to build the bytes a
// transaction is gossiped and stored as.
func EncodeTx(tx Tx) ([]byte, error) {
	wt := wireTx{Sender: tx.Sender, GasLimit: tx.GasLimit, AuthData: tx.AuthData}
	wt.Msgs = make([]wireMessage, len(tx.Msgs))
	for i, m := range tx.Msgs {
		wt.Msgs[i] = wireMessage{Target: m.Target, EntryPoint: m.EntryPoint, Payload: m.Payload}
	}
	raw, err := json.Marshal(wt)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindSerialize, "tx", err)
	}
	return raw, nil
}

// DecodeTx parses a transaction's wire bytes, rejecting anything structurally
// invalid before it ever reaches the pipeline -- this is what
// ProcessProposal and CheckTx use to reject malformed transactions cheaply.
func DecodeTx(raw []byte) (Tx, error) {
	var wt wireTx
	if err := json.Unmarshal(raw, &wt); err != nil {
		return Tx{}, apperrors.Wrap(apperrors.KindDeserialize, "tx", err)
	}
	if len(wt.Sender) == 0 {
		return Tx{}, apperrors.New(apperrors.KindDeserialize, "tx: sender is required")
	}
	msgs := make([]vm.Message, len(wt.Msgs))
	for i, m := range wt.Msgs {
		if len(m.Target) == 0 || m.EntryPoint == "" {
			return Tx{}, apperrors.New(apperrors.KindDeserialize, "tx: message missing target or entry_point")
		}
		msgs[i] = vm.Message{Target: m.Target, EntryPoint: m.EntryPoint, Payload: m.Payload}
	}
	return Tx{Sender: wt.Sender, GasLimit: wt.GasLimit, Msgs: msgs, AuthData: wt.AuthData}, nil
}

// txPipeline runs the withhold_fee -> authenticate -> execute -> backrun ->
// finalize_fee sequence spec.md §4.5 describes against store, committing
// its CacheStore overlay into parent only when every required step
// succeeds, and always running finalize_fee regardless of outcome.
type txPipeline struct {
	store   storage.KVStore
	engine  vm.Vm
	querier vm.QueryProvider
	block   BlockInfo
	chainID string
}

func newTxPipeline(store storage.KVStore, engine vm.Vm, querier vm.QueryProvider, block BlockInfo, chainID string) *txPipeline {
	return &txPipeline{store: store, engine: engine, querier: querier, block: block, chainID: chainID}
}

// RunTx executes tx against p.store's parent, returning the combined
// result. parent is expected to be a *CacheStore scoped to the whole block,
// so a failed transaction's writes never escape this call even though
// finalize_fee's writes (which always run) do.
func (p *txPipeline) RunTx(parent storage.KVStore, tx Tx, simulate bool) TxResult {
	root := events.NewFrame(events.New("tx").WithAttribute("sender", string(tx.Sender)))

	withheld, err := withholdFee(parent, p.engine, p.querier, p.block, p.chainID, tx.Sender, tx.GasLimit, simulate)
	if err != nil {
		root.MarkReverted()
		return TxResult{Success: false, Error: fmt.Errorf("app: withhold_fee: %w", err), Events: events.Flatten(root)}
	}
	root.AddChild(taxmanFrame("withhold_fee", withheld))

	txCache := NewCacheStore(parent)
	meter := vm.NewMeter(tx.GasLimit)

	authOK := p.authenticate(txCache, meter, tx, root)

	var outcomes []bool
	success := authOK
	if authOK {
		for _, msg := range tx.Msgs {
			msgCache := NewCacheStore(txCache)
			frame := events.NewFrame(events.New("message").WithAttribute("entry_point", msg.EntryPoint).WithAttribute("target", string(msg.Target)))
			ok := p.execMessage(msgCache, meter, tx.Sender, msg, frame, 0)
			outcomes = append(outcomes, ok)
			if ok {
				if err := msgCache.Flush(txCache); err != nil {
					ok = false
					frame.MarkReverted()
				}
			} else {
				frame.MarkReverted()
			}
			root.AddChild(frame)
			if !ok {
				success = false
			}
		}
		p.backrun(txCache, meter, tx, root)
	}

	if success {
		if err := txCache.Flush(parent); err != nil {
			success = false
			root.MarkReverted()
		}
	} else {
		root.MarkReverted()
	}

	finalized, err := finalizeFee(parent, p.engine, p.querier, p.block, p.chainID, tx.Sender, tx.GasLimit, meter.Used(), outcomes, simulate)
	if err != nil {
		return TxResult{Success: false, GasUsed: meter.Used(), Error: fmt.Errorf("app: finalize_fee: %w", err), Events: events.Flatten(root)}
	}
	root.AddChild(taxmanFrame("finalize_fee", finalized))

	return TxResult{Success: success, GasUsed: meter.Used(), Events: events.Flatten(root)}
}

func (p *txPipeline) authenticate(cache *CacheStore, meter *vm.Meter, tx Tx, root *events.Frame) bool {
	acct, err := Accounts.Load(cache, storage.RawBytesKey(tx.Sender))
	if err != nil {
		root.AddChild(errFrame("authenticate", err))
		return false
	}
	instance, err := p.engine.BuildInstance(ContractSubstore(cache, tx.Sender), p.querier, vm.Program{CodeHash: acct.CodeHash})
	if err != nil {
		root.AddChild(errFrame("authenticate", err))
		return false
	}
	ctx := vm.Context{
		ChainID:        p.chainID,
		BlockHeight:    p.block.Height,
		BlockTimestamp: p.block.Timestamp,
		BlockHash:      p.block.Hash,
		Contract:       tx.Sender,
		Sender:         tx.Sender,
		Mode:           vm.ModeAuthenticate,
	}
	resp, err := instance.Call("authenticate", ctx, meter, tx.AuthData)
	if err != nil {
		root.AddChild(errFrame("authenticate", err))
		return false
	}
	frame := events.NewFrame(events.New("authenticate").WithAttributes(eventAttrs(resp)...))
	root.AddChild(frame)
	return true
}

func (p *txPipeline) backrun(cache *CacheStore, meter *vm.Meter, tx Tx, root *events.Frame) {
	acct, ok, err := Accounts.MayLoad(cache, storage.RawBytesKey(tx.Sender))
	if err != nil || !ok {
		return
	}
	instance, err := p.engine.BuildInstance(ContractSubstore(cache, tx.Sender), p.querier, vm.Program{CodeHash: acct.CodeHash})
	if err != nil {
		return
	}
	ctx := vm.Context{
		ChainID:        p.chainID,
		BlockHeight:    p.block.Height,
		BlockTimestamp: p.block.Timestamp,
		BlockHash:      p.block.Hash,
		Contract:       tx.Sender,
		Sender:         tx.Sender,
		Mode:           vm.ModeMutable,
	}
	resp, err := instance.Call("backrun", ctx, meter, nil)
	if err != nil {
		// backrun failing does not revert the transaction's own messages,
		// mirroring original_source/crates/app/src/execute.rs where backrun
		// errors are logged and otherwise ignored.
		root.AddChild(errFrame("backrun", err))
		return
	}
	root.AddChild(events.NewFrame(events.New("backrun").WithAttributes(eventAttrs(resp)...)))
}

// execMessage dispatches one top-level (or sub-) message to its target
// contract's entry point, recursively running any SubMsg it returns before
// deciding the frame's own commitment status. depth tracks nesting for the
// vm.MaxCallDepth reentrancy guard.
func (p *txPipeline) execMessage(cache *CacheStore, meter *vm.Meter, sender []byte, msg vm.Message, frame *events.Frame, depth int) bool {
	acct, err := Accounts.Load(cache, storage.RawBytesKey(msg.Target))
	if err != nil {
		frame.Event = frame.Event.WithAttribute("error", err.Error())
		return false
	}
	instance, err := p.engine.BuildInstance(ContractSubstore(cache, msg.Target), p.querier, vm.Program{CodeHash: acct.CodeHash})
	if err != nil {
		frame.Event = frame.Event.WithAttribute("error", err.Error())
		return false
	}
	ctx := vm.Context{
		ChainID:        p.chainID,
		BlockHeight:    p.block.Height,
		BlockTimestamp: p.block.Timestamp,
		BlockHash:      p.block.Hash,
		Contract:       msg.Target,
		Sender:         sender,
		Mode:           vm.ModeMutable,
		Depth:          depth,
	}
	resp, err := instance.Call(msg.EntryPoint, ctx, meter, msg.Payload)
	if err != nil {
		frame.Event = frame.Event.WithAttribute("error", err.Error())
		return false
	}
	frame.Event = frame.Event.WithAttributes(eventAttrs(resp)...)

	for _, sub := range resp.Messages {
		subCache := NewCacheStore(cache)
		subFrame := events.NewFrame(events.New("sub_message").
			WithAttribute("entry_point", sub.Msg.EntryPoint).
			WithAttribute("target", string(sub.Msg.Target)))
		ok := p.execMessage(subCache, meter, msg.Target, sub.Msg, subFrame, depth+1)
		if ok {
			if err := subCache.Flush(cache); err != nil {
				ok = false
				subFrame.MarkReverted()
			}
		} else {
			subFrame.MarkReverted()
		}
		frame.AddChild(subFrame)

		if sub.WantsReply(ok) {
			if !p.deliverReply(cache, meter, msg.Target, sub, ok, frame, depth+1) {
				return false
			}
		} else if !ok {
			// A failed sub-message the parent didn't ask to be told about
			// fails the whole parent call, mirroring grug's
			// reply_on::Never-means-propagate-the-error semantics.
			return false
		}
	}
	return true
}

// deliverReply calls the parent contract's reply entry point with the
// sub-message's outcome. A failing reply call fails the parent frame too.
func (p *txPipeline) deliverReply(cache *CacheStore, meter *vm.Meter, parent []byte, sub vm.SubMsg, succeeded bool, frame *events.Frame, depth int) bool {
	acct, err := Accounts.Load(cache, storage.RawBytesKey(parent))
	if err != nil {
		return false
	}
	instance, err := p.engine.BuildInstance(ContractSubstore(cache, parent), p.querier, vm.Program{CodeHash: acct.CodeHash})
	if err != nil {
		return false
	}
	ctx := vm.Context{
		ChainID:        p.chainID,
		BlockHeight:    p.block.Height,
		BlockTimestamp: p.block.Timestamp,
		BlockHash:      p.block.Hash,
		Contract:       parent,
		Mode:           vm.ModeMutable,
		Depth:          depth,
	}
	payload := replyPayload(sub.ID, succeeded)
	resp, err := instance.Call("reply", ctx, meter, payload)
	if err != nil {
		frame.AddChild(errFrame("reply", err))
		return false
	}
	frame.AddChild(events.NewFrame(events.New("reply").WithAttributes(eventAttrs(resp)...)))
	return true
}

func replyPayload(id uint64, succeeded bool) []byte {
	status := "error"
	if succeeded {
		status = "success"
	}
	return []byte(fmt.Sprintf(`{"id":%d,"status":%q}`, id, status))
}

func errFrame(name string, err error) *events.Frame {
	f := events.NewFrame(events.New(name).WithAttribute("error", err.Error()))
	f.MarkReverted()
	return f
}
