package vm

import (
	"github.com/certen-labs/chainkit/pkg/apperrors"
	"github.com/certen-labs/chainkit/pkg/crypto"
	"github.com/certen-labs/chainkit/pkg/storage"
)

// Host is the capability set SPEC_FULL.md §4.4 calls the "imported
// operations": every contract call, Wasm or in-process, goes through
// exactly this surface to touch storage, crypto, or the rest of the chain.
// Grounded on original_source/crates/vm/src/imports.rs's db_read/
// db_write/db_remove free functions, collected here into one object a Go
// engine can pass to a contract instead of threading them through a Caller.
type Host struct {
	store    storage.KVStore
	querier  QueryProvider
	meter    *Meter
	mode     Mode
	scans    map[uint64]storage.Iterator
	nextScan uint64
}

func NewHost(store storage.KVStore, querier QueryProvider, meter *Meter, mode Mode) *Host {
	return &Host{store: store, querier: querier, meter: meter, mode: mode, scans: make(map[uint64]storage.Iterator)}
}

func (h *Host) DbRead(key []byte) ([]byte, error) {
	if err := h.meter.Consume(Costs.DbReadBase + Costs.DbReadPerByte*uint64(len(key))); err != nil {
		return nil, err
	}
	return h.store.Get(key)
}

// DbWrite enforces the immutable-state guard: any write import is refused
// outside ModeMutable, except keys under the "_nonce" prefix that
// ModeAuthenticate carves out.
func (h *Host) DbWrite(key, value []byte) error {
	if err := h.checkWritable(key); err != nil {
		return err
	}
	if err := h.meter.Consume(Costs.DbWriteBase + Costs.DbWritePerByte*uint64(len(value))); err != nil {
		return err
	}
	return h.store.Set(key, value)
}

func (h *Host) DbRemove(key []byte) error {
	if err := h.checkWritable(key); err != nil {
		return err
	}
	if err := h.meter.Consume(Costs.DbRemove); err != nil {
		return err
	}
	return h.store.Delete(key)
}

func (h *Host) checkWritable(key []byte) error {
	switch h.mode {
	case ModeMutable:
		return nil
	case ModeAuthenticate:
		if len(key) >= len(NonceKey) && string(key[:len(NonceKey)]) == string(NonceKey) {
			return nil
		}
		return apperrors.Wrap(apperrors.KindUnauthorized, "authenticate may only write the _nonce sub-key", apperrors.ErrReadOnly)
	default:
		return apperrors.Wrap(apperrors.KindUnauthorized, "write import called from an immutable entry point", apperrors.ErrReadOnly)
	}
}

// DbScan opens an iterator over [min, max) in the given order and returns a
// handle the contract polls via DbNext, mirroring the host-side iterator
// registry pattern (an iter_id returned across the Wasm boundary instead of
// a live pointer).
func (h *Host) DbScan(min, max []byte, order storage.Order) (uint64, error) {
	if err := h.meter.Consume(Costs.DbScan); err != nil {
		return 0, err
	}
	var it storage.Iterator
	var err error
	if order == storage.Descending {
		it, err = h.store.ReverseIterator(min, max)
	} else {
		it, err = h.store.Iterator(min, max)
	}
	if err != nil {
		return 0, err
	}
	id := h.nextScan
	h.nextScan++
	h.scans[id] = it
	return id, nil
}

// DbNext advances the iterator identified by id, returning (nil, nil, false)
// once exhausted. The host owns closing iterators when a call completes.
func (h *Host) DbNext(id uint64) (key, value []byte, ok bool, err error) {
	it, found := h.scans[id]
	if !found {
		return nil, nil, false, apperrors.New(apperrors.KindVm, "unknown iterator handle")
	}
	if err := h.meter.Consume(Costs.DbNext); err != nil {
		return nil, nil, false, err
	}
	if !it.Valid() {
		delete(h.scans, id)
		return nil, nil, false, nil
	}
	key, value = it.Key(), it.Value()
	it.Next()
	return key, value, true, nil
}

// Close releases any iterators opened via DbScan that the call never
// exhausted. The engine calls this once per Instance.Call, win or lose.
func (h *Host) Close() {
	h.closeScans()
}

func (h *Host) closeScans() {
	for id, it := range h.scans {
		_ = it.Close()
		delete(h.scans, id)
	}
}

func (h *Host) VerifySecp256k1(pubKey, msgHash, sig []byte) (bool, error) {
	if err := h.meter.Consume(Costs.CryptoVerify); err != nil {
		return false, err
	}
	return crypto.VerifySecp256k1(pubKey, msgHash, sig)
}

func (h *Host) RecoverSecp256k1(msgHash, sig []byte) ([]byte, error) {
	if err := h.meter.Consume(Costs.CryptoRecover); err != nil {
		return nil, err
	}
	return crypto.RecoverSecp256k1(msgHash, sig)
}

func (h *Host) VerifySecp256r1(pubKey, msgHash, sig []byte) (bool, error) {
	if err := h.meter.Consume(Costs.CryptoVerify); err != nil {
		return false, err
	}
	return crypto.VerifySecp256r1(pubKey, msgHash, sig)
}

func (h *Host) VerifyEd25519(pubKey, msg, sig []byte) (bool, error) {
	if err := h.meter.Consume(Costs.CryptoVerify); err != nil {
		return false, err
	}
	return crypto.VerifyEd25519(pubKey, msg, sig)
}

func (h *Host) Sha256(data []byte) ([32]byte, error) {
	if err := h.meter.Consume(Costs.Hash); err != nil {
		return [32]byte{}, err
	}
	return crypto.Sha256(data), nil
}

func (h *Host) Blake3(data []byte) ([32]byte, error) {
	if err := h.meter.Consume(Costs.Hash); err != nil {
		return [32]byte{}, err
	}
	return crypto.Blake3(data), nil
}

func (h *Host) Ripemd160(data []byte) ([20]byte, error) {
	if err := h.meter.Consume(Costs.Hash); err != nil {
		return [20]byte{}, err
	}
	return crypto.Ripemd160(data), nil
}

// QueryChain routes a QueryRequest through the chain's query provider. It is
// always serviced in an immutable context regardless of the caller's own
// mode, since query handlers must never observe or cause mutation.
func (h *Host) QueryChain(req QueryRequest) (QueryResponse, error) {
	if err := h.meter.Consume(Costs.QueryChain); err != nil {
		return QueryResponse{}, err
	}
	if h.querier == nil {
		return QueryResponse{}, apperrors.New(apperrors.KindVm, "host has no query provider configured")
	}
	return h.querier.Query(req)
}

// Debug and Abort are the "Misc" imports from SPEC_FULL.md §4.4: Debug is a
// best-effort log line, Abort is how a contract requests the call be
// frame-fatal with a caller-supplied reason.
func (h *Host) Debug(addr []byte, msg string) error {
	return h.meter.Consume(Costs.Debug)
}

func (h *Host) Abort(msg string) error {
	return apperrors.New(apperrors.KindContract, msg)
}
