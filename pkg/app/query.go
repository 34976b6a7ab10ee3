package app

import (
	"encoding/json"

	"github.com/certen-labs/chainkit/pkg/apperrors"
	"github.com/certen-labs/chainkit/pkg/storage"
	"github.com/certen-labs/chainkit/pkg/vm"
)

// QueryProvider answers vm.QueryRequest against a single read-only state
// view, implementing vm.QueryProvider. It never touches a contract's VM
// instance directly except for WasmSmart, which is the one query variant
// that must itself invoke a contract's query entry point.
type QueryProvider struct {
	Store   storage.KVStore
	Engine  vm.Vm
	Querier vm.QueryProvider // self-reference once constructed, for nested WasmSmart/query_chain calls
	Block   BlockInfo
	ChainID string
}

func (q *QueryProvider) Query(req vm.QueryRequest) (vm.QueryResponse, error) {
	switch {
	case req.Config != nil:
		cfg, err := ChainConfig.Load(q.Store)
		if err != nil {
			return vm.QueryResponse{}, err
		}
		return vm.QueryResponse{Config: &vm.ConfigResponse{Owner: cfg.Owner, Bank: cfg.Bank, Taxman: cfg.Taxman}}, nil

	case req.AppConfig != nil:
		v, err := AppConfigs.Load(q.Store, storage.StringKey(req.AppConfig.Key))
		if err != nil {
			return vm.QueryResponse{}, err
		}
		return vm.QueryResponse{AppConfig: v}, nil

	case req.Code != nil:
		meta, err := Codes.Load(q.Store, storage.RawBytesKey(req.Code.Hash))
		if err != nil {
			return vm.QueryResponse{}, err
		}
		_ = meta
		return vm.QueryResponse{Code: req.Code.Hash}, nil

	case req.Account != nil:
		acct, err := Accounts.Load(q.Store, storage.RawBytesKey(req.Account.Address))
		if err != nil {
			return vm.QueryResponse{}, err
		}
		return vm.QueryResponse{Account: &vm.AccountResponse{Address: req.Account.Address, CodeHash: acct.CodeHash}}, nil

	case req.WasmRaw != nil:
		sub := ContractSubstore(q.Store, req.WasmRaw.Contract)
		v, err := sub.Get(req.WasmRaw.Key)
		if err != nil {
			return vm.QueryResponse{}, err
		}
		return vm.QueryResponse{WasmRaw: v}, nil

	case req.WasmScan != nil:
		sub := ContractSubstore(q.Store, req.WasmScan.Contract)
		it, err := sub.Iterator(req.WasmScan.MinKey, req.WasmScan.MaxKey)
		if err != nil {
			return vm.QueryResponse{}, err
		}
		defer it.Close()
		out := make(map[string][]byte)
		limit := -1
		if req.WasmScan.Limit != nil {
			limit = int(*req.WasmScan.Limit)
		}
		for ; it.Valid() && (limit < 0 || len(out) < limit); it.Next() {
			out[string(it.Key())] = append([]byte{}, it.Value()...)
		}
		return vm.QueryResponse{WasmScan: out}, nil

	case req.WasmSmart != nil:
		return q.queryWasmSmart(*req.WasmSmart)

	case req.Status != nil:
		return vm.QueryResponse{Status: &vm.StatusResponse{ChainID: q.ChainID, BlockHeight: q.Block.Height, LatestAppHash: q.Block.Hash}}, nil

	case req.Multi != nil:
		results := make([]vm.QueryResponse, len(req.Multi.Requests))
		for i, r := range req.Multi.Requests {
			resp, err := q.Query(r)
			if err != nil {
				return vm.QueryResponse{}, err
			}
			results[i] = resp
		}
		return vm.QueryResponse{Multi: results}, nil

	default:
		return vm.QueryResponse{}, apperrors.New(apperrors.KindVm, "query_chain: empty request")
	}
}

func (q *QueryProvider) queryWasmSmart(req vm.QueryWasmSmart) (vm.QueryResponse, error) {
	acct, err := Accounts.Load(q.Store, storage.RawBytesKey(req.Contract))
	if err != nil {
		return vm.QueryResponse{}, err
	}
	instance, err := q.Engine.BuildInstance(ContractSubstore(q.Store, req.Contract), q.Querier, vm.Program{CodeHash: acct.CodeHash})
	if err != nil {
		return vm.QueryResponse{}, err
	}
	ctx := vm.Context{
		ChainID:        q.ChainID,
		BlockHeight:    q.Block.Height,
		BlockTimestamp: q.Block.Timestamp,
		BlockHash:      q.Block.Hash,
		Contract:       req.Contract,
		Mode:           vm.ModeImmutable,
	}
	meter := vm.NewMeter(QueryGasLimit)
	resp, err := instance.Call("query", ctx, meter, req.Payload)
	if err != nil {
		return vm.QueryResponse{}, err
	}
	return vm.QueryResponse{WasmSmart: encodeQueryEvents(resp)}, nil
}

// QueryGasLimit bounds every query_chain-triggered contract call,
// satisfying SPEC_FULL.md's "External query paths expose a separate
// query_gas_limit so queries cannot run unbounded".
const QueryGasLimit = 10_000_000

// decodeQueryRequest turns an ABCI RequestQuery's Path/Data into a typed
// vm.QueryRequest. Path names the variant ("/config", "/wasm/smart", ...)
// and Data carries that variant's JSON-encoded parameters, mirroring how
// the teacher's abci_validator.go dispatches on req.Path.
func decodeQueryRequest(path string, data []byte) (vm.QueryRequest, error) {
	switch path {
	case "/config":
		return vm.QueryRequest{Config: &vm.QueryConfig{}}, nil
	case "/status":
		return vm.QueryRequest{Status: &vm.QueryStatus{}}, nil
	case "/app_config":
		var p vm.QueryAppConfig
		if err := jsonUnmarshalNonEmpty(data, &p); err != nil {
			return vm.QueryRequest{}, err
		}
		return vm.QueryRequest{AppConfig: &p}, nil
	case "/account":
		var p vm.QueryAccount
		if err := jsonUnmarshalNonEmpty(data, &p); err != nil {
			return vm.QueryRequest{}, err
		}
		return vm.QueryRequest{Account: &p}, nil
	case "/code":
		var p vm.QueryCode
		if err := jsonUnmarshalNonEmpty(data, &p); err != nil {
			return vm.QueryRequest{}, err
		}
		return vm.QueryRequest{Code: &p}, nil
	case "/wasm/raw":
		var p vm.QueryWasmRaw
		if err := jsonUnmarshalNonEmpty(data, &p); err != nil {
			return vm.QueryRequest{}, err
		}
		return vm.QueryRequest{WasmRaw: &p}, nil
	case "/wasm/scan":
		var p vm.QueryWasmScan
		if err := jsonUnmarshalNonEmpty(data, &p); err != nil {
			return vm.QueryRequest{}, err
		}
		return vm.QueryRequest{WasmScan: &p}, nil
	case "/wasm/smart":
		var p vm.QueryWasmSmart
		if err := jsonUnmarshalNonEmpty(data, &p); err != nil {
			return vm.QueryRequest{}, err
		}
		return vm.QueryRequest{WasmSmart: &p}, nil
	default:
		return vm.QueryRequest{}, apperrors.New(apperrors.KindDeserialize, "unknown query path: "+path)
	}
}

func jsonUnmarshalNonEmpty(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.Wrap(apperrors.KindDeserialize, "query params", err)
	}
	return nil
}

func encodeQueryEvents(resp vm.Response) []byte {
	// The test VM's query entry points return their payload via events in
	// this minimal host, rather than a typed Wasm return buffer; a real
	// contract would instead communicate its result value directly. This
	// keeps WasmSmart usable from tests without inventing a second return
	// channel the spec doesn't define for the in-process engine.
	if len(resp.Events) == 0 {
		return nil
	}
	var out []byte
	for _, attr := range resp.Events[0].Attributes {
		out = append(out, []byte(attr.Value)...)
	}
	return out
}
