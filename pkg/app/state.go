package app

import "github.com/certen-labs/chainkit/pkg/storage"

// CronKey is (timestamp, contract address), matching
// original_source/crates/app/src/state.rs's NEXT_CRONJOBS: Set<(Timestamp,
// Addr)> -- a Set rather than a Map because more than one cronjob can share
// the same scheduled time.
type CronKey = storage.Pair[storage.Uint64Key, storage.RawBytesKey]

func NewCronKey(scheduledAt uint64, contract []byte) CronKey {
	return storage.NewPair[storage.Uint64Key, storage.RawBytesKey](storage.Uint64Key(scheduledAt), storage.RawBytesKey(contract))
}

// ContractNamespace prefixes every contract sub-store key, matching
// original_source/crates/app/src/state.rs's CONTRACT_NAMESPACE = b"wasm".
var ContractNamespace = []byte("wasm")

// Reserved chain-level state, one declaration per
// original_source/crates/app/src/state.rs constant.
var (
	ChainID       = storage.NewItem[string]("chain_id", storage.JSONCodec[string]{})
	ChainConfig   = storage.NewItem[Config]("config", storage.JSONCodec[Config]{})
	AppConfigs    = storage.NewMap[storage.StringKey, []byte]("app_config", storage.JSONCodec[[]byte]{})
	LastFinalized = storage.NewItem[BlockInfo]("last_finalized_block", storage.JSONCodec[BlockInfo]{})
	NextCronjobs  = storage.NewSet[CronKey]("jobs")
	Codes         = storage.NewMap[storage.RawBytesKey, CodeMeta]("code", storage.JSONCodec[CodeMeta]{})
	Accounts      = storage.NewMap[storage.RawBytesKey, Account]("account", storage.JSONCodec[Account]{})
)
