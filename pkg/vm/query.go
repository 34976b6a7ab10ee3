package vm

// QueryRequest is the typed sum SPEC_FULL.md §6 lists under "Query
// surface". Exactly one field is populated per request, following the
// pack's convention (seen in original_source's message enums) of modeling
// a Rust sum type as a Go struct with one populated variant field rather
// than an interface{} + type switch.
type QueryRequest struct {
	Config     *QueryConfig
	AppConfig  *QueryAppConfig
	AppConfigs *QueryAppConfigs
	Balance    *QueryBalance
	Balances   *QueryBalances
	Supply     *QuerySupply
	Supplies   *QuerySupplies
	Code       *QueryCode
	Codes      *QueryCodes
	Account    *QueryAccount
	Accounts   *QueryAccounts
	WasmRaw    *QueryWasmRaw
	WasmScan   *QueryWasmScan
	WasmSmart  *QueryWasmSmart
	Multi      *QueryMulti
	Status     *QueryStatus
}

type QueryConfig struct{}
type QueryAppConfig struct{ Key string }
type QueryAppConfigs struct{ StartAfter, Limit *string }
type QueryBalance struct {
	Address []byte
	Denom   string
}
type QueryBalances struct {
	Address    []byte
	StartAfter *string
	Limit      *uint32
}
type QuerySupply struct{ Denom string }
type QuerySupplies struct {
	StartAfter *string
	Limit      *uint32
}
type QueryCode struct{ Hash []byte }
type QueryCodes struct {
	StartAfter []byte
	Limit      *uint32
}
type QueryAccount struct{ Address []byte }
type QueryAccounts struct {
	StartAfter []byte
	Limit      *uint32
}
type QueryWasmRaw struct {
	Contract []byte
	Key      []byte
}
type QueryWasmScan struct {
	Contract []byte
	MinKey   []byte
	MaxKey   []byte
	Limit    *uint32
}
type QueryWasmSmart struct {
	Contract []byte
	Payload  []byte
}
type QueryMulti struct{ Requests []QueryRequest }
type QueryStatus struct{}

// QueryResponse mirrors QueryRequest's one-of-many-fields shape.
type QueryResponse struct {
	Config     *ConfigResponse
	AppConfig  []byte
	AppConfigs map[string][]byte
	Balance    *Coin
	Balances   Coins
	Supply     *Coin
	Supplies   Coins
	Code       []byte
	Codes      [][]byte
	Account    *AccountResponse
	Accounts   []AccountResponse
	WasmRaw    []byte
	WasmScan   map[string][]byte
	WasmSmart  []byte
	Multi      []QueryResponse
	Status     *StatusResponse
}

type ConfigResponse struct {
	Owner       []byte
	Bank        []byte
	Taxman      []byte
	CronjobAddr []byte
}

type AccountResponse struct {
	Address  []byte
	CodeHash []byte
}

type StatusResponse struct {
	ChainID       string
	BlockHeight   uint64
	LatestAppHash []byte
}

// QueryProvider is how a contract instance issues query_chain calls,
// letting a query handler on another contract or the app itself service a
// request without the host needing to know the full state machine. The
// immutable-state guard applies transitively: a QueryProvider given to an
// instance always resolves in ModeImmutable.
type QueryProvider interface {
	Query(req QueryRequest) (QueryResponse, error)
}
