package app

import (
	"testing"

	"github.com/certen-labs/chainkit/pkg/storage"
)

func TestParseGenesisRequiresChainID(t *testing.T) {
	if _, err := ParseGenesis([]byte(`{"config":{}}`)); err == nil {
		t.Fatalf("expected ParseGenesis to reject a document with no chain_id")
	}
}

func TestParseGenesisRoundTrip(t *testing.T) {
	raw := []byte(`{
		"chain_id": "test-1",
		"config": {"fee_denom": "utok"},
		"codes": [{"bytes": "AQID"}],
		"accounts": [{"address": "YWRkcg==", "code_hash": "aGFzaA=="}],
		"cronjobs": [{"contract": "Y3Ji", "schedule": "*/5 * * * *"}]
	}`)
	gen, err := ParseGenesis(raw)
	if err != nil {
		t.Fatalf("ParseGenesis: %v", err)
	}
	if gen.ChainID != "test-1" {
		t.Fatalf("ChainID = %q, want test-1", gen.ChainID)
	}
	if len(gen.Codes) != 1 || len(gen.Accounts) != 1 || len(gen.Cronjobs) != 1 {
		t.Fatalf("unexpected genesis shape: %+v", gen)
	}
}

func TestApplyGenesisInstallsAccountsCodesAndSchedules(t *testing.T) {
	store := newMemStore()
	gen := Genesis{
		ChainID: "test-1",
		Config:  Config{FeeDenom: "utok"},
		Codes:   []GenesisCode{{Bytes: []byte("wasm-bytes")}},
		Accounts: []GenesisAccount{
			{Address: []byte("addr-1"), CodeHash: codeHash([]byte("wasm-bytes"))},
		},
		Cronjobs: []GenesisCronjob{
			{Contract: []byte("addr-1"), Schedule: "0 * * * *"},
		},
	}
	if err := ApplyGenesis(store, gen); err != nil {
		t.Fatalf("ApplyGenesis: %v", err)
	}

	chainID, err := ChainID.Load(store)
	if err != nil || chainID != "test-1" {
		t.Fatalf("ChainID.Load = %q, %v; want test-1, nil", chainID, err)
	}

	acct, err := Accounts.Load(store, storage.RawBytesKey("addr-1"))
	if err != nil {
		t.Fatalf("Accounts.Load: %v", err)
	}
	if string(acct.CodeHash) != string(codeHash([]byte("wasm-bytes"))) {
		t.Fatalf("account code hash mismatch")
	}

	meta, err := Codes.Load(store, storage.RawBytesKey(codeHash([]byte("wasm-bytes"))))
	if err != nil {
		t.Fatalf("Codes.Load: %v", err)
	}
	if meta.Status != CodeInUse {
		t.Fatalf("code status = %v, want CodeInUse", meta.Status)
	}

	schedule, ok, err := CronSchedules.MayLoad(store, storage.RawBytesKey("addr-1"))
	if err != nil || !ok || schedule != "0 * * * *" {
		t.Fatalf("CronSchedules.MayLoad = %q, %v, %v", schedule, ok, err)
	}
}

func TestComputeCodeCIDIsDeterministic(t *testing.T) {
	bytes := []byte("some code")
	a, err := ComputeCodeCID(bytes)
	if err != nil {
		t.Fatalf("ComputeCodeCID: %v", err)
	}
	b, err := ComputeCodeCID(bytes)
	if err != nil {
		t.Fatalf("ComputeCodeCID: %v", err)
	}
	if !a.Equals(b) {
		t.Fatalf("ComputeCodeCID not deterministic: %s != %s", a, b)
	}
}
