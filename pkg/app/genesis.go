package app

import (
	"encoding/json"
	"fmt"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"

	"github.com/certen-labs/chainkit/pkg/apperrors"
	"github.com/certen-labs/chainkit/pkg/crypto"
	"github.com/certen-labs/chainkit/pkg/storage"
)

// Genesis is the parsed on-disk genesis document spec.md §6 describes:
// the chain id, the initial Config, the codes to preload, the accounts to
// install, and an ordered list of genesis messages run once at InitChain
// time (in the order listed, each its own implicit authenticate-free
// message).
type Genesis struct {
	ChainID  string            `json:"chain_id"`
	Config   Config            `json:"config"`
	Codes    []GenesisCode     `json:"codes"`
	Accounts []GenesisAccount  `json:"accounts"`
	Messages []GenesisMessage  `json:"genesis_msgs"`
	Cronjobs []GenesisCronjob  `json:"cronjobs"`
}

type GenesisCode struct {
	Bytes []byte `json:"bytes"`
}

type GenesisAccount struct {
	Address  []byte `json:"address"`
	CodeHash []byte `json:"code_hash"`
	Admin    []byte `json:"admin"`
}

type GenesisMessage struct {
	Target     []byte `json:"target"`
	EntryPoint string `json:"entry_point"`
	Payload    []byte `json:"payload"`
}

type GenesisCronjob struct {
	Contract []byte `json:"contract"`
	Schedule string `json:"schedule"`
}

// ParseGenesis decodes the ABCI InitChain request's raw app_state bytes,
// which CometBFT reads verbatim from the node's genesis.json "app_state"
// field.
func ParseGenesis(raw []byte) (Genesis, error) {
	var gen Genesis
	if err := json.Unmarshal(raw, &gen); err != nil {
		return Genesis{}, apperrors.Wrap(apperrors.KindDeserialize, "genesis", err)
	}
	if gen.ChainID == "" {
		return Genesis{}, apperrors.New(apperrors.KindDeserialize, "genesis: chain_id is required")
	}
	return gen, nil
}

// ComputeCodeCID derives a content identifier for a code blob the way
// original_source's code-upload path addresses Wasm bytecode: a SHA-256
// multihash wrapped as a raw CIDv1, grounded on the teacher pack's
// orbas1-Synnergy core/storage.go Pin() pattern. The identifier returned is
// purely a second, human-printable handle on the code: ApplyGenesis
// computes it for each code blob but neither logs nor stores it, and the
// account registry itself keys code by the plain SHA-256 hash, since that's
// what the VM's BuildInstance already looks code up by.
func ComputeCodeCID(bytes []byte) (cid.Cid, error) {
	digest, err := mh.Sum(bytes, mh.SHA2_256, -1)
	if err != nil {
		return cid.Undef, apperrors.Wrap(apperrors.KindSerialize, "code cid", err)
	}
	return cid.NewCidV1(cid.Raw, digest), nil
}

// ApplyGenesis writes gen's codes, accounts, cronjob schedules and the
// chain id/config singletons into store. It does not run the genesis
// messages; App.InitChain runs those after ApplyGenesis returns. This is also what a future upgrade.go "re-seed a sub-store"
// handler could reuse, though none currently does.
func ApplyGenesis(store storage.KVStore, gen Genesis) error {
	if err := ChainID.Save(store, gen.ChainID); err != nil {
		return fmt.Errorf("app: genesis: %w", err)
	}
	if err := ChainConfig.Save(store, gen.Config); err != nil {
		return fmt.Errorf("app: genesis: %w", err)
	}

	for _, code := range gen.Codes {
		hash := codeHash(code.Bytes)
		if _, err := ComputeCodeCID(code.Bytes); err != nil {
			return fmt.Errorf("app: genesis: code cid: %w", err)
		}
		if err := Codes.Save(store, storage.RawBytesKey(hash), CodeMeta{Status: CodeInUse}); err != nil {
			return fmt.Errorf("app: genesis: %w", err)
		}
	}

	for _, acct := range gen.Accounts {
		if err := Accounts.Save(store, storage.RawBytesKey(acct.Address), Account{CodeHash: acct.CodeHash, Admin: acct.Admin}); err != nil {
			return fmt.Errorf("app: genesis: %w", err)
		}
	}

	for _, job := range gen.Cronjobs {
		if err := CronSchedules.Save(store, storage.RawBytesKey(job.Contract), job.Schedule); err != nil {
			return fmt.Errorf("app: genesis: %w", err)
		}
	}

	return nil
}

func codeHash(bytes []byte) []byte {
	h := crypto.Sha256(bytes)
	return h[:]
}
