// Command chaincli is the operator-facing companion to cmd/chaind: it
// builds genesis documents, generates keys, and queries or simulates
// against a running chain, the way the teacher's validator service split
// its one monolithic main.go across flag-driven startup paths -- narrowed
// here into a cobra command tree (keys/genesis/query/simulate/events), per
// SPEC_FULL.md's ambient-stack plan for the CLI boundary. viper reads
// CHAINCLI_-prefixed env vars; only query's --node flag takes its default
// from one (CHAINCLI_NODE).
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	rpchttp "github.com/cometbft/cometbft/rpc/client/http"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/certen-labs/chainkit/pkg/app"
	"github.com/certen-labs/chainkit/pkg/events"
	"github.com/certen-labs/chainkit/pkg/vm"
)

func main() {
	root := &cobra.Command{
		Use:   "chaincli",
		Short: "chainkit operator CLI",
	}
	viper.SetEnvPrefix("CHAINCLI")
	viper.AutomaticEnv()

	root.AddCommand(newKeysCommand(), newGenesisCommand(), newQueryCommand(), newSimulateCommand(), newEventsCommand())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newKeysCommand() *cobra.Command {
	keys := &cobra.Command{Use: "keys", Short: "manage account keys"}

	var out string
	generate := &cobra.Command{
		Use:   "generate",
		Short: "generate a new ed25519 keypair and write the private key to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := ed25519.GenerateKey(rand.Reader)
			if err != nil {
				return fmt.Errorf("generate key: %w", err)
			}
			if out != "" {
				if err := os.MkdirAll(filepath.Dir(out), 0o700); err != nil {
					return err
				}
				if err := os.WriteFile(out, []byte(hex.EncodeToString(priv)), 0o600); err != nil {
					return fmt.Errorf("write key to %s: %w", out, err)
				}
			}
			fmt.Printf("public_key: %s\n", hex.EncodeToString(pub))
			if out != "" {
				fmt.Printf("private_key_path: %s\n", out)
			} else {
				fmt.Printf("private_key: %s\n", hex.EncodeToString(priv))
			}
			return nil
		},
	}
	generate.Flags().StringVar(&out, "out", "", "file to write the private key to (hex-encoded); printed to stdout if omitted")
	keys.AddCommand(generate)
	return keys
}

func newGenesisCommand() *cobra.Command {
	genesisCmd := &cobra.Command{Use: "genesis", Short: "construct a genesis document"}

	var chainID, out string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "write a new, empty genesis document",
		RunE: func(cmd *cobra.Command, args []string) error {
			if chainID == "" {
				return fmt.Errorf("--chain-id is required")
			}
			gen := app.Genesis{ChainID: chainID}
			return writeGenesis(out, gen)
		},
	}
	initCmd.Flags().StringVar(&chainID, "chain-id", "", "chain id for the new genesis document")
	initCmd.Flags().StringVar(&out, "out", "genesis.json", "path to write the genesis document to")

	var genesisPath string
	var address, codeHashHex, adminHex string
	addAccount := &cobra.Command{
		Use:   "add-account",
		Short: "add an account to an existing genesis document",
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := readGenesis(genesisPath)
			if err != nil {
				return err
			}
			codeHash, err := hex.DecodeString(codeHashHex)
			if err != nil {
				return fmt.Errorf("--code-hash must be hex: %w", err)
			}
			acct := app.GenesisAccount{Address: []byte(address), CodeHash: codeHash}
			if adminHex != "" {
				admin, err := hex.DecodeString(adminHex)
				if err != nil {
					return fmt.Errorf("--admin must be hex: %w", err)
				}
				acct.Admin = admin
			}
			gen.Accounts = append(gen.Accounts, acct)
			return writeGenesis(genesisPath, gen)
		},
	}
	addAccount.Flags().StringVar(&genesisPath, "genesis", "genesis.json", "path to the genesis document to modify")
	addAccount.Flags().StringVar(&address, "address", "", "account address")
	addAccount.Flags().StringVar(&codeHashHex, "code-hash", "", "hex-encoded code hash")
	addAccount.Flags().StringVar(&adminHex, "admin", "", "hex-encoded admin address (optional)")

	genesisCmd.AddCommand(initCmd, addAccount)
	return genesisCmd
}

func readGenesis(path string) (app.Genesis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return app.Genesis{}, fmt.Errorf("read genesis %s: %w", path, err)
	}
	return app.ParseGenesis(raw)
}

func writeGenesis(path string, gen app.Genesis) error {
	raw, err := json.MarshalIndent(gen, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal genesis: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write genesis %s: %w", path, err)
	}
	fmt.Printf("wrote genesis document to %s\n", path)
	return nil
}

func newQueryCommand() *cobra.Command {
	var nodeAddr, path string
	cmd := &cobra.Command{
		Use:   "query",
		Short: "run an ABCI query against a running node's CometBFT RPC endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := rpchttp.New(nodeAddr)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", nodeAddr, err)
			}
			resp, err := client.ABCIQuery(context.Background(), path, nil)
			if err != nil {
				return fmt.Errorf("query %s: %w", path, err)
			}
			if resp.Response.Code != 0 {
				return fmt.Errorf("query %s failed: %s", path, resp.Response.Log)
			}
			fmt.Println(string(resp.Response.Value))
			return nil
		},
	}
	cmd.Flags().StringVar(&nodeAddr, "node", viper.GetString("NODE"), "CometBFT RPC address, e.g. tcp://localhost:26657")
	cmd.Flags().StringVar(&path, "path", "/config", "ABCI query path")
	return cmd
}

func newEventsCommand() *cobra.Command {
	eventsCmd := &cobra.Command{Use: "events", Short: "convert a flattened event log between encodings"}

	var in, out string
	toCBOR := &cobra.Command{
		Use:   "to-cbor",
		Short: "convert a JSON flattened event log to the compact CBOR archive format",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("read %s: %w", in, err)
			}
			var flat []events.FlatEvent
			if err := json.Unmarshal(raw, &flat); err != nil {
				return fmt.Errorf("parse %s as JSON events: %w", in, err)
			}
			cborBytes, err := events.MarshalCBOR(flat)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, cborBytes, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Printf("wrote %d events to %s (%d bytes)\n", len(flat), out, len(cborBytes))
			return nil
		},
	}
	toCBOR.Flags().StringVar(&in, "in", "", "path to a JSON-encoded []events.FlatEvent file")
	toCBOR.Flags().StringVar(&out, "out", "events.cbor", "path to write the CBOR-encoded archive to")
	eventsCmd.AddCommand(toCBOR)
	return eventsCmd
}

func newSimulateCommand() *cobra.Command {
	var sender, target, entryPoint string
	var gasLimit uint64
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "print the wire bytes for a single-message transaction, without broadcasting it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sender == "" || target == "" || entryPoint == "" {
				return fmt.Errorf("--sender, --target and --entry-point are required")
			}
			tx := app.Tx{
				Sender:   []byte(sender),
				GasLimit: gasLimit,
				Msgs:     []vm.Message{{Target: []byte(target), EntryPoint: entryPoint}},
			}
			raw, err := app.EncodeTx(tx)
			if err != nil {
				return fmt.Errorf("encode tx: %w", err)
			}
			fmt.Println(strings.TrimSpace(string(raw)))
			return nil
		},
	}
	cmd.Flags().StringVar(&sender, "sender", "", "sender account address")
	cmd.Flags().StringVar(&target, "target", "", "target contract address")
	cmd.Flags().StringVar(&entryPoint, "entry-point", "execute", "entry point to call")
	cmd.Flags().Uint64Var(&gasLimit, "gas-limit", 1_000_000, "declared gas limit")
	return cmd
}
