// Package config loads cmd/chaind's daemon configuration: where to keep
// data, which address to serve the ABCI socket on, and the handful of
// chain-level knobs (pruning window, gas price, retained versions) that
// are operational rather than consensus-critical and so don't belong in
// the genesis document pkg/app.ParseGenesis reads. The env-var Load/getEnv*
// shape and the regexp-based ${VAR} substitution for the YAML chain-config
// loader both follow the teacher's pkg/config, narrowed from a
// validator-service's Accumulate/Ethereum/Postgres/Firestore surface down
// to what a single deterministic ABCI chain actually needs to boot.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the daemon's operational settings: everything cmd/chaind
// needs before it can open pkg/db and start serving ABCI, none of which is
// part of consensus (validators agree on genesis and block contents, not
// on where an individual node keeps its leveldb files).
type Config struct {
	// DataDir is the base directory for the node's versioned store and
	// any generated keys.
	DataDir string

	// ABCIAddress is the address the ABCI server listens on, in the
	// protocol://host:port form github.com/cometbft/cometbft/abci/server
	// expects (e.g. "tcp://0.0.0.0:26658", "unix:///tmp/chaind.sock").
	ABCIAddress string

	// ABCITransport selects the ABCI server transport: "socket" or "grpc".
	ABCITransport string

	// MetricsAddress, if non-empty, serves the prometheus registry over
	// HTTP at /metrics.
	MetricsAddress string

	// PruneWindow is a count of recent versions to keep queryable, 0
	// meaning all of them. cmd/chaind does not pass it to pkg/db, which
	// performs no pruning and keeps every version.
	PruneWindow uint64

	// RetainedVersions is an alias some deployments set instead of a
	// prune window directly; like PruneWindow, it is loaded but not passed
	// to pkg/db.
	RetainedVersions uint64

	// MinGasPrice is a per-unit gas price floor. cmd/chaind does not pass
	// it to pkg/app, and CheckTx applies no gas price check.
	MinGasPrice uint64

	LogLevel string
	ChainID  string
}

// Load reads daemon configuration from environment variables, following
// the teacher's getEnv*-helper convention. Every field has a workable
// development default; Validate tightens that for a production run.
func Load() (*Config, error) {
	cfg := &Config{
		DataDir:          getEnv("CHAIND_DATA_DIR", "./data"),
		ABCIAddress:      getEnv("CHAIND_ABCI_ADDRESS", "tcp://0.0.0.0:26658"),
		ABCITransport:    getEnv("CHAIND_ABCI_TRANSPORT", "socket"),
		MetricsAddress:   getEnv("CHAIND_METRICS_ADDRESS", ""),
		PruneWindow:      getEnvUint64("CHAIND_PRUNE_WINDOW", 0),
		RetainedVersions: getEnvUint64("CHAIND_RETAINED_VERSIONS", 0),
		MinGasPrice:      getEnvUint64("CHAIND_MIN_GAS_PRICE", 0),
		LogLevel:         getEnv("CHAIND_LOG_LEVEL", "info"),
		ChainID:          getEnv("CHAIND_CHAIN_ID", ""),
	}
	return cfg, nil
}

// Validate checks that the settings needed to boot a node are actually
// present; it does not duplicate the genesis document's own chain_id
// requirement (pkg/app.ParseGenesis enforces that independently).
func (c *Config) Validate() error {
	var errs []string
	if c.DataDir == "" {
		errs = append(errs, "CHAIND_DATA_DIR must not be empty")
	}
	if c.ABCIAddress == "" {
		errs = append(errs, "CHAIND_ABCI_ADDRESS must not be empty")
	}
	switch c.ABCITransport {
	case "socket", "grpc":
	default:
		errs = append(errs, fmt.Sprintf("CHAIND_ABCI_TRANSPORT must be \"socket\" or \"grpc\", got %q", c.ABCITransport))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseUint(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// ChainConfigFile is a YAML document for node-level settings that are
// natural to template per-environment (peer seeds, moniker) rather than
// pass as a dozen flags. Neither cmd/chaincli nor cmd/chaind reads or
// writes it; LoadChainConfigFile and WriteChainConfigFile are its only I/O.
// It is distinct from pkg/app.Genesis: genesis is consensus-critical and
// delivered to InitChain verbatim by CometBFT; this file never reaches the
// state machine.
type ChainConfigFile struct {
	Moniker    string   `yaml:"moniker"`
	Seeds      []string `yaml:"seeds"`
	ChainID    string   `yaml:"chain_id"`
	GenesisURL string   `yaml:"genesis_url"`
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}, the same
// substitution the teacher's anchor config loader performs on its YAML
// documents before unmarshaling.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		name, fallback := groups[1], groups[3]
		if value := os.Getenv(name); value != "" {
			return value
		}
		return fallback
	})
}

// LoadChainConfigFile reads and env-substitutes a YAML chain-config file.
func LoadChainConfigFile(path string) (*ChainConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read chain config %s: %w", path, err)
	}
	var out ChainConfigFile
	if err := yaml.Unmarshal([]byte(substituteEnvVars(string(data))), &out); err != nil {
		return nil, fmt.Errorf("config: parse chain config %s: %w", path, err)
	}
	return &out, nil
}

// WriteChainConfigFile writes cfg back out as YAML, in the form
// LoadChainConfigFile reads.
func WriteChainConfigFile(path string, cfg ChainConfigFile) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal chain config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write chain config %s: %w", path, err)
	}
	return nil
}
