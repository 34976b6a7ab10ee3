package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.DataDir)
	assert.NotEmpty(t, cfg.ABCIAddress)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownTransport(t *testing.T) {
	cfg := &Config{DataDir: "./data", ABCIAddress: "tcp://0.0.0.0:26658", ABCITransport: "carrier-pigeon"}
	assert.Error(t, cfg.Validate())
}

func TestChainConfigFileRoundTripWithEnvSubstitution(t *testing.T) {
	t.Setenv("CHAINKIT_TEST_MONIKER", "node-from-env")
	dir := t.TempDir()
	path := filepath.Join(dir, "chain.yaml")
	raw := "moniker: ${CHAINKIT_TEST_MONIKER}\nchain_id: test-1\nseeds:\n  - \"seed-1\"\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	got, err := LoadChainConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "node-from-env", got.Moniker, "env substitution failed")
	assert.Equal(t, "test-1", got.ChainID)
	assert.Len(t, got.Seeds, 1)
}

func TestWriteChainConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chain.yaml")
	want := ChainConfigFile{Moniker: "node-1", ChainID: "test-1", Seeds: []string{"a", "b"}}
	require.NoError(t, WriteChainConfigFile(path, want))

	got, err := LoadChainConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, want.Moniker, got.Moniker)
	assert.Equal(t, want.ChainID, got.ChainID)
	assert.Len(t, got.Seeds, 2)
}
