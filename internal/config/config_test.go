package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cosmos/voyager-eureka/internal/config"
	"github.com/cosmos/voyager-eureka/internal/message"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "voyager.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadResolvesCounterpartyLightClient(t *testing.T) {
	path := writeConfig(t, `
log_level: info
chain:
  evm-1:
    type: evm
    chain_id: "1"
    counterparty_light_client: ethereum-mainnet
  union-1:
    type: union
    chain_id: union-1
    counterparty_light_client: cometbls-mainnet
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, message.EthereumMainnet, cfg.Chains["evm-1"].CounterpartyLightClient)
	require.Equal(t, message.CometblsMainnet, cfg.Chains["union-1"].CounterpartyLightClient)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
chain: {}
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "in-memory", cfg.Queue.Kind)
}

func TestLoadRejectsUnknownCounterpartyLightClient(t *testing.T) {
	path := writeConfig(t, `
chain:
  evm-1:
    type: evm
    chain_id: "1"
    counterparty_light_client: not-a-real-light-client
`)

	_, err := config.Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown counterparty_light_client")
}

func TestLoadHonorsEnvOverride(t *testing.T) {
	path := writeConfig(t, `
chain: {}
`)
	t.Setenv("VOYAGER_LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
}
