package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9090
database:
  dsn: postgres://indexer@localhost/bridges
blockchain:
  networks:
    ethereum:
      rpcEndpoints: ["https://eth.example"]
      enabled: true
    solana:
      rpcEndpoints: ["https://sol.example"]
      enabled: true
    base:
      enabled: false
contracts:
  mayan:
    swift: "0x0000000000000000000000000000000000000001"
extraction:
  mayanFulfillWindow: 5
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "bridge-indexer", cfg.NATS.SubjectPrefix)
	assert.Equal(t, 10, cfg.NATS.Timeout)

	assert.Equal(t, 4, cfg.Extraction.DeBridgeCreateWindow)
	assert.Equal(t, 3, cfg.Extraction.MayanInitOrderWindow)
	assert.Equal(t, 5, cfg.Extraction.MayanFulfillWindow)
	assert.Equal(t, 1000, cfg.Extraction.SignaturePageSize)

	assert.Equal(t, "evm", cfg.Blockchain.Networks["ethereum"].Family)
	assert.Equal(t, "solana", cfg.Blockchain.Networks["solana"].Family)
	assert.Equal(t, uint64(2000), cfg.Blockchain.Networks["ethereum"].LogBatchSize)

	assert.Equal(t, "0x0000000000000000000000000000000000000001", cfg.Contracts.Mayan.Swift)
	assert.Equal(t, DefaultMayanForwarder, cfg.Contracts.Mayan.Forwarder)
	assert.Equal(t, DefaultDlnSource, cfg.Contracts.DeBridge.DlnSource)
	assert.Equal(t, DefaultJupiter, cfg.Contracts.Jupiter)
}

func TestParseRejectsBadYAML(t *testing.T) {
	_, err := Parse([]byte("server: ["))
	assert.Error(t, err)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	t.Setenv("DATABASE_DSN", "postgres://override")
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("NATS_URL", "nats://bus:4222")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("VALUATION_BASE_URL", "http://prices")
	t.Setenv("DECODED_DUMP_DIR", "/var/dumps")
	t.Setenv("ETHEREUM_RPC_ENDPOINTS", "https://a.example,https://b.example")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://override", cfg.Database.DSN)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "nats://bus:4222", cfg.NATS.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "http://prices", cfg.Valuation.BaseURL)
	assert.Equal(t, "/var/dumps", cfg.Extraction.DecodedDumpDir)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Blockchain.Networks["ethereum"].RPCEndpoints)
	assert.Equal(t, []string{"https://sol.example"}, cfg.Blockchain.Networks["solana"].RPCEndpoints)
	assert.Same(t, cfg, AppConfig)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGetNetworkConfig(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	cfg.Blockchain.Networks["arbitrum"] = NetworkConfig{Enabled: true}

	network, err := cfg.GetNetworkConfig("ethereum")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://eth.example"}, network.RPCEndpoints)

	_, err = cfg.GetNetworkConfig("polygon")
	assert.ErrorContains(t, err, "not found")
	_, err = cfg.GetNetworkConfig("base")
	assert.ErrorContains(t, err, "disabled")
	_, err = cfg.GetNetworkConfig("arbitrum")
	assert.ErrorContains(t, err, "no rpc endpoints")
}

func TestDefaultContracts(t *testing.T) {
	c := DefaultContracts()
	assert.Equal(t, DefaultDlnDestination, c.DeBridge.DlnDestination)
	assert.Equal(t, DefaultMayanAuction, c.Mayan.AuctionSolana)
}
