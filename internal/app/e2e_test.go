package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bridge-indexer/internal/config"
	"bridge-indexer/internal/db"
	"bridge-indexer/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Needs DATABASE_DSN pointing at a scratch database and
// {ETHEREUM,ARBITRUM,BNB,BASE}_RPC_ENDPOINTS with archive access.
const e2eConfig = `
blockchain:
  networks:
    ethereum: {enabled: true}
    arbitrum: {enabled: true}
    bnb: {enabled: true}
    base: {enabled: true}
`

func TestDeBridgeHourOnMainnet(t *testing.T) {
	if os.Getenv("BRIDGE_INDEXER_E2E") != "1" {
		t.Skip("set BRIDGE_INDEXER_E2E=1 to run against live RPC and postgres")
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(e2eConfig), 0o600))
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	gdb, err := db.InitDB(cfg.Database)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	for _, table := range []string{"debridge_created_orders", "debridge_fulfilled_orders", "debridge_claimed_unlocks", "transactions"} {
		require.NoError(t, gdb.Exec("TRUNCATE TABLE "+table).Error)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	c, err := NewServiceContainer(cfg, gdb, logger)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.InitChainClients())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	start, end := time.Unix(1733011200, 0).UTC(), time.Unix(1733014800, 0).UTC()
	for _, chain := range []string{"ethereum", "arbitrum", "bnb", "base"} {
		summary, err := c.ExtractionService.ExtractEVM(ctx, models.BridgeDeBridge, chain, start, end)
		require.NoError(t, err, chain)
		assert.Zero(t, summary.Failed, chain)
	}

	count := func(model interface{}) int64 {
		var n int64
		require.NoError(t, gdb.Model(model).Count(&n).Error)
		return n
	}
	assert.Equal(t, int64(72), count(&models.DeBridgeCreatedOrder{}))
	assert.Equal(t, int64(71), count(&models.DeBridgeFulfilledOrder{}))
	assert.Equal(t, int64(108), count(&models.DeBridgeClaimedUnlock{}))

	_, err = c.MiddleInfoService.EnrichDeBridge(ctx, c.EVMChainNames())
	require.NoError(t, err)

	rows, err := c.CctxGenerator.Generate(ctx, models.BridgeDeBridge)
	require.NoError(t, err)
	assert.Equal(t, 71, rows)
}
