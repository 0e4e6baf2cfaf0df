package services

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"bridge-indexer/internal/config"
	"bridge-indexer/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testMaker    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testUSDC     = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	testUSDCArb  = common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831")
	testReceiver = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testTaker    = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func testOrder(giveChain, takeChain int64) types.DlnOrder {
	return types.DlnOrder{
		MakerOrderNonce:             7,
		MakerSrc:                    testMaker.Bytes(),
		GiveChainId:                 big.NewInt(giveChain),
		GiveTokenAddress:            testUSDC.Bytes(),
		GiveAmount:                  big.NewInt(1_000_000),
		TakeChainId:                 big.NewInt(takeChain),
		TakeTokenAddress:            testUSDCArb.Bytes(),
		TakeAmount:                  big.NewInt(990_000),
		ReceiverDst:                 testReceiver.Bytes(),
		GivePatchAuthoritySrc:       testMaker.Bytes(),
		OrderAuthorityAddressDst:    testMaker.Bytes(),
		AllowedTakerDst:             []byte{},
		AllowedCancelBeneficiarySrc: []byte{},
		ExternalCall:                []byte{},
	}
}

func createdOrderLog(t *testing.T, contract common.Address, order types.DlnOrder, orderID common.Hash, tx common.Hash, block uint64) ethtypes.Log {
	t.Helper()
	data, err := types.CreatedOrderEvent.Inputs.Pack(order, orderID, []byte{}, big.NewInt(1000), big.NewInt(400), uint32(0), []byte{})
	require.NoError(t, err)
	return ethtypes.Log{
		Address:     contract,
		Topics:      []common.Hash{types.CreatedOrderEvent.ID},
		Data:        data,
		TxHash:      tx,
		BlockNumber: block,
	}
}

func fulfilledOrderLog(t *testing.T, contract common.Address, order types.DlnOrder, orderID common.Hash, tx common.Hash, block uint64) ethtypes.Log {
	t.Helper()
	data, err := types.FulfilledOrderEvent.Inputs.Pack(order, orderID, testTaker, testTaker)
	require.NoError(t, err)
	return ethtypes.Log{
		Address:     contract,
		Topics:      []common.Hash{types.FulfilledOrderEvent.ID},
		Data:        data,
		TxHash:      tx,
		BlockNumber: block,
	}
}

func logBatch(chain string, logs ...ethtypes.Log) *types.EVMLogBatch {
	times := make(map[uint64]time.Time)
	for _, lg := range logs {
		times[lg.BlockNumber] = time.Unix(1_700_000_000+int64(lg.BlockNumber), 0).UTC()
	}
	return &types.EVMLogBatch{Blockchain: chain, Logs: logs, BlockTimes: times}
}

func newDeBridgeEVM(repo *memDeBridge, failed *memFailed) *DeBridgeEventProcessor {
	return NewDeBridgeEventProcessor(repo, failed, config.DefaultContracts().DeBridge, quietLogger())
}

func TestDeBridgeCreatedOrderStoredOnce(t *testing.T) {
	repo := newMemDeBridge()
	p := newDeBridgeEVM(repo, &memFailed{})
	source := common.HexToAddress(config.DefaultDlnSource)

	orderID := common.HexToHash("0xaa01")
	tx := common.HexToHash("0xBEEF")
	batch := logBatch("ethereum", createdOrderLog(t, source, testOrder(1, 42161), orderID, tx, 100))

	first := p.ProcessLogs(context.Background(), batch)
	assert.Equal(t, BatchResult{Included: 1}, first)

	second := p.ProcessLogs(context.Background(), batch)
	assert.Equal(t, BatchResult{Skipped: 1}, second)

	require.Len(t, repo.created, 1)
	o := repo.created[hexutil.Encode(orderID[:])]
	require.NotNil(t, o)
	assert.Equal(t, "ethereum", o.Blockchain)
	assert.Equal(t, "ethereum", o.GiveChain)
	assert.Equal(t, "arbitrum", o.TakeChain)
	assert.Equal(t, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", o.GiveTokenAddress)
	assert.Equal(t, "0xaf88d065e77c8cc2239327c5edb3a432268e5831", o.TakeTokenAddress)
	assert.Equal(t, "1000000", o.GiveAmount)
	assert.Equal(t, "990000", o.TakeAmount)
	assert.Equal(t, "7", o.MakerOrderNonce)
	assert.Equal(t, "1000", *o.NativeFixFee)
	assert.Equal(t, "400", *o.PercentFee)
	assert.Equal(t, tx.Hex(), o.TransactionHash)
	assert.Equal(t, time.Unix(1_700_000_100, 0).UTC(), o.Timestamp)
	assert.Nil(t, o.AllowedTakerDst)
	assert.Nil(t, o.ExternalCall)
}

func TestDeBridgeExcludedChainDropped(t *testing.T) {
	repo := newMemDeBridge()
	p := newDeBridgeEVM(repo, &memFailed{})
	source := common.HexToAddress(config.DefaultDlnSource)

	batch := logBatch("ethereum", createdOrderLog(t, source, testOrder(1, 100000002), common.HexToHash("0xaa02"), common.HexToHash("0x01"), 5))
	result := p.ProcessLogs(context.Background(), batch)

	assert.Equal(t, BatchResult{Skipped: 1}, result)
	assert.Empty(t, repo.created)
}

func TestDeBridgeFulfilledOrderOnDestination(t *testing.T) {
	repo := newMemDeBridge()
	p := newDeBridgeEVM(repo, &memFailed{})
	destination := common.HexToAddress(config.DefaultDlnDestination)

	orderID := common.HexToHash("0xaa03")
	batch := logBatch("arbitrum", fulfilledOrderLog(t, destination, testOrder(1, 42161), orderID, common.HexToHash("0x02"), 9))
	result := p.ProcessLogs(context.Background(), batch)

	require.Equal(t, BatchResult{Included: 1}, result)
	f := repo.fulfilled[hexutil.Encode(orderID[:])]
	require.NotNil(t, f)
	assert.Equal(t, "arbitrum", f.Blockchain)
	assert.Equal(t, "0x3333333333333333333333333333333333333333", f.Taker)
	assert.Equal(t, "0x2222222222222222222222222222222222222222", f.ReceiverDst)
}

func TestDeBridgeForeignContractAndUnknownTopic(t *testing.T) {
	repo := newMemDeBridge()
	p := newDeBridgeEVM(repo, &memFailed{})

	// a CreatedOrder topic emitted by some other contract
	other := common.HexToAddress("0x9999999999999999999999999999999999999999")
	spoofed := createdOrderLog(t, other, testOrder(1, 42161), common.HexToHash("0xaa04"), common.HexToHash("0x03"), 1)
	unknown := ethtypes.Log{
		Address: common.HexToAddress(config.DefaultDlnSource),
		Topics:  []common.Hash{common.HexToHash("0xdead")},
	}

	result := p.ProcessLogs(context.Background(), logBatch("ethereum", spoofed, unknown))
	assert.Equal(t, BatchResult{Skipped: 1}, result)
	assert.Empty(t, repo.created)
}

func TestDeBridgeMalformedLogRecordedAsFailure(t *testing.T) {
	repo := newMemDeBridge()
	failed := &memFailed{}
	p := newDeBridgeEVM(repo, failed)
	p.SetRunID("run-1")

	source := common.HexToAddress(config.DefaultDlnSource)
	good := createdOrderLog(t, source, testOrder(1, 42161), common.HexToHash("0xaa05"), common.HexToHash("0x04"), 2)
	bad := ethtypes.Log{
		Address:     source,
		Topics:      []common.Hash{types.CreatedOrderEvent.ID},
		Data:        []byte{0x01, 0x02},
		TxHash:      common.HexToHash("0x05"),
		BlockNumber: 3,
	}

	result := p.ProcessLogs(context.Background(), logBatch("ethereum", bad, good))
	assert.Equal(t, BatchResult{Included: 1, Failed: 1}, result)

	records, err := failed.FindByRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "CreatedOrder", records[0].EventName)
	assert.Equal(t, "debridge", records[0].Bridge)
	assert.Equal(t, uint64(3), records[0].BlockNumber)
}

func TestDeBridgeProcessorSubscriptions(t *testing.T) {
	p := newDeBridgeEVM(newMemDeBridge(), nil)
	assert.ElementsMatch(t, []common.Address{
		common.HexToAddress(config.DefaultDlnSource),
		common.HexToAddress(config.DefaultDlnDestination),
	}, p.Addresses())
	assert.ElementsMatch(t, []common.Hash{
		types.CreatedOrderEvent.ID,
		types.FulfilledOrderEvent.ID,
		types.ClaimedUnlockEvent.ID,
	}, p.Topics())
}

// ===== Solana =====

func rawArgs(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func word(n int64) string {
	return hexutil.Encode(common.LeftPadBytes(big.NewInt(n).Bytes(), 32))
}

func transferIx(t *testing.T, amount uint64) types.Instruction {
	return types.Instruction{
		ProgramID: "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
		Name:      types.IxTransferChecked,
		Args:      rawArgs(t, map[string]interface{}{"amount": amount, "decimals": 6}),
	}
}

func newDeBridgeSolana(repo *memDeBridge, failed *memFailed) *DeBridgeSolanaProcessor {
	windows := config.ExtractionConfig{DeBridgeCreateWindow: 4, DeBridgeFulfillWindow: 4, DeBridgeClaimWindow: 4}
	return NewDeBridgeSolanaProcessor(repo, failed, config.DefaultContracts(), windows, quietLogger())
}

func TestDeBridgeSolanaCreateOrderWithSwap(t *testing.T) {
	repo := newMemDeBridge()
	p := newDeBridgeSolana(repo, &memFailed{})
	contracts := config.DefaultContracts()

	orderID := common.HexToHash("0xbb01")
	tx := &types.SolanaTransaction{
		Signature: "sig-create",
		Slot:      300,
		BlockTime: 1_700_000_300,
		Success:   true,
		Instructions: []types.Instruction{
			{
				ProgramID: contracts.Jupiter,
				Name:      types.IxSwapEvent,
				Args: rawArgs(t, types.SwapEventArgs{
					Amm:          "amm",
					InputMint:    "So11111111111111111111111111111111111111112",
					InputAmount:  "0x3b9aca00", // 1e9
					OutputMint:   "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
					OutputAmount: "0x2faf080", // 5e7
				}),
			},
			{
				ProgramID: contracts.DeBridge.SolanaSource,
				Name:      types.IxDlnCreateOrderWithNonce,
				Args: rawArgs(t, map[string]interface{}{
					"order_args": map[string]interface{}{
						"give_original_amount": "50000000",
						"take": map[string]interface{}{
							"chain_id":      word(42161),
							"token_address": testUSDCArb.Hex(),
							"amount":        word(49_000_000),
						},
						"receiver_dst":                testReceiver.Hex(),
						"give_patch_authority_src":    "maker111",
						"order_authority_address_dst": testReceiver.Hex(),
					},
					"nonce": 12,
				}),
				Accounts: []types.AccountMeta{
					{Name: "maker", Pubkey: "maker111"},
					{Name: "token_mint", Pubkey: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"},
					{Name: "give_order_state", Pubkey: "state111"},
				},
			},
			transferIx(t, 50_000_000),
			{
				ProgramID: contracts.DeBridge.SolanaSource,
				Name:      types.IxDlnCreatedOrderID,
				Args:      rawArgs(t, map[string]string{"order_id": orderID.Hex()}),
			},
		},
	}

	result := p.ProcessTransactions(context.Background(), []*types.SolanaTransaction{tx})
	require.Equal(t, BatchResult{Included: 1}, result)

	o := repo.created[orderID.Hex()]
	require.NotNil(t, o)
	assert.Equal(t, "solana", o.GiveChain)
	assert.Equal(t, "arbitrum", o.TakeChain)
	assert.Equal(t, "49000000", o.TakeAmount)
	assert.Equal(t, "0x2222222222222222222222222222222222222222", o.ReceiverDst)
	assert.Equal(t, "12", o.MakerOrderNonce)
	assert.Equal(t, "state111", *o.GiveOrderState)

	// swapped in the same transaction: the give side is what the user started with
	assert.Equal(t, "So11111111111111111111111111111111111111112", o.GiveTokenAddress)
	assert.Equal(t, "1000000000", o.GiveAmount)
	assert.Equal(t, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", *o.MiddleTokenAddress)
	assert.Equal(t, "50000000", *o.MiddleAmount)
}

func claimUnlockTx(t *testing.T, sig string, orderID common.Hash, success bool, siblings ...types.Instruction) *types.SolanaTransaction {
	contracts := config.DefaultContracts()
	ixs := []types.Instruction{{
		ProgramID: contracts.DeBridge.SolanaSource,
		Name:      types.IxDlnClaimUnlock,
		Args:      rawArgs(t, map[string]string{"order_id": orderID.Hex()}),
		Accounts: []types.AccountMeta{
			{Name: "unlock_beneficiary", Pubkey: "solver111"},
			{Name: "token_mint", Pubkey: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"},
		},
	}}
	return &types.SolanaTransaction{
		Signature:    sig,
		Slot:         400,
		BlockTime:    1_700_000_400,
		Success:      success,
		Instructions: append(ixs, siblings...),
	}
}

func TestDeBridgeSolanaClaimUnlock(t *testing.T) {
	repo := newMemDeBridge()
	p := newDeBridgeSolana(repo, &memFailed{})

	orderID := common.HexToHash("0xbb02")
	tx := claimUnlockTx(t, "sig-claim", orderID, true, transferIx(t, 77))

	result := p.ProcessTransactions(context.Background(), []*types.SolanaTransaction{tx, tx})
	assert.Equal(t, BatchResult{Included: 1, Skipped: 1}, result)

	u := repo.claimed[orderID.Hex()]
	require.NotNil(t, u)
	assert.Equal(t, "solver111", u.Beneficiary)
	assert.Equal(t, "77", u.GiveAmount)
	assert.Equal(t, uint64(400), u.BlockNumber)
	assert.Nil(t, u.Fee)
}

func TestDeBridgeSolanaMissingTransferIsFailure(t *testing.T) {
	repo := newMemDeBridge()
	failed := &memFailed{}
	p := newDeBridgeSolana(repo, failed)
	p.SetRunID("run-2")

	filler := types.Instruction{ProgramID: "ComputeBudget111111111111111111111111111111", Name: "setComputeUnitLimit"}
	// transfer sits outside the four-instruction window
	tx := claimUnlockTx(t, "sig-far", common.HexToHash("0xbb03"), true, filler, filler, filler, filler, transferIx(t, 5))

	result := p.ProcessTransactions(context.Background(), []*types.SolanaTransaction{tx})
	assert.Equal(t, BatchResult{Failed: 1}, result)
	assert.Empty(t, repo.claimed)

	records, _ := failed.FindByRun(context.Background(), "run-2")
	require.Len(t, records, 1)
	assert.Equal(t, "sig-far", records[0].TransactionHash)
	assert.Contains(t, records[0].LastError, "find sibling instruction")
}

func TestDeBridgeSolanaFailedTransactionSkipped(t *testing.T) {
	repo := newMemDeBridge()
	p := newDeBridgeSolana(repo, &memFailed{})

	tx := claimUnlockTx(t, "sig-reverted", common.HexToHash("0xbb04"), false, transferIx(t, 5))
	result := p.ProcessTransactions(context.Background(), []*types.SolanaTransaction{tx})

	assert.Equal(t, BatchResult{Skipped: 1}, result)
	assert.Empty(t, repo.claimed)
}
