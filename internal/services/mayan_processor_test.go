package services

import (
	"context"
	"math/big"
	"testing"

	"bridge-indexer/internal/config"
	"bridge-indexer/internal/types"
	"bridge-indexer/internal/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func padded(addr common.Address) [32]byte {
	var w [32]byte
	copy(w[12:], addr.Bytes())
	return w
}

func swiftParams(destWormhole uint16) types.SwiftOrderParams {
	return types.SwiftOrderParams{
		Trader:       padded(testMaker),
		TokenOut:     padded(testUSDCArb),
		MinAmountOut: 98_000,
		GasDrop:      0,
		CancelFee:    10,
		RefundFee:    20,
		Deadline:     1_700_003_600,
		DestAddr:     padded(testReceiver),
		DestChainId:  destWormhole,
		ReferrerBps:  3,
		AuctionMode:  2,
		Random:       common.HexToHash("0x42"),
	}
}

func createOrderWithTokenCalldata(t *testing.T, token common.Address, amount int64, params types.SwiftOrderParams) []byte {
	t.Helper()
	body, err := types.SwiftCreateOrderWithToken.Inputs.Pack(token, big.NewInt(amount), params)
	require.NoError(t, err)
	return append(append([]byte{}, types.SwiftCreateOrderWithToken.ID...), body...)
}

func forwardedERC20Log(t *testing.T, protocol common.Address, calldata []byte, tx common.Hash) ethtypes.Log {
	t.Helper()
	data, err := types.ForwardedERC20Event.Inputs.Pack(testUSDC, big.NewInt(100_000), protocol, calldata)
	require.NoError(t, err)
	return ethtypes.Log{
		Address:     common.HexToAddress(config.DefaultMayanForwarder),
		Topics:      []common.Hash{types.ForwardedERC20Event.ID},
		Data:        data,
		TxHash:      tx,
		BlockNumber: 10,
	}
}

func swiftLog(topic common.Hash, data []byte, tx common.Hash) ethtypes.Log {
	return ethtypes.Log{
		Address:     common.HexToAddress(config.DefaultMayanSwift),
		Topics:      []common.Hash{topic},
		Data:        data,
		TxHash:      tx,
		BlockNumber: 11,
	}
}

func newMayanEVM(repo *memMayan) *MayanEventProcessor {
	return NewMayanEventProcessor(repo, &memFailed{}, config.DefaultContracts().Mayan, quietLogger())
}

func TestMayanForwardedERC20ToSwift(t *testing.T) {
	repo := newMemMayan()
	p := newMayanEVM(repo)

	calldata := createOrderWithTokenCalldata(t, testUSDC, 100_000, swiftParams(23))
	lg := forwardedERC20Log(t, common.HexToAddress(config.DefaultMayanSwift), calldata, common.HexToHash("0xf1"))

	result := p.ProcessLogs(context.Background(), logBatch("ethereum", lg, lg))
	assert.Equal(t, BatchResult{Included: 1, Skipped: 1}, result)

	require.Len(t, repo.forwarded, 1)
	f := repo.forwarded[0]
	assert.Equal(t, "ForwardedERC20", f.EventName)
	assert.Equal(t, "createOrderWithToken", f.Method)
	assert.Equal(t, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", f.TokenIn)
	assert.Equal(t, "100000", f.AmountIn)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", f.Trader)
	assert.Equal(t, "arbitrum", f.DestChain)
	assert.Equal(t, "0x2222222222222222222222222222222222222222", f.DestAddr)
	assert.Equal(t, "0xaf88d065e77c8cc2239327c5edb3a432268e5831", f.TokenOut)
	assert.Equal(t, "98000", f.MinAmountOut)
	assert.Equal(t, uint8(2), f.AuctionMode)
	assert.Nil(t, f.MiddleToken)
}

func TestMayanForwarderToOtherProtocolDropped(t *testing.T) {
	repo := newMemMayan()
	p := newMayanEVM(repo)

	calldata := createOrderWithTokenCalldata(t, testUSDC, 100_000, swiftParams(23))
	lg := forwardedERC20Log(t, common.HexToAddress("0x8888888888888888888888888888888888888888"), calldata, common.HexToHash("0xf2"))

	result := p.ProcessLogs(context.Background(), logBatch("ethereum", lg))
	assert.Equal(t, BatchResult{Skipped: 1}, result)
	assert.Empty(t, repo.forwarded)
	// the stored-record lookup runs before the protocol filter
	assert.Equal(t, 1, repo.forwardedLookups)
}

func TestMayanForwardedToExcludedChainDropped(t *testing.T) {
	repo := newMemMayan()
	p := newMayanEVM(repo)

	// wormhole 3 is not a supported chain
	calldata := createOrderWithTokenCalldata(t, testUSDC, 100_000, swiftParams(3))
	lg := forwardedERC20Log(t, common.HexToAddress(config.DefaultMayanSwift), calldata, common.HexToHash("0xf3"))

	result := p.ProcessLogs(context.Background(), logBatch("ethereum", lg))
	assert.Equal(t, BatchResult{Skipped: 1}, result)
	assert.Empty(t, repo.forwarded)
}

func TestMayanSwiftLifecycleEvents(t *testing.T) {
	repo := newMemMayan()
	p := newMayanEVM(repo)
	key := common.HexToHash("0xc0ffee")

	created, err := types.SwiftOrderCreatedEvent.Inputs.Pack(key)
	require.NoError(t, err)
	fulfilled, err := types.SwiftOrderFulfilledEvent.Inputs.Pack(key, uint64(55), big.NewInt(97_500))
	require.NoError(t, err)
	refunded, err := types.SwiftOrderRefundedEvent.Inputs.Pack(key, big.NewInt(99_000))
	require.NoError(t, err)

	batch := logBatch("arbitrum",
		swiftLog(types.SwiftOrderCreatedEvent.ID, created, common.HexToHash("0xe1")),
		swiftLog(types.SwiftOrderFulfilledEvent.ID, fulfilled, common.HexToHash("0xe2")),
		swiftLog(types.SwiftOrderRefundedEvent.ID, refunded, common.HexToHash("0xe3")),
	)
	result := p.ProcessLogs(context.Background(), batch)
	require.Equal(t, BatchResult{Included: 3}, result)

	hash := hexutil.Encode(key[:])
	require.Len(t, repo.orders, 1)
	assert.Equal(t, hash, repo.orders[0].OrderHash)
	assert.Nil(t, repo.orders[0].AmountIn)

	require.Len(t, repo.fulfilled, 1)
	assert.Equal(t, hash, *repo.fulfilled[0].OrderHash)
	assert.Equal(t, uint64(55), *repo.fulfilled[0].Sequence)
	assert.Equal(t, "97500", repo.fulfilled[0].NetAmount)

	require.Len(t, repo.refunded, 1)
	assert.Equal(t, "99000", repo.refunded[0].NetAmount)
}

// ===== Solana =====

const (
	testMint      = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	testTraderKey = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
)

func mustSolanaBytes(t *testing.T, key string) []byte {
	t.Helper()
	raw, err := utils.SolanaAddressToBytes(key)
	require.NoError(t, err)
	return raw
}

func newMayanSolana(repo *memMayan) *MayanSolanaProcessor {
	windows := config.ExtractionConfig{MayanInitOrderWindow: 3, MayanFulfillWindow: 3}
	return NewMayanSolanaProcessor(repo, &memFailed{}, config.DefaultContracts(), windows, quietLogger())
}

func solanaOrderHash(t *testing.T) string {
	t.Helper()
	addr := func(raw []byte) utils.Address32 {
		a, err := utils.Address32FromBytes(raw)
		require.NoError(t, err)
		return a
	}
	return utils.ReconstructOrderHash(utils.MayanOrderParams{
		Trader:       addr(mustSolanaBytes(t, testTraderKey)),
		SrcChainID:   1,
		TokenIn:      addr(mustSolanaBytes(t, testMint)),
		DestAddr:     addr(testReceiver.Bytes()),
		DestChainID:  23,
		TokenOut:     addr(testUSDCArb.Bytes()),
		MinAmountOut: 49_000_000,
		CancelFee:    5,
		RefundFee:    6,
		Deadline:     1_700_009_000,
		ReferrerAddr: addr(make([]byte, 32)),
		ReferrerBps:  0,
		MayanBps:     3,
		AuctionMode:  2,
		RandomKey:    addr(common.HexToHash("0x77").Bytes()),
	})
}

func orderInfoArgs(t *testing.T) map[string]interface{} {
	return map[string]interface{}{
		"trader":         hexutil.Encode(mustSolanaBytes(t, testTraderKey)),
		"chain_source":   1,
		"token_in":       hexutil.Encode(mustSolanaBytes(t, testMint)),
		"addr_dest":      testReceiver.Hex(),
		"chain_dest":     23,
		"token_out":      testUSDCArb.Hex(),
		"amount_out_min": 49_000_000,
		"gas_drop":       0,
		"fee_cancel":     5,
		"fee_refund":     6,
		"deadline":       1_700_009_000,
		"addr_ref":       hexutil.Encode(make([]byte, 32)),
		"fee_rate_ref":   0,
		"fee_rate_mayan": 3,
		"auction_mode":   2,
		"key_rnd":        common.HexToHash("0x77").Hex(),
	}
}

func TestMayanSolanaInitOrderAndBidShareOrderHash(t *testing.T) {
	repo := newMemMayan()
	p := newMayanSolana(repo)
	contracts := config.DefaultContracts()

	init := &types.SolanaTransaction{
		Signature: "sig-init",
		Slot:      500,
		BlockTime: 1_700_000_500,
		Success:   true,
		Instructions: []types.Instruction{
			{
				ProgramID: contracts.Mayan.SwiftSolana,
				Name:      types.IxSwiftInitOrder,
				Args: rawArgs(t, map[string]interface{}{"params": map[string]interface{}{
					"trader":         hexutil.Encode(mustSolanaBytes(t, testTraderKey)),
					"amount_in_min":  "50000000",
					"addr_dest":      testReceiver.Hex(),
					"chain_dest":     23,
					"token_out":      testUSDCArb.Hex(),
					"amount_out_min": "49000000",
					"gas_drop":       0,
					"fee_cancel":     5,
					"fee_refund":     6,
					"deadline":       1_700_009_000,
					"addr_ref":       hexutil.Encode(make([]byte, 32)),
					"fee_rate_ref":   0,
					"fee_rate_mayan": 3,
					"auction_mode":   2,
					"key_rnd":        common.HexToHash("0x77").Hex(),
				}}),
				Accounts: []types.AccountMeta{
					{Name: "state", Pubkey: "orderState111"},
					{Name: "mint_from", Pubkey: testMint},
				},
			},
			transferIx(t, 50_000_000),
		},
	}
	bid := &types.SolanaTransaction{
		Signature: "sig-bid",
		Slot:      501,
		BlockTime: 1_700_000_501,
		Success:   true,
		Instructions: []types.Instruction{{
			ProgramID: contracts.Mayan.AuctionSolana,
			Name:      types.IxAuctionBid,
			Args:      rawArgs(t, map[string]interface{}{"order": orderInfoArgs(t), "amount_bid": "49100000"}),
			Accounts: []types.AccountMeta{
				{Name: "driver", Pubkey: "driver111"},
				{Name: "auction_state", Pubkey: "auction111"},
			},
		}},
	}

	result := p.ProcessTransactions(context.Background(), []*types.SolanaTransaction{init, bid})
	require.Equal(t, BatchResult{Included: 2}, result)

	want := solanaOrderHash(t)
	require.Len(t, repo.orders, 1)
	o := repo.orders[0]
	assert.Equal(t, want, o.OrderHash)
	assert.Equal(t, "orderState111", *o.StateAccount)
	assert.Equal(t, testTraderKey, o.Trader)
	assert.Equal(t, testMint, o.TokenIn)
	assert.Equal(t, "50000000", *o.AmountIn)
	assert.Equal(t, "arbitrum", o.DestChain)
	assert.Equal(t, "0xaf88d065e77c8cc2239327c5edb3a432268e5831", o.TokenOut)

	require.Len(t, repo.bids, 1)
	assert.Equal(t, want, repo.bids[0].OrderHash)
	assert.Equal(t, "49100000", repo.bids[0].AmountBid)
	assert.Equal(t, "auction111", repo.bids[0].AuctionState)
}

func TestMayanSolanaFulfillUnlockAndClose(t *testing.T) {
	repo := newMemMayan()
	p := newMayanSolana(repo)
	contracts := config.DefaultContracts()

	fulfill := &types.SolanaTransaction{
		Signature: "sig-fulfill",
		Slot:      600,
		Success:   true,
		Instructions: []types.Instruction{
			{
				ProgramID: contracts.Mayan.SwiftSolana,
				Name:      types.IxSwiftFulfill,
				Args:      rawArgs(t, map[string]string{"addr_unlocker": testTaker.Hex()}),
				Accounts: []types.AccountMeta{
					{Name: "state", Pubkey: "destState111"},
					{Name: "driver", Pubkey: "driver111"},
					{Name: "mint_to", Pubkey: testMint},
					{Name: "dest", Pubkey: testTraderKey},
				},
			},
			transferIx(t, 48_900_000),
		},
	}
	unlock := &types.SolanaTransaction{
		Signature: "sig-unlock",
		Slot:      601,
		Success:   true,
		Instructions: []types.Instruction{{
			ProgramID: contracts.Mayan.SwiftSolana,
			Name:      types.IxSwiftUnlock,
			Accounts: []types.AccountMeta{
				{Name: "state", Pubkey: "srcState111"},
				{Name: "driver", Pubkey: "driver111"},
			},
		}},
	}
	closeAuction := &types.SolanaTransaction{
		Signature: "sig-close",
		Slot:      602,
		Success:   true,
		Instructions: []types.Instruction{{
			ProgramID: contracts.Mayan.AuctionSolana,
			Name:      types.IxAuctionClose,
			Accounts: []types.AccountMeta{
				{Name: "auction", Pubkey: "auction111"},
				{Name: "initializer", Pubkey: "driver111"},
			},
		}},
	}

	txs := []*types.SolanaTransaction{fulfill, unlock, closeAuction}
	require.Equal(t, BatchResult{Included: 3}, p.ProcessTransactions(context.Background(), txs))
	require.Equal(t, BatchResult{Skipped: 3}, p.ProcessTransactions(context.Background(), txs))

	require.Len(t, repo.fulfilled, 1)
	f := repo.fulfilled[0]
	assert.Nil(t, f.OrderHash)
	assert.Equal(t, "destState111", *f.StateAccount)
	assert.Equal(t, "48900000", f.NetAmount)
	assert.Equal(t, testTraderKey, f.Recipient)

	require.Len(t, repo.unlocked, 1)
	assert.Equal(t, "srcState111", *repo.unlocked[0].StateAccount)
	assert.Equal(t, "driver111", repo.unlocked[0].Unlocker)

	require.Len(t, repo.closes, 1)
	assert.Equal(t, "driver111", repo.closes[0].Initializer)
}
