package services

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"bridge-indexer/internal/config"
	"bridge-indexer/internal/models"
	"bridge-indexer/internal/repository"
	"bridge-indexer/internal/types"
	"bridge-indexer/internal/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

// MayanEventProcessor decodes Mayan Forwarder and Swift logs on EVM chains.
type MayanEventProcessor struct {
	repo     repository.MayanRepository
	runner   *eventRunner
	swift    common.Address
	handlers map[common.Hash]logHandler
}

func NewMayanEventProcessor(repo repository.MayanRepository, failed repository.FailedEventRepository, contracts config.MayanContracts, logger *logrus.Logger) *MayanEventProcessor {
	p := &MayanEventProcessor{
		repo:   repo,
		runner: newEventRunner(models.BridgeMayan, logger, failed),
		swift:  common.HexToAddress(contracts.Swift),
	}
	forwarder := common.HexToAddress(contracts.Forwarder)

	p.handlers = map[common.Hash]logHandler{
		types.ForwardedEthEvent.ID:          {event: types.ForwardedEthEvent, contract: forwarder, handle: p.handleForwardedEth},
		types.ForwardedERC20Event.ID:        {event: types.ForwardedERC20Event, contract: forwarder, handle: p.handleForwardedERC20},
		types.SwapAndForwardedEthEvent.ID:   {event: types.SwapAndForwardedEthEvent, contract: forwarder, handle: p.handleSwapAndForwardedEth},
		types.SwapAndForwardedERC20Event.ID: {event: types.SwapAndForwardedERC20Event, contract: forwarder, handle: p.handleSwapAndForwardedERC20},
		types.SwiftOrderCreatedEvent.ID:     {event: types.SwiftOrderCreatedEvent, contract: p.swift, handle: p.handleOrderCreated},
		types.SwiftOrderFulfilledEvent.ID:   {event: types.SwiftOrderFulfilledEvent, contract: p.swift, handle: p.handleOrderFulfilled},
		types.SwiftOrderUnlockedEvent.ID:    {event: types.SwiftOrderUnlockedEvent, contract: p.swift, handle: p.handleOrderUnlocked},
		types.SwiftOrderRefundedEvent.ID:    {event: types.SwiftOrderRefundedEvent, contract: p.swift, handle: p.handleOrderRefunded},
	}
	return p
}

func (p *MayanEventProcessor) Addresses() []common.Address {
	return uniqueContracts(p.handlers)
}

func (p *MayanEventProcessor) Topics() []common.Hash {
	return handlerTopics(p.handlers)
}

func (p *MayanEventProcessor) SetRunID(runID string) {
	p.runner.SetRunID(runID)
}

func (p *MayanEventProcessor) ProcessLogs(ctx context.Context, batch *types.EVMLogBatch) BatchResult {
	result := dispatchLogs(ctx, p.runner, p.handlers, batch)
	p.runner.logBatch("evm", batch.Blockchain, result, logrus.Fields{"from_block": batch.FromBlock, "to_block": batch.ToBlock})
	return result
}

// forwardedPayload is the part shared by the four forwarder events.
type forwardedPayload struct {
	eventName     string
	mayanProtocol common.Address
	data          []byte
	tokenIn       common.Address
	amountIn      *big.Int
	swapProtocol  *common.Address
	middleToken   *common.Address
	middleAmount  *big.Int
}

func (p *MayanEventProcessor) handleForwardedEth(ctx context.Context, batch *types.EVMLogBatch, lg *ethtypes.Log) error {
	var ev types.ForwardedEth
	if err := types.UnpackEvent(types.ForwardedEthEvent, lg.Data, &ev); err != nil {
		return err
	}
	// the value sent is only known from the transaction itself; the cctx generator reads it there
	return p.storeForwarded(ctx, batch, lg, &forwardedPayload{
		eventName:     types.ForwardedEthEvent.Name,
		mayanProtocol: ev.MayanProtocol,
		data:          ev.ProtocolData,
	})
}

func (p *MayanEventProcessor) handleForwardedERC20(ctx context.Context, batch *types.EVMLogBatch, lg *ethtypes.Log) error {
	var ev types.ForwardedERC20
	if err := types.UnpackEvent(types.ForwardedERC20Event, lg.Data, &ev); err != nil {
		return err
	}
	return p.storeForwarded(ctx, batch, lg, &forwardedPayload{
		eventName:     types.ForwardedERC20Event.Name,
		mayanProtocol: ev.MayanProtocol,
		data:          ev.ProtocolData,
		tokenIn:       ev.Token,
		amountIn:      ev.Amount,
	})
}

func (p *MayanEventProcessor) handleSwapAndForwardedEth(ctx context.Context, batch *types.EVMLogBatch, lg *ethtypes.Log) error {
	var ev types.SwapAndForwardedEth
	if err := types.UnpackEvent(types.SwapAndForwardedEthEvent, lg.Data, &ev); err != nil {
		return err
	}
	return p.storeForwarded(ctx, batch, lg, &forwardedPayload{
		eventName:     types.SwapAndForwardedEthEvent.Name,
		mayanProtocol: ev.MayanProtocol,
		data:          ev.MayanData,
		amountIn:      ev.AmountIn,
		swapProtocol:  &ev.SwapProtocol,
		middleToken:   &ev.MiddleToken,
		middleAmount:  ev.MiddleAmount,
	})
}

func (p *MayanEventProcessor) handleSwapAndForwardedERC20(ctx context.Context, batch *types.EVMLogBatch, lg *ethtypes.Log) error {
	var ev types.SwapAndForwardedERC20
	if err := types.UnpackEvent(types.SwapAndForwardedERC20Event, lg.Data, &ev); err != nil {
		return err
	}
	return p.storeForwarded(ctx, batch, lg, &forwardedPayload{
		eventName:     types.SwapAndForwardedERC20Event.Name,
		mayanProtocol: ev.MayanProtocol,
		data:          ev.MayanData,
		tokenIn:       ev.TokenIn,
		amountIn:      ev.AmountIn,
		swapProtocol:  &ev.SwapProtocol,
		middleToken:   &ev.MiddleToken,
		middleAmount:  ev.MiddleAmount,
	})
}

func (p *MayanEventProcessor) storeForwarded(ctx context.Context, batch *types.EVMLogBatch, lg *ethtypes.Log, fp *forwardedPayload) error {
	txHash := strings.ToLower(lg.TxHash.Hex())
	exists, err := p.repo.ForwardedExists(ctx, batch.Blockchain, txHash)
	if err != nil {
		return err
	}
	if exists {
		return skip(skipDuplicate)
	}

	if fp.mayanProtocol != p.swift {
		return skipf(skipForeignProtocol, "mayan protocol %s", strings.ToLower(fp.mayanProtocol.Hex()))
	}

	call, err := types.DecodeSwiftCreateOrder(fp.data)
	if err != nil {
		return err
	}
	params := call.Params

	destChain, ok := utils.WormholeChainName(params.DestChainId)
	if !ok {
		return skipf(skipExcludedChain, "dest %d", params.DestChainId)
	}

	trader, err := utils.EncodeAddressForChainName(batch.Blockchain, params.Trader[:])
	if err != nil {
		return err
	}
	tokenOut, err := utils.EncodeAddressForChainName(destChain, params.TokenOut[:])
	if err != nil {
		return err
	}
	destAddr, err := utils.EncodeAddressForChainName(destChain, params.DestAddr[:])
	if err != nil {
		return err
	}

	record := &models.MayanForwarded{
		Blockchain:      batch.Blockchain,
		TransactionHash: txHash,
		BlockNumber:     lg.BlockNumber,
		Timestamp:       batch.BlockTime(lg.BlockNumber),
		EventName:       fp.eventName,
		MayanProtocol:   strings.ToLower(fp.mayanProtocol.Hex()),
		Method:          call.Method,
		TokenIn:         utils.NormalizeEvmAddress(fp.tokenIn.Hex()),
		AmountIn:        utils.DecimalString(fp.amountIn),
		Trader:          trader,
		TokenOut:        tokenOut,
		MinAmountOut:    fmt.Sprint(params.MinAmountOut),
		GasDrop:         fmt.Sprint(params.GasDrop),
		CancelFee:       fmt.Sprint(params.CancelFee),
		RefundFee:       fmt.Sprint(params.RefundFee),
		Deadline:        params.Deadline,
		DestAddr:        destAddr,
		DestChain:       destChain,
		ReferrerAddr:    hexutil.Encode(params.ReferrerAddr[:]),
		ReferrerBps:     params.ReferrerBps,
		AuctionMode:     params.AuctionMode,
		Random:          hexutil.Encode(params.Random[:]),
	}
	if fp.swapProtocol != nil {
		record.SwapProtocol = strPtr(utils.NormalizeEvmAddress(fp.swapProtocol.Hex()))
		record.MiddleToken = strPtr(utils.NormalizeEvmAddress(fp.middleToken.Hex()))
		record.MiddleAmount = strPtr(utils.DecimalString(fp.middleAmount))
	}
	return p.repo.CreateForwarded(ctx, record)
}

func (p *MayanEventProcessor) handleOrderCreated(ctx context.Context, batch *types.EVMLogBatch, lg *ethtypes.Log) error {
	var ev types.SwiftOrderCreated
	if err := types.UnpackEvent(types.SwiftOrderCreatedEvent, lg.Data, &ev); err != nil {
		return err
	}
	orderHash := hexutil.Encode(ev.Key[:])

	exists, err := p.repo.OrderExists(ctx, orderHash)
	if err != nil {
		return err
	}
	if exists {
		return skip(skipDuplicate)
	}

	return p.repo.CreateOrder(ctx, &models.MayanOrder{
		OrderHash:       orderHash,
		Blockchain:      batch.Blockchain,
		TransactionHash: strings.ToLower(lg.TxHash.Hex()),
		BlockNumber:     lg.BlockNumber,
		Timestamp:       batch.BlockTime(lg.BlockNumber),
	})
}

func (p *MayanEventProcessor) handleOrderFulfilled(ctx context.Context, batch *types.EVMLogBatch, lg *ethtypes.Log) error {
	var ev types.SwiftOrderFulfilled
	if err := types.UnpackEvent(types.SwiftOrderFulfilledEvent, lg.Data, &ev); err != nil {
		return err
	}
	orderHash := hexutil.Encode(ev.Key[:])

	exists, err := p.repo.FulfilledExistsByOrderHash(ctx, orderHash)
	if err != nil {
		return err
	}
	if exists {
		return skip(skipDuplicate)
	}

	sequence := ev.Sequence
	return p.repo.CreateFulfilled(ctx, &models.MayanFulfilled{
		OrderHash:       &orderHash,
		Blockchain:      batch.Blockchain,
		TransactionHash: strings.ToLower(lg.TxHash.Hex()),
		BlockNumber:     lg.BlockNumber,
		Timestamp:       batch.BlockTime(lg.BlockNumber),
		Sequence:        &sequence,
		NetAmount:       utils.DecimalString(ev.NetAmount),
	})
}

func (p *MayanEventProcessor) handleOrderUnlocked(ctx context.Context, batch *types.EVMLogBatch, lg *ethtypes.Log) error {
	var ev types.SwiftOrderUnlocked
	if err := types.UnpackEvent(types.SwiftOrderUnlockedEvent, lg.Data, &ev); err != nil {
		return err
	}
	orderHash := hexutil.Encode(ev.Key[:])

	exists, err := p.repo.UnlockedExistsByOrderHash(ctx, orderHash)
	if err != nil {
		return err
	}
	if exists {
		return skip(skipDuplicate)
	}

	return p.repo.CreateUnlocked(ctx, &models.MayanUnlocked{
		OrderHash:       &orderHash,
		Blockchain:      batch.Blockchain,
		TransactionHash: strings.ToLower(lg.TxHash.Hex()),
		BlockNumber:     lg.BlockNumber,
		Timestamp:       batch.BlockTime(lg.BlockNumber),
	})
}

func (p *MayanEventProcessor) handleOrderRefunded(ctx context.Context, batch *types.EVMLogBatch, lg *ethtypes.Log) error {
	var ev types.SwiftOrderRefunded
	if err := types.UnpackEvent(types.SwiftOrderRefundedEvent, lg.Data, &ev); err != nil {
		return err
	}
	orderHash := hexutil.Encode(ev.Key[:])

	exists, err := p.repo.RefundedExists(ctx, orderHash)
	if err != nil {
		return err
	}
	if exists {
		return skip(skipDuplicate)
	}

	return p.repo.CreateRefunded(ctx, &models.MayanRefunded{
		OrderHash:       orderHash,
		Blockchain:      batch.Blockchain,
		TransactionHash: strings.ToLower(lg.TxHash.Hex()),
		BlockNumber:     lg.BlockNumber,
		Timestamp:       batch.BlockTime(lg.BlockNumber),
		NetAmount:       utils.DecimalString(ev.NetAmount),
	})
}
