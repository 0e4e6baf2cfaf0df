package services

import (
	"context"
	"fmt"
	"strings"

	"bridge-indexer/internal/config"
	"bridge-indexer/internal/models"
	"bridge-indexer/internal/repository"
	"bridge-indexer/internal/types"
	"bridge-indexer/internal/utils"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

// logHandler decodes one log of a known topic.
type logHandler struct {
	event    abi.Event
	contract common.Address
	handle   func(ctx context.Context, batch *types.EVMLogBatch, lg *ethtypes.Log) error
}

// DeBridgeEventProcessor decodes DlnSource / DlnDestination logs.
type DeBridgeEventProcessor struct {
	repo     repository.DeBridgeRepository
	runner   *eventRunner
	logger   *logrus.Logger
	handlers map[common.Hash]logHandler
}

// NewDeBridgeEventProcessor builds the topic dispatch table for the configured contracts.
func NewDeBridgeEventProcessor(repo repository.DeBridgeRepository, failed repository.FailedEventRepository, contracts config.DeBridgeContracts, logger *logrus.Logger) *DeBridgeEventProcessor {
	p := &DeBridgeEventProcessor{
		repo:   repo,
		runner: newEventRunner(models.BridgeDeBridge, logger, failed),
		logger: logger,
	}
	source := common.HexToAddress(contracts.DlnSource)
	destination := common.HexToAddress(contracts.DlnDestination)

	p.handlers = map[common.Hash]logHandler{
		types.CreatedOrderEvent.ID:   {event: types.CreatedOrderEvent, contract: source, handle: p.handleCreatedOrder},
		types.ClaimedUnlockEvent.ID:  {event: types.ClaimedUnlockEvent, contract: source, handle: p.handleClaimedUnlock},
		types.FulfilledOrderEvent.ID: {event: types.FulfilledOrderEvent, contract: destination, handle: p.handleFulfilledOrder},
	}
	return p
}

// Addresses the extractor must fetch logs for.
func (p *DeBridgeEventProcessor) Addresses() []common.Address {
	return uniqueContracts(p.handlers)
}

// Topics the extractor must fetch logs for.
func (p *DeBridgeEventProcessor) Topics() []common.Hash {
	return handlerTopics(p.handlers)
}

func (p *DeBridgeEventProcessor) SetRunID(runID string) {
	p.runner.SetRunID(runID)
}

// ProcessLogs decodes every log of the batch. Logs with unknown topics are ignored.
func (p *DeBridgeEventProcessor) ProcessLogs(ctx context.Context, batch *types.EVMLogBatch) BatchResult {
	result := dispatchLogs(ctx, p.runner, p.handlers, batch)
	p.runner.logBatch("evm", batch.Blockchain, result, logrus.Fields{"from_block": batch.FromBlock, "to_block": batch.ToBlock})
	return result
}

func (p *DeBridgeEventProcessor) handleCreatedOrder(ctx context.Context, batch *types.EVMLogBatch, lg *ethtypes.Log) error {
	var ev types.CreatedOrder
	if err := types.UnpackEvent(types.CreatedOrderEvent, lg.Data, &ev); err != nil {
		return err
	}

	orderID := hexutil.Encode(ev.OrderId[:])
	exists, err := p.repo.CreatedOrderExists(ctx, orderID)
	if err != nil {
		return err
	}
	if exists {
		return skip(skipDuplicate)
	}

	order, err := dlnOrderFields(&ev.Order)
	if err != nil {
		return err
	}
	if order == nil {
		return skipf(skipExcludedChain, "give %s take %s", ev.Order.GiveChainId, ev.Order.TakeChainId)
	}

	record := &models.DeBridgeCreatedOrder{
		OrderID:                     orderID,
		Blockchain:                  batch.Blockchain,
		TransactionHash:             strings.ToLower(lg.TxHash.Hex()),
		BlockNumber:                 lg.BlockNumber,
		Timestamp:                   batch.BlockTime(lg.BlockNumber),
		MakerOrderNonce:             fmt.Sprint(ev.Order.MakerOrderNonce),
		MakerSrc:                    order.makerSrc,
		GiveChain:                   order.giveChain,
		GiveTokenAddress:            order.giveToken,
		GiveAmount:                  utils.DecimalString(ev.Order.GiveAmount),
		TakeChain:                   order.takeChain,
		TakeTokenAddress:            order.takeToken,
		TakeAmount:                  utils.DecimalString(ev.Order.TakeAmount),
		ReceiverDst:                 order.receiverDst,
		GivePatchAuthoritySrc:       order.givePatchAuthoritySrc,
		OrderAuthorityAddressDst:    order.orderAuthorityAddressDst,
		AllowedTakerDst:             order.allowedTakerDst,
		AllowedCancelBeneficiarySrc: order.allowedCancelBeneficiarySrc,
		ExternalCall:                optionalHex(ev.Order.ExternalCall),
		AffiliateFee:                optionalHex(ev.AffiliateFee),
		NativeFixFee:                strPtr(utils.DecimalString(ev.NativeFixFee)),
		PercentFee:                  strPtr(utils.DecimalString(ev.PercentFee)),
		ReferralCode:                &ev.ReferralCode,
		Metadata:                    optionalHex(ev.Metadata),
	}
	return p.repo.CreateCreatedOrder(ctx, record)
}

func (p *DeBridgeEventProcessor) handleFulfilledOrder(ctx context.Context, batch *types.EVMLogBatch, lg *ethtypes.Log) error {
	var ev types.FulfilledOrder
	if err := types.UnpackEvent(types.FulfilledOrderEvent, lg.Data, &ev); err != nil {
		return err
	}

	orderID := hexutil.Encode(ev.OrderId[:])
	exists, err := p.repo.FulfilledOrderExists(ctx, orderID)
	if err != nil {
		return err
	}
	if exists {
		return skip(skipDuplicate)
	}

	order, err := dlnOrderFields(&ev.Order)
	if err != nil {
		return err
	}
	if order == nil {
		return skipf(skipExcludedChain, "give %s take %s", ev.Order.GiveChainId, ev.Order.TakeChainId)
	}

	record := &models.DeBridgeFulfilledOrder{
		OrderID:          orderID,
		Blockchain:       batch.Blockchain,
		TransactionHash:  strings.ToLower(lg.TxHash.Hex()),
		BlockNumber:      lg.BlockNumber,
		Timestamp:        batch.BlockTime(lg.BlockNumber),
		MakerOrderNonce:  fmt.Sprint(ev.Order.MakerOrderNonce),
		MakerSrc:         order.makerSrc,
		GiveChain:        order.giveChain,
		GiveTokenAddress: order.giveToken,
		GiveAmount:       utils.DecimalString(ev.Order.GiveAmount),
		TakeChain:        order.takeChain,
		TakeTokenAddress: order.takeToken,
		TakeAmount:       utils.DecimalString(ev.Order.TakeAmount),
		ReceiverDst:      order.receiverDst,
		Taker:            utils.NormalizeEvmAddress(ev.Sender.Hex()),
		UnlockAuthority:  utils.NormalizeEvmAddress(ev.UnlockAuthority.Hex()),
	}
	return p.repo.CreateFulfilledOrder(ctx, record)
}

func (p *DeBridgeEventProcessor) handleClaimedUnlock(ctx context.Context, batch *types.EVMLogBatch, lg *ethtypes.Log) error {
	var ev types.ClaimedUnlock
	if err := types.UnpackEvent(types.ClaimedUnlockEvent, lg.Data, &ev); err != nil {
		return err
	}

	orderID := hexutil.Encode(ev.OrderId[:])
	exists, err := p.repo.ClaimedUnlockExists(ctx, orderID)
	if err != nil {
		return err
	}
	if exists {
		return skip(skipDuplicate)
	}

	record := &models.DeBridgeClaimedUnlock{
		OrderID:          orderID,
		Blockchain:       batch.Blockchain,
		TransactionHash:  strings.ToLower(lg.TxHash.Hex()),
		BlockNumber:      lg.BlockNumber,
		Timestamp:        batch.BlockTime(lg.BlockNumber),
		Beneficiary:      utils.NormalizeEvmAddress(ev.Beneficiary.Hex()),
		GiveAmount:       utils.DecimalString(ev.GiveAmount),
		GiveTokenAddress: utils.NormalizeEvmAddress(ev.GiveTokenAddress.Hex()),
	}
	return p.repo.CreateClaimedUnlock(ctx, record)
}

// dlnOrder holds the DLN order addresses rendered for the chain each one lives on.
type dlnOrder struct {
	giveChain                   string
	takeChain                   string
	makerSrc                    string
	giveToken                   string
	takeToken                   string
	receiverDst                 string
	givePatchAuthoritySrc       string
	orderAuthorityAddressDst    string
	allowedTakerDst             *string
	allowedCancelBeneficiarySrc *string
}

// dlnOrderFields maps chain ids and encodes addresses. A nil result means one side is on an
// unknown or excluded chain.
func dlnOrderFields(o *types.DlnOrder) (*dlnOrder, error) {
	giveChain, ok := utils.DeBridgeChainNameFromBig(o.GiveChainId)
	if !ok {
		return nil, nil
	}
	takeChain, ok := utils.DeBridgeChainNameFromBig(o.TakeChainId)
	if !ok {
		return nil, nil
	}

	out := &dlnOrder{giveChain: giveChain, takeChain: takeChain}
	var err error
	enc := func(chain string, raw []byte) string {
		if err != nil {
			return ""
		}
		var s string
		s, err = utils.EncodeAddressForChainName(chain, raw)
		return s
	}
	out.makerSrc = enc(giveChain, o.MakerSrc)
	out.giveToken = enc(giveChain, o.GiveTokenAddress)
	out.givePatchAuthoritySrc = enc(giveChain, o.GivePatchAuthoritySrc)
	out.takeToken = enc(takeChain, o.TakeTokenAddress)
	out.receiverDst = enc(takeChain, o.ReceiverDst)
	out.orderAuthorityAddressDst = enc(takeChain, o.OrderAuthorityAddressDst)
	if len(o.AllowedTakerDst) > 0 {
		out.allowedTakerDst = strPtr(enc(takeChain, o.AllowedTakerDst))
	}
	if len(o.AllowedCancelBeneficiarySrc) > 0 {
		out.allowedCancelBeneficiarySrc = strPtr(enc(giveChain, o.AllowedCancelBeneficiarySrc))
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func optionalHex(b []byte) *string {
	if len(b) == 0 {
		return nil
	}
	return strPtr(hexutil.Encode(b))
}

// dispatchLogs routes each log through the topic table inside the event runner.
func dispatchLogs(ctx context.Context, runner *eventRunner, handlers map[common.Hash]logHandler, batch *types.EVMLogBatch) BatchResult {
	var result BatchResult
	for i := range batch.Logs {
		lg := &batch.Logs[i]
		if len(lg.Topics) == 0 {
			continue
		}
		h, ok := handlers[lg.Topics[0]]
		if !ok {
			continue
		}
		ref := eventRef{
			Blockchain: batch.Blockchain,
			EventName:  h.event.Name,
			Contract:   strings.ToLower(lg.Address.Hex()),
			TxHash:     strings.ToLower(lg.TxHash.Hex()),
			Block:      lg.BlockNumber,
			Index:      int(lg.Index),
		}
		runner.run(ctx, ref, &result, func() error {
			if lg.Removed {
				return skip("removed")
			}
			if lg.Address != h.contract {
				return skip(skipForeignContract)
			}
			return h.handle(ctx, batch, lg)
		})
	}
	return result
}

func uniqueContracts(handlers map[common.Hash]logHandler) []common.Address {
	seen := make(map[common.Address]bool)
	var out []common.Address
	for _, h := range handlers {
		if !seen[h.contract] {
			seen[h.contract] = true
			out = append(out, h.contract)
		}
	}
	return out
}

func handlerTopics(handlers map[common.Hash]logHandler) []common.Hash {
	out := make([]common.Hash, 0, len(handlers))
	for topic := range handlers {
		out = append(out, topic)
	}
	return out
}
