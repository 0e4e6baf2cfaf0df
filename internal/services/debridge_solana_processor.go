package services

import (
	"context"
	"encoding/json"
	"fmt"

	"bridge-indexer/internal/config"
	"bridge-indexer/internal/models"
	"bridge-indexer/internal/repository"
	"bridge-indexer/internal/types"
	"bridge-indexer/internal/utils"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"
)

const solanaChain = "solana"

// instructionHandler decodes the instruction at index of tx.
type instructionHandler func(ctx context.Context, tx *types.SolanaTransaction, index int) error

type instructionKey struct {
	program string
	name    string
}

// DeBridgeSolanaProcessor decodes the DLN source and destination programs.
type DeBridgeSolanaProcessor struct {
	repo       repository.DeBridgeRepository
	runner     *eventRunner
	contracts  config.DeBridgeContracts
	aggregator string
	windows    config.ExtractionConfig
	handlers   map[instructionKey]instructionHandler
}

func NewDeBridgeSolanaProcessor(repo repository.DeBridgeRepository, failed repository.FailedEventRepository, contracts config.ContractsConfig, windows config.ExtractionConfig, logger *logrus.Logger) *DeBridgeSolanaProcessor {
	p := &DeBridgeSolanaProcessor{
		repo:       repo,
		runner:     newEventRunner(models.BridgeDeBridge, logger, failed),
		contracts:  contracts.DeBridge,
		aggregator: contracts.Jupiter,
		windows:    windows,
	}
	p.handlers = map[instructionKey]instructionHandler{
		{contracts.DeBridge.SolanaSource, types.IxDlnCreateOrderWithNonce}: p.handleCreateOrder,
		{contracts.DeBridge.SolanaSource, types.IxDlnClaimUnlock}:          p.handleClaimUnlock,
		{contracts.DeBridge.SolanaDestination, types.IxDlnFulfillOrder}:    p.handleFulfillOrder,
	}
	return p
}

// Programs whose signatures the extractor must fetch.
func (p *DeBridgeSolanaProcessor) Programs() []string {
	return []string{p.contracts.SolanaSource, p.contracts.SolanaDestination}
}

func (p *DeBridgeSolanaProcessor) SetRunID(runID string) {
	p.runner.SetRunID(runID)
}

// ProcessTransactions decodes the DLN instructions of every transaction.
func (p *DeBridgeSolanaProcessor) ProcessTransactions(ctx context.Context, txs []*types.SolanaTransaction) BatchResult {
	result := dispatchInstructions(ctx, p.runner, p.handlers, txs)
	p.runner.logBatch("solana", solanaChain, result, logrus.Fields{"transactions": len(txs)})
	return result
}

func (p *DeBridgeSolanaProcessor) handleCreateOrder(ctx context.Context, tx *types.SolanaTransaction, index int) error {
	ix := tx.Instructions[index]
	var args types.DlnCreateOrderWithNonceArgs
	if err := ix.DecodeArgs(&args); err != nil {
		return err
	}

	// the program emits the order id as a separate event instruction
	idIx, _, err := findSibling(tx, index, p.windows.DeBridgeCreateWindow, scanForward, types.IxDlnCreatedOrderID)
	if err != nil {
		return err
	}
	var idArgs types.DlnCreatedOrderIDArgs
	if err := idIx.DecodeArgs(&idArgs); err != nil {
		return err
	}
	if len(idArgs.OrderID) != 32 {
		return fmt.Errorf("order id is %d bytes", len(idArgs.OrderID))
	}
	orderID := hexutil.Encode(idArgs.OrderID)

	exists, err := p.repo.CreatedOrderExists(ctx, orderID)
	if err != nil {
		return err
	}
	if exists {
		return skip(skipDuplicate)
	}

	takeChain, ok := utils.DeBridgeChainNameFromBytes(args.OrderArgs.Take.ChainID)
	if !ok {
		return skipf(skipExcludedChain, "take %s", utils.DecimalFromBytes(args.OrderArgs.Take.ChainID))
	}

	maker, err := ix.MustAccount("maker")
	if err != nil {
		return err
	}
	giveMint, err := ix.MustAccount("token_mint")
	if err != nil {
		return err
	}
	giveOrderState, _ := ix.Account("give_order_state")

	deposited, err := siblingTransferAmount(tx, index, p.windows.DeBridgeCreateWindow)
	if err != nil {
		return err
	}
	net, err := netSwapBefore(tx, index, p.aggregator)
	if err != nil {
		return err
	}

	o := args.OrderArgs
	takeToken, err := utils.EncodeAddressForChainName(takeChain, o.Take.TokenAddress)
	if err != nil {
		return err
	}
	receiver, err := utils.EncodeAddressForChainName(takeChain, o.ReceiverDst)
	if err != nil {
		return err
	}
	authorityDst, err := utils.EncodeAddressForChainName(takeChain, o.OrderAuthorityAddressDst)
	if err != nil {
		return err
	}
	var allowedTaker *string
	if len(o.AllowedTakerDst) > 0 {
		taker, err := utils.EncodeAddressForChainName(takeChain, o.AllowedTakerDst)
		if err != nil {
			return err
		}
		allowedTaker = &taker
	}

	record := &models.DeBridgeCreatedOrder{
		OrderID:                     orderID,
		Blockchain:                  solanaChain,
		TransactionHash:             tx.Signature,
		BlockNumber:                 tx.Slot,
		Timestamp:                   solanaTime(tx),
		MakerOrderNonce:             fmt.Sprint(uint64(args.Nonce)),
		MakerSrc:                    maker,
		GiveChain:                   solanaChain,
		GiveTokenAddress:            giveMint,
		GiveAmount:                  deposited.String(),
		TakeChain:                   takeChain,
		TakeTokenAddress:            takeToken,
		TakeAmount:                  utils.DecimalFromBytes(o.Take.Amount),
		ReceiverDst:                 receiver,
		GivePatchAuthoritySrc:       o.GivePatchAuthoritySrc,
		OrderAuthorityAddressDst:    authorityDst,
		AllowedTakerDst:             allowedTaker,
		AllowedCancelBeneficiarySrc: o.AllowedCancelBeneficiarySrc,
		ExternalCall:                optionalHex(o.ExternalCall),
		ReferralCode:                args.ReferralCode,
		Metadata:                    optionalHex(args.Metadata),
		GiveOrderState:              optionalString(giveOrderState),
	}
	if args.AffiliateFee != nil {
		fee, err := json.Marshal(args.AffiliateFee)
		if err != nil {
			return err
		}
		record.AffiliateFee = strPtr(string(fee))
	}
	if net != nil {
		// the transfer moved the swapped token; keep what the user started with as the give side
		record.MiddleTokenAddress = strPtr(giveMint)
		record.MiddleAmount = strPtr(deposited.String())
		record.GiveTokenAddress = net.InputMint
		record.GiveAmount = net.InputAmount
	}
	return p.repo.CreateCreatedOrder(ctx, record)
}

func (p *DeBridgeSolanaProcessor) handleFulfillOrder(ctx context.Context, tx *types.SolanaTransaction, index int) error {
	ix := tx.Instructions[index]
	var args types.DlnFulfillOrderArgs
	if err := ix.DecodeArgs(&args); err != nil {
		return err
	}
	if len(args.OrderID) != 32 {
		return fmt.Errorf("order id is %d bytes", len(args.OrderID))
	}
	orderID := hexutil.Encode(args.OrderID)

	exists, err := p.repo.FulfilledOrderExists(ctx, orderID)
	if err != nil {
		return err
	}
	if exists {
		return skip(skipDuplicate)
	}

	o := args.UnvalidatedOrder
	giveChain, ok := utils.DeBridgeChainNameFromBytes(o.Give.ChainID)
	if !ok {
		return skipf(skipExcludedChain, "give %s", utils.DecimalFromBytes(o.Give.ChainID))
	}
	takeChain, ok := utils.DeBridgeChainNameFromBytes(o.Take.ChainID)
	if !ok {
		return skipf(skipExcludedChain, "take %s", utils.DecimalFromBytes(o.Take.ChainID))
	}

	taker, err := ix.MustAccount("taker")
	if err != nil {
		return err
	}
	delivered, err := siblingTransferAmount(tx, index, p.windows.DeBridgeFulfillWindow)
	if err != nil {
		return err
	}
	net, err := netSwapBefore(tx, index, p.aggregator)
	if err != nil {
		return err
	}

	addr := func(chain string, raw []byte) (string, error) {
		return utils.EncodeAddressForChainName(chain, raw)
	}
	makerSrc, err := addr(giveChain, o.MakerSrc)
	if err != nil {
		return err
	}
	giveToken, err := addr(giveChain, o.Give.TokenAddress)
	if err != nil {
		return err
	}
	takeToken, err := addr(takeChain, o.Take.TokenAddress)
	if err != nil {
		return err
	}
	receiver, err := addr(takeChain, o.ReceiverDst)
	if err != nil {
		return err
	}

	unlockAuthority := taker
	if args.UnlockAuthority != nil && *args.UnlockAuthority != "" {
		unlockAuthority = *args.UnlockAuthority
	}

	record := &models.DeBridgeFulfilledOrder{
		OrderID:          orderID,
		Blockchain:       solanaChain,
		TransactionHash:  tx.Signature,
		BlockNumber:      tx.Slot,
		Timestamp:        solanaTime(tx),
		MakerOrderNonce:  fmt.Sprint(uint64(o.MakerOrderNonce)),
		MakerSrc:         makerSrc,
		GiveChain:        giveChain,
		GiveTokenAddress: giveToken,
		GiveAmount:       utils.DecimalFromBytes(o.Give.Amount),
		TakeChain:        takeChain,
		TakeTokenAddress: takeToken,
		TakeAmount:       delivered.String(),
		ReceiverDst:      receiver,
		Taker:            taker,
		UnlockAuthority:  unlockAuthority,
	}
	if net != nil {
		record.MiddleTokenAddress = strPtr(net.InputMint)
		record.MiddleAmount = strPtr(net.InputAmount)
	}
	return p.repo.CreateFulfilledOrder(ctx, record)
}

func (p *DeBridgeSolanaProcessor) handleClaimUnlock(ctx context.Context, tx *types.SolanaTransaction, index int) error {
	ix := tx.Instructions[index]
	var args types.DlnClaimUnlockArgs
	if err := ix.DecodeArgs(&args); err != nil {
		return err
	}
	if len(args.OrderID) != 32 {
		return fmt.Errorf("order id is %d bytes", len(args.OrderID))
	}
	orderID := hexutil.Encode(args.OrderID)

	exists, err := p.repo.ClaimedUnlockExists(ctx, orderID)
	if err != nil {
		return err
	}
	if exists {
		return skip(skipDuplicate)
	}

	beneficiary, err := ix.MustAccount("unlock_beneficiary")
	if err != nil {
		return err
	}
	mint, err := ix.MustAccount("token_mint")
	if err != nil {
		return err
	}
	amount, err := siblingTransferAmount(tx, index, p.windows.DeBridgeClaimWindow)
	if err != nil {
		return err
	}

	return p.repo.CreateClaimedUnlock(ctx, &models.DeBridgeClaimedUnlock{
		OrderID:          orderID,
		Blockchain:       solanaChain,
		TransactionHash:  tx.Signature,
		BlockNumber:      tx.Slot,
		Timestamp:        solanaTime(tx),
		Beneficiary:      beneficiary,
		GiveAmount:       amount.String(),
		GiveTokenAddress: mint,
	})
}

// dispatchInstructions routes every instruction of every successful transaction through the table.
func dispatchInstructions(ctx context.Context, runner *eventRunner, handlers map[instructionKey]instructionHandler, txs []*types.SolanaTransaction) BatchResult {
	var result BatchResult
	for _, tx := range txs {
		for i := range tx.Instructions {
			ix := tx.Instructions[i]
			handle, ok := handlers[instructionKey{ix.ProgramID, ix.Name}]
			if !ok {
				continue
			}
			ref := eventRef{
				Blockchain: solanaChain,
				EventName:  ix.Name,
				Contract:   ix.ProgramID,
				TxHash:     tx.Signature,
				Block:      tx.Slot,
				Index:      i,
			}
			index := i
			runner.run(ctx, ref, &result, func() error {
				if !tx.Success {
					return skip(skipFailedTx)
				}
				return handle(ctx, tx, index)
			})
		}
	}
	return result
}
