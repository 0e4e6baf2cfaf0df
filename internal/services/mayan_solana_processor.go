package services

import (
	"context"
	"fmt"

	"bridge-indexer/internal/config"
	"bridge-indexer/internal/models"
	"bridge-indexer/internal/repository"
	"bridge-indexer/internal/types"
	"bridge-indexer/internal/utils"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"
)

// MayanSolanaProcessor decodes the Swift and auction programs.
type MayanSolanaProcessor struct {
	repo       repository.MayanRepository
	runner     *eventRunner
	contracts  config.MayanContracts
	aggregator string
	windows    config.ExtractionConfig
	handlers   map[instructionKey]instructionHandler
}

func NewMayanSolanaProcessor(repo repository.MayanRepository, failed repository.FailedEventRepository, contracts config.ContractsConfig, windows config.ExtractionConfig, logger *logrus.Logger) *MayanSolanaProcessor {
	p := &MayanSolanaProcessor{
		repo:       repo,
		runner:     newEventRunner(models.BridgeMayan, logger, failed),
		contracts:  contracts.Mayan,
		aggregator: contracts.Jupiter,
		windows:    windows,
	}
	swift, auction := contracts.Mayan.SwiftSolana, contracts.Mayan.AuctionSolana
	p.handlers = map[instructionKey]instructionHandler{
		{swift, types.IxSwiftInitOrder}:     p.handleInitOrder,
		{swift, types.IxSwiftRegisterOrder}: p.handleRegisterOrder,
		{swift, types.IxSwiftFulfill}:       p.handleFulfill,
		{swift, types.IxSwiftUnlock}:        p.handleUnlock,
		{auction, types.IxAuctionBid}:       p.handleBid,
		{auction, types.IxAuctionClose}:     p.handleCloseAuction,
	}
	return p
}

func (p *MayanSolanaProcessor) Programs() []string {
	return []string{p.contracts.SwiftSolana, p.contracts.AuctionSolana}
}

func (p *MayanSolanaProcessor) SetRunID(runID string) {
	p.runner.SetRunID(runID)
}

func (p *MayanSolanaProcessor) ProcessTransactions(ctx context.Context, txs []*types.SolanaTransaction) BatchResult {
	result := dispatchInstructions(ctx, p.runner, p.handlers, txs)
	p.runner.logBatch("solana", solanaChain, result, logrus.Fields{"transactions": len(txs)})
	return result
}

func (p *MayanSolanaProcessor) handleInitOrder(ctx context.Context, tx *types.SolanaTransaction, index int) error {
	ix := tx.Instructions[index]
	var args types.SwiftInitOrderArgs
	if err := ix.DecodeArgs(&args); err != nil {
		return err
	}
	prm := args.Params

	destChain, ok := utils.WormholeChainName(prm.ChainDest)
	if !ok {
		return skipf(skipExcludedChain, "dest %d", prm.ChainDest)
	}
	srcWormhole, _ := utils.WormholeChainID(solanaChain)

	state, err := ix.MustAccount("state")
	if err != nil {
		return err
	}
	mintFrom, err := ix.MustAccount("mint_from")
	if err != nil {
		return err
	}

	tokenIn, err := utils.Address32FromString(mintFrom)
	if err != nil {
		return err
	}
	orderHash, err := swiftOrderHash(swiftOrderFields{
		trader:       prm.Trader,
		srcChain:     srcWormhole,
		tokenIn:      tokenIn[:],
		destAddr:     prm.AddrDest,
		destChain:    prm.ChainDest,
		tokenOut:     prm.TokenOut,
		minAmountOut: uint64(prm.AmountOutMin),
		gasDrop:      uint64(prm.GasDrop),
		cancelFee:    uint64(prm.FeeCancel),
		refundFee:    uint64(prm.FeeRefund),
		deadline:     uint64(prm.Deadline),
		referrer:     prm.AddrRef,
		referrerBps:  prm.FeeRateRef,
		mayanBps:     prm.FeeRateMayan,
		auctionMode:  prm.AuctionMode,
		random:       prm.KeyRnd,
	})
	if err != nil {
		return err
	}

	exists, err := p.repo.OrderExists(ctx, orderHash)
	if err != nil {
		return err
	}
	if exists {
		return skip(skipDuplicate)
	}

	deposited, err := siblingTransferAmount(tx, index, p.windows.MayanInitOrderWindow)
	if err != nil {
		return err
	}
	net, err := netSwapBefore(tx, index, p.aggregator)
	if err != nil {
		return err
	}

	trader, err := utils.SolanaAddressFromBytes(prm.Trader)
	if err != nil {
		return err
	}
	destAddr, err := utils.EncodeAddressForChainName(destChain, prm.AddrDest)
	if err != nil {
		return err
	}
	tokenOut, err := utils.EncodeAddressForChainName(destChain, prm.TokenOut)
	if err != nil {
		return err
	}

	record := &models.MayanOrder{
		OrderHash:       orderHash,
		Blockchain:      solanaChain,
		TransactionHash: tx.Signature,
		BlockNumber:     tx.Slot,
		Timestamp:       solanaTime(tx),
		StateAccount:    &state,
		Trader:          trader,
		TokenIn:         mintFrom,
		AmountIn:        strPtr(deposited.String()),
		DestChain:       destChain,
		DestAddr:        destAddr,
		TokenOut:        tokenOut,
		MinAmountOut:    strPtr(fmt.Sprint(uint64(prm.AmountOutMin))),
		GasDrop:         strPtr(fmt.Sprint(uint64(prm.GasDrop))),
		CancelFee:       strPtr(fmt.Sprint(uint64(prm.FeeCancel))),
		RefundFee:       strPtr(fmt.Sprint(uint64(prm.FeeRefund))),
		Deadline:        uint64(prm.Deadline),
		ReferrerAddr:    hexutil.Encode(prm.AddrRef),
		ReferrerBps:     prm.FeeRateRef,
		MayanBps:        prm.FeeRateMayan,
		AuctionMode:     prm.AuctionMode,
	}
	if net != nil {
		record.MiddleToken = strPtr(mintFrom)
		record.MiddleAmount = strPtr(deposited.String())
		record.TokenIn = net.InputMint
		record.AmountIn = strPtr(net.InputAmount)
	}
	return p.repo.CreateOrder(ctx, record)
}

func (p *MayanSolanaProcessor) handleRegisterOrder(ctx context.Context, tx *types.SolanaTransaction, index int) error {
	ix := tx.Instructions[index]
	var args types.SwiftRegisterOrderArgs
	if err := ix.DecodeArgs(&args); err != nil {
		return err
	}
	info := args.Args

	orderHash, err := swiftOrderHash(orderInfoFields(&info))
	if err != nil {
		return err
	}
	exists, err := p.repo.RegisteredOrderExists(ctx, orderHash)
	if err != nil {
		return err
	}
	if exists {
		return skip(skipDuplicate)
	}

	srcChain, ok := utils.WormholeChainName(info.ChainSource)
	if !ok {
		return skipf(skipExcludedChain, "source %d", info.ChainSource)
	}
	destChain, ok := utils.WormholeChainName(info.ChainDest)
	if !ok {
		return skipf(skipExcludedChain, "dest %d", info.ChainDest)
	}

	state, err := ix.MustAccount("state")
	if err != nil {
		return err
	}
	trader, err := utils.EncodeAddressForChainName(srcChain, info.Trader)
	if err != nil {
		return err
	}
	tokenIn, err := utils.EncodeAddressForChainName(srcChain, info.TokenIn)
	if err != nil {
		return err
	}
	destAddr, err := utils.EncodeAddressForChainName(destChain, info.AddrDest)
	if err != nil {
		return err
	}
	tokenOut, err := utils.EncodeAddressForChainName(destChain, info.TokenOut)
	if err != nil {
		return err
	}

	return p.repo.CreateRegisteredOrder(ctx, &models.MayanRegisteredOrder{
		OrderHash:    orderHash,
		StateAccount: state,
		Blockchain:   solanaChain,
		Signature:    tx.Signature,
		Slot:         tx.Slot,
		Timestamp:    solanaTime(tx),
		SrcChain:     srcChain,
		Trader:       trader,
		TokenIn:      tokenIn,
		DestChain:    destChain,
		DestAddr:     destAddr,
		TokenOut:     tokenOut,
		MinAmountOut: fmt.Sprint(uint64(info.AmountOutMin)),
		Deadline:     uint64(info.Deadline),
		AuctionMode:  info.AuctionMode,
	})
}

func (p *MayanSolanaProcessor) handleFulfill(ctx context.Context, tx *types.SolanaTransaction, index int) error {
	ix := tx.Instructions[index]

	state, err := ix.MustAccount("state")
	if err != nil {
		return err
	}
	exists, err := p.repo.FulfilledExistsByState(ctx, state)
	if err != nil {
		return err
	}
	if exists {
		return skip(skipDuplicate)
	}

	driver, err := ix.MustAccount("driver")
	if err != nil {
		return err
	}
	mintTo, err := ix.MustAccount("mint_to")
	if err != nil {
		return err
	}
	recipient, _ := ix.Account("dest")

	delivered, err := siblingTransferAmount(tx, index, p.windows.MayanFulfillWindow)
	if err != nil {
		return err
	}
	net, err := netSwapBefore(tx, index, p.aggregator)
	if err != nil {
		return err
	}

	record := &models.MayanFulfilled{
		StateAccount:    &state,
		Blockchain:      solanaChain,
		TransactionHash: tx.Signature,
		BlockNumber:     tx.Slot,
		Timestamp:       solanaTime(tx),
		NetAmount:       delivered.String(),
		Driver:          driver,
		TokenOut:        mintTo,
		Recipient:       recipient,
	}
	if net != nil {
		record.MiddleToken = strPtr(net.InputMint)
		record.MiddleAmount = strPtr(net.InputAmount)
	}
	return p.repo.CreateFulfilled(ctx, record)
}

func (p *MayanSolanaProcessor) handleUnlock(ctx context.Context, tx *types.SolanaTransaction, index int) error {
	ix := tx.Instructions[index]

	state, err := ix.MustAccount("state")
	if err != nil {
		return err
	}
	exists, err := p.repo.UnlockedExistsByState(ctx, state)
	if err != nil {
		return err
	}
	if exists {
		return skip(skipDuplicate)
	}

	unlocker, ok := ix.Account("unlocker")
	if !ok {
		unlocker, _ = ix.Account("driver")
	}

	return p.repo.CreateUnlocked(ctx, &models.MayanUnlocked{
		StateAccount:    &state,
		Blockchain:      solanaChain,
		TransactionHash: tx.Signature,
		BlockNumber:     tx.Slot,
		Timestamp:       solanaTime(tx),
		Unlocker:        unlocker,
	})
}

func (p *MayanSolanaProcessor) handleBid(ctx context.Context, tx *types.SolanaTransaction, index int) error {
	exists, err := p.repo.AuctionBidExists(ctx, tx.Signature)
	if err != nil {
		return err
	}
	if exists {
		return skip(skipDuplicate)
	}

	ix := tx.Instructions[index]
	var args types.AuctionBidArgs
	if err := ix.DecodeArgs(&args); err != nil {
		return err
	}
	orderHash, err := swiftOrderHash(orderInfoFields(&args.Order))
	if err != nil {
		return err
	}
	driver, err := ix.MustAccount("driver")
	if err != nil {
		return err
	}
	auctionState, err := ix.MustAccount("auction_state")
	if err != nil {
		return err
	}

	return p.repo.CreateAuctionBid(ctx, &models.MayanAuctionBid{
		Signature:    tx.Signature,
		OrderHash:    orderHash,
		AmountBid:    fmt.Sprint(uint64(args.AmountBid)),
		AuctionState: auctionState,
		Driver:       driver,
		Slot:         tx.Slot,
		Timestamp:    solanaTime(tx),
	})
}

func (p *MayanSolanaProcessor) handleCloseAuction(ctx context.Context, tx *types.SolanaTransaction, index int) error {
	ix := tx.Instructions[index]
	auction, err := ix.MustAccount("auction")
	if err != nil {
		return err
	}
	exists, err := p.repo.AuctionCloseExists(ctx, auction)
	if err != nil {
		return err
	}
	if exists {
		return skip(skipDuplicate)
	}
	initializer, _ := ix.Account("initializer")

	return p.repo.CreateAuctionClose(ctx, &models.MayanAuctionClose{
		AuctionState: auction,
		Initializer:  initializer,
		Signature:    tx.Signature,
		Slot:         tx.Slot,
		Timestamp:    solanaTime(tx),
	})
}

// swiftOrderFields are the order fields as raw bytes, in the form Solana instructions carry them.
type swiftOrderFields struct {
	trader       []byte
	srcChain     uint16
	tokenIn      []byte
	destAddr     []byte
	destChain    uint16
	tokenOut     []byte
	minAmountOut uint64
	gasDrop      uint64
	cancelFee    uint64
	refundFee    uint64
	deadline     uint64
	referrer     []byte
	referrerBps  uint8
	mayanBps     uint8
	auctionMode  uint8
	random       []byte
}

func orderInfoFields(info *types.SwiftOrderInfo) swiftOrderFields {
	return swiftOrderFields{
		trader:       info.Trader,
		srcChain:     info.ChainSource,
		tokenIn:      info.TokenIn,
		destAddr:     info.AddrDest,
		destChain:    info.ChainDest,
		tokenOut:     info.TokenOut,
		minAmountOut: uint64(info.AmountOutMin),
		gasDrop:      uint64(info.GasDrop),
		cancelFee:    uint64(info.FeeCancel),
		refundFee:    uint64(info.FeeRefund),
		deadline:     uint64(info.Deadline),
		referrer:     info.AddrRef,
		referrerBps:  info.FeeRateRef,
		mayanBps:     info.FeeRateMayan,
		auctionMode:  info.AuctionMode,
		random:       info.KeyRnd,
	}
}

// swiftOrderHash reconstructs the order hash the EVM side emits as OrderCreated.key.
func swiftOrderHash(f swiftOrderFields) (string, error) {
	var err error
	addr := func(raw []byte) utils.Address32 {
		if err != nil {
			return utils.Address32{}
		}
		var a utils.Address32
		a, err = utils.Address32FromBytes(raw)
		return a
	}
	params := utils.MayanOrderParams{
		Trader:       addr(f.trader),
		SrcChainID:   f.srcChain,
		TokenIn:      addr(f.tokenIn),
		DestAddr:     addr(f.destAddr),
		DestChainID:  f.destChain,
		TokenOut:     addr(f.tokenOut),
		MinAmountOut: f.minAmountOut,
		GasDrop:      f.gasDrop,
		CancelFee:    f.cancelFee,
		RefundFee:    f.refundFee,
		Deadline:     f.deadline,
		ReferrerAddr: addr(f.referrer),
		ReferrerBps:  f.referrerBps,
		MayanBps:     f.mayanBps,
		AuctionMode:  f.auctionMode,
		RandomKey:    addr(f.random),
	}
	if err != nil {
		return "", err
	}
	return utils.ReconstructOrderHash(params), nil
}
