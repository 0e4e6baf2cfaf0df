package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"bridge-indexer/internal/config"
	"bridge-indexer/internal/metrics"
	"bridge-indexer/internal/models"
	"bridge-indexer/internal/repository"
	"bridge-indexer/internal/types"
	"bridge-indexer/internal/utils"

	"github.com/sirupsen/logrus"
)

// Valuator is the pricing collaborator. Prepare receives every token pair of a fresh
// cctx table and the time span to price; Apply fills the USD columns.
type Valuator interface {
	Prepare(ctx context.Context, bridge models.Bridge, tuples []types.ValuationTuple, from, to time.Time) error
	Apply(ctx context.Context, bridge models.Bridge) error
}

// CctxGenerator joins the decoded tables of a bridge into one cross-chain transaction per intent.
type CctxGenerator struct {
	debridge  repository.DeBridgeRepository
	mayan     repository.MayanRepository
	txs       repository.TransactionRepository
	cctxs     repository.CctxRepository
	valuator  Valuator
	contracts config.ContractsConfig
	logger    *logrus.Logger
}

func NewCctxGenerator(
	debridge repository.DeBridgeRepository,
	mayan repository.MayanRepository,
	txs repository.TransactionRepository,
	cctxs repository.CctxRepository,
	valuator Valuator,
	contracts config.ContractsConfig,
	logger *logrus.Logger,
) *CctxGenerator {
	return &CctxGenerator{
		debridge:  debridge,
		mayan:     mayan,
		txs:       txs,
		cctxs:     cctxs,
		valuator:  valuator,
		contracts: contracts,
		logger:    logger,
	}
}

// Generate rebuilds the bridge's cctx table and hands the result to the valuator.
func (g *CctxGenerator) Generate(ctx context.Context, bridge models.Bridge) (int, error) {
	var (
		rows []*models.CrossChainTransaction
		err  error
	)
	switch bridge {
	case models.BridgeDeBridge:
		rows, err = g.BuildDeBridge(ctx)
	case models.BridgeMayan:
		rows, err = g.BuildMayan(ctx)
	default:
		return 0, fmt.Errorf("unknown bridge %q", bridge)
	}
	if err != nil {
		return 0, err
	}

	if err := g.cctxs.Rebuild(ctx, bridge, rows); err != nil {
		return 0, err
	}
	metrics.CctxGenerated.WithLabelValues(string(bridge)).Add(float64(len(rows)))
	metrics.CctxRows.WithLabelValues(string(bridge)).Set(float64(len(rows)))

	g.logger.WithFields(logrus.Fields{
		"bridge":     bridge,
		"rows":       len(rows),
		"directions": countDirections(rows),
	}).Info("Cross-chain transactions rebuilt")

	if g.valuator == nil || len(rows) == 0 {
		return len(rows), nil
	}
	tuples, from, to := valuationInput(rows)
	if err := g.valuator.Prepare(ctx, bridge, tuples, from, to); err != nil {
		return len(rows), fmt.Errorf("prepare valuation: %w", err)
	}
	if err := g.valuator.Apply(ctx, bridge); err != nil {
		return len(rows), fmt.Errorf("apply valuation: %w", err)
	}
	return len(rows), nil
}

// BuildDeBridge: created ⋈ fulfilled on order id, ⟕ claimed unlock, ⋈ raw transactions.
func (g *CctxGenerator) BuildDeBridge(ctx context.Context) ([]*models.CrossChainTransaction, error) {
	created, err := g.debridge.ListCreatedOrders(ctx)
	if err != nil {
		return nil, err
	}
	fulfilled, err := g.debridge.ListFulfilledOrders(ctx)
	if err != nil {
		return nil, err
	}
	claims, err := g.debridge.ListClaimedUnlocks(ctx)
	if err != nil {
		return nil, err
	}

	fulfilledByID := make(map[string]*models.DeBridgeFulfilledOrder, len(fulfilled))
	for _, f := range fulfilled {
		fulfilledByID[f.OrderID] = f
	}
	claimByID := make(map[string]*models.DeBridgeClaimedUnlock, len(claims))
	for _, c := range claims {
		claimByID[c.OrderID] = c
	}

	hashes := make([]string, 0, len(created)*2)
	for _, c := range created {
		if f, ok := fulfilledByID[c.OrderID]; ok {
			hashes = append(hashes, c.TransactionHash, f.TransactionHash)
			if u, ok := claimByID[c.OrderID]; ok {
				hashes = append(hashes, u.TransactionHash)
			}
		}
	}
	raw, err := g.rawTransactions(ctx, hashes)
	if err != nil {
		return nil, err
	}

	var rows []*models.CrossChainTransaction
	seen := make(map[string]bool)
	missingTx := 0
	for _, c := range created {
		f, ok := fulfilledByID[c.OrderID]
		if !ok || seen[c.OrderID] {
			continue
		}
		if !supportedDirection(c.Blockchain, f.Blockchain) {
			continue
		}
		srcTx := raw.get(c.Blockchain, c.TransactionHash)
		dstTx := raw.get(f.Blockchain, f.TransactionHash)
		if srcTx == nil || dstTx == nil {
			missingTx++
			continue
		}
		seen[c.OrderID] = true

		row := &models.CrossChainTransaction{
			IntentID:           c.OrderID,
			Depositor:          c.MakerSrc,
			Recipient:          c.ReceiverDst,
			SrcContractAddress: c.GiveTokenAddress,
			DstContractAddress: f.TakeTokenAddress,
			InputAmount:        c.GiveAmount,
			OutputAmount:       f.TakeAmount,
			SrcMiddleToken:     c.MiddleTokenAddress,
			SrcMiddleAmount:    c.MiddleAmount,
			DstMiddleToken:     f.MiddleTokenAddress,
			DstMiddleAmount:    f.MiddleAmount,
			NativeFixFee:       c.NativeFixFee,
			PercentFee:         c.PercentFee,
		}
		g.setSrc(row, c.Blockchain, srcTx, g.contracts.DeBridge.SolanaSource)
		g.setDst(row, f.Blockchain, dstTx, g.contracts.DeBridge.SolanaDestination)

		if u, ok := claimByID[c.OrderID]; ok {
			g.setRefund(row, u.Blockchain, u.TransactionHash, u.Timestamp, raw.get(u.Blockchain, u.TransactionHash),
				g.contracts.DeBridge.DlnSource, g.contracts.DeBridge.SolanaSource, u.Fee)
			row.RefundToken = strPtr(u.GiveTokenAddress)
			row.RefundAmount = strPtr(u.GiveAmount)
		}
		rows = append(rows, row)
	}

	if missingTx > 0 {
		g.logger.WithFields(logrus.Fields{"bridge": models.BridgeDeBridge, "orders": missingTx}).
			Warn("Matched orders without stored source or destination transaction")
	}
	return rows, nil
}

// mayanSource is the source side of a Mayan intent, from the forwarder (EVM) or init_order (Solana).
type mayanSource struct {
	depositor    string
	recipient    string
	destChain    string
	tokenIn      string
	amountIn     string
	tokenOut     string
	middleToken  *string
	middleAmount *string
}

// BuildMayan: order ⋈ forwarded (EVM source), ⋈ fulfilled by order hash or through the
// registered state account, ⟕ unlock / refund, ⟕ auction bids.
func (g *CctxGenerator) BuildMayan(ctx context.Context) ([]*models.CrossChainTransaction, error) {
	orders, err := g.mayan.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	forwarded, err := g.mayan.ListForwarded(ctx)
	if err != nil {
		return nil, err
	}
	registered, err := g.mayan.ListRegisteredOrders(ctx)
	if err != nil {
		return nil, err
	}
	fulfilled, err := g.mayan.ListFulfilled(ctx)
	if err != nil {
		return nil, err
	}
	unlocked, err := g.mayan.ListUnlocked(ctx)
	if err != nil {
		return nil, err
	}
	refunded, err := g.mayan.ListRefunded(ctx)
	if err != nil {
		return nil, err
	}
	bids, err := g.mayan.ListAuctionBids(ctx)
	if err != nil {
		return nil, err
	}

	forwardedByTx := make(map[string]*models.MayanForwarded, len(forwarded))
	for _, f := range forwarded {
		forwardedByTx[txKey(f.Blockchain, f.TransactionHash)] = f
	}
	stateByHash := make(map[string]string, len(registered))
	for _, r := range registered {
		stateByHash[r.OrderHash] = r.StateAccount
	}
	fulfilledByHash := make(map[string]*models.MayanFulfilled)
	fulfilledByState := make(map[string]*models.MayanFulfilled)
	for _, f := range fulfilled {
		if f.OrderHash != nil {
			fulfilledByHash[*f.OrderHash] = f
		}
		if f.StateAccount != nil {
			fulfilledByState[*f.StateAccount] = f
		}
	}
	unlockedByHash := make(map[string]*models.MayanUnlocked)
	unlockedByState := make(map[string]*models.MayanUnlocked)
	for _, u := range unlocked {
		if u.OrderHash != nil {
			unlockedByHash[*u.OrderHash] = u
		}
		if u.StateAccount != nil {
			unlockedByState[*u.StateAccount] = u
		}
	}
	refundedByHash := make(map[string]*models.MayanRefunded, len(refunded))
	for _, r := range refunded {
		refundedByHash[r.OrderHash] = r
	}
	auctions := groupBids(bids)

	type match struct {
		order  *models.MayanOrder
		source *mayanSource
		fill   *models.MayanFulfilled
		unlock *models.MayanUnlocked
		refund *models.MayanRefunded
	}
	var matches []match
	var hashes []string
	noSource := 0
	direct, err := g.directSwiftSources(ctx, orders, forwardedByTx)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		src := g.mayanSourceOf(o, forwardedByTx)
		if src == nil {
			src = direct[txKey(o.Blockchain, o.TransactionHash)]
		}
		if src == nil {
			noSource++
			continue
		}

		var fill *models.MayanFulfilled
		if utils.IsSolana(src.destChain) {
			if state, ok := stateByHash[o.OrderHash]; ok {
				fill = fulfilledByState[state]
			}
		} else {
			fill = fulfilledByHash[o.OrderHash]
		}
		if fill == nil {
			continue
		}

		m := match{order: o, source: src, fill: fill}
		if o.StateAccount != nil {
			m.unlock = unlockedByState[*o.StateAccount]
		} else {
			m.unlock = unlockedByHash[o.OrderHash]
			m.refund = refundedByHash[o.OrderHash]
		}
		hashes = append(hashes, o.TransactionHash, fill.TransactionHash)
		if m.unlock != nil {
			hashes = append(hashes, m.unlock.TransactionHash)
		} else if m.refund != nil {
			hashes = append(hashes, m.refund.TransactionHash)
		}
		matches = append(matches, m)
	}

	raw, err := g.rawTransactions(ctx, hashes)
	if err != nil {
		return nil, err
	}

	swiftEVM, swiftSolana := g.contracts.Mayan.Swift, g.contracts.Mayan.SwiftSolana
	var rows []*models.CrossChainTransaction
	seen := make(map[string]bool)
	missingTx := 0
	for _, m := range matches {
		o, src, fill := m.order, m.source, m.fill
		if seen[o.OrderHash] || !supportedDirection(o.Blockchain, fill.Blockchain) {
			continue
		}
		srcTx := raw.get(o.Blockchain, o.TransactionHash)
		dstTx := raw.get(fill.Blockchain, fill.TransactionHash)
		if srcTx == nil || dstTx == nil {
			missingTx++
			continue
		}
		seen[o.OrderHash] = true

		amountIn := src.amountIn
		if amountIn == "" || amountIn == "0" {
			// ForwardedEth carries no amount; the native value of the transaction is the input
			amountIn = srcTx.Value
		}

		row := &models.CrossChainTransaction{
			IntentID:           o.OrderHash,
			Depositor:          src.depositor,
			Recipient:          src.recipient,
			SrcContractAddress: src.tokenIn,
			DstContractAddress: src.tokenOut,
			InputAmount:        amountIn,
			OutputAmount:       fill.NetAmount,
			SrcMiddleToken:     src.middleToken,
			SrcMiddleAmount:    src.middleAmount,
			DstMiddleToken:     fill.MiddleToken,
			DstMiddleAmount:    fill.MiddleAmount,
		}
		if fill.Recipient != "" {
			row.Recipient = fill.Recipient
		}
		g.setSrc(row, o.Blockchain, srcTx, swiftSolana)
		g.setDst(row, fill.Blockchain, dstTx, swiftSolana)

		switch {
		case m.unlock != nil:
			u := m.unlock
			g.setRefund(row, u.Blockchain, u.TransactionHash, u.Timestamp, raw.get(u.Blockchain, u.TransactionHash),
				swiftEVM, swiftSolana, u.Fee)
		case m.refund != nil:
			r := m.refund
			g.setRefund(row, r.Blockchain, r.TransactionHash, r.Timestamp, raw.get(r.Blockchain, r.TransactionHash),
				swiftEVM, swiftSolana, nil)
			token := src.tokenIn
			if src.middleToken != nil {
				token = *src.middleToken
			}
			row.RefundToken = strPtr(token)
			row.RefundAmount = strPtr(r.NetAmount)
		}

		if a, ok := auctions[o.OrderHash]; ok {
			row.AuctionID = strPtr(a.auctionState)
			first, last, count := a.first, a.last, a.count
			row.FirstBidTimestamp = &first
			row.LastBidTimestamp = &last
			row.BidCount = &count
		}
		rows = append(rows, row)
	}

	if noSource > 0 || missingTx > 0 {
		g.logger.WithFields(logrus.Fields{
			"bridge":             models.BridgeMayan,
			"without_source":     noSource,
			"without_stored_txs": missingTx,
		}).Warn("Orders left out of cross-chain transactions")
	}
	return rows, nil
}

func (g *CctxGenerator) mayanSourceOf(o *models.MayanOrder, forwardedByTx map[string]*models.MayanForwarded) *mayanSource {
	if o.StateAccount != nil {
		src := &mayanSource{
			depositor:    o.Trader,
			recipient:    o.DestAddr,
			destChain:    o.DestChain,
			tokenIn:      o.TokenIn,
			tokenOut:     o.TokenOut,
			middleToken:  o.MiddleToken,
			middleAmount: o.MiddleAmount,
		}
		if o.AmountIn != nil {
			src.amountIn = *o.AmountIn
		}
		return src
	}

	f, ok := forwardedByTx[txKey(o.Blockchain, o.TransactionHash)]
	if !ok {
		return nil
	}
	return &mayanSource{
		depositor:    f.Trader,
		recipient:    f.DestAddr,
		destChain:    f.DestChain,
		tokenIn:      f.TokenIn,
		amountIn:     f.AmountIn,
		tokenOut:     f.TokenOut,
		middleToken:  f.MiddleToken,
		middleAmount: f.MiddleAmount,
	}
}

// directSwiftSources describes EVM orders placed on Swift without the forwarder
// by decoding the createOrderWith* calldata of their stored transaction.
func (g *CctxGenerator) directSwiftSources(ctx context.Context, orders []*models.MayanOrder, forwardedByTx map[string]*models.MayanForwarded) (map[string]*mayanSource, error) {
	var hashes []string
	for _, o := range orders {
		if o.StateAccount != nil {
			continue
		}
		if _, ok := forwardedByTx[txKey(o.Blockchain, o.TransactionHash)]; !ok {
			hashes = append(hashes, o.TransactionHash)
		}
	}
	raw, err := g.rawTransactions(ctx, hashes)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*mayanSource)
	for _, o := range orders {
		key := txKey(o.Blockchain, o.TransactionHash)
		tx, ok := raw[key]
		if !ok || o.StateAccount != nil {
			continue
		}
		src, err := swiftSourceFromInput(o.Blockchain, tx.InputData)
		if err != nil {
			g.logger.WithFields(logrus.Fields{
				"bridge":     models.BridgeMayan,
				"blockchain": o.Blockchain,
				"tx_hash":    o.TransactionHash,
				"order_hash": o.OrderHash,
			}).WithError(err).Debug("Order transaction is not a direct Swift call")
			continue
		}
		out[key] = src
	}
	return out, nil
}

func swiftSourceFromInput(chain, input string) (*mayanSource, error) {
	calldata, err := utils.DecodeHex(input)
	if err != nil {
		return nil, err
	}
	call, err := types.DecodeSwiftCreateOrder(calldata)
	if err != nil {
		return nil, err
	}
	params := call.Params
	destChain, ok := utils.WormholeChainName(params.DestChainId)
	if !ok {
		return nil, fmt.Errorf("unsupported destination wormhole chain %d", params.DestChainId)
	}
	trader, err := utils.EncodeAddressForChainName(chain, params.Trader[:])
	if err != nil {
		return nil, err
	}
	tokenOut, err := utils.EncodeAddressForChainName(destChain, params.TokenOut[:])
	if err != nil {
		return nil, err
	}
	destAddr, err := utils.EncodeAddressForChainName(destChain, params.DestAddr[:])
	if err != nil {
		return nil, err
	}
	return &mayanSource{
		depositor: trader,
		recipient: destAddr,
		destChain: destChain,
		tokenIn:   utils.NormalizeEvmAddress(call.TokenIn.Hex()),
		amountIn:  utils.DecimalString(call.AmountIn), // "0" for createOrderWithEth, replaced by the tx value
		tokenOut:  tokenOut,
	}, nil
}

func (g *CctxGenerator) setSrc(row *models.CrossChainTransaction, chain string, tx *models.Transaction, solanaProgram string) {
	row.SrcBlockchain = chain
	row.SrcTransactionHash = tx.TransactionHash
	row.SrcFromAddress = tx.FromAddress
	row.SrcToAddress = tx.ToAddress
	if utils.IsSolana(chain) {
		row.SrcToAddress = solanaProgram
	}
	row.SrcFee = tx.Fee
	row.SrcValue = tx.Value
	row.SrcTimestamp = tx.Timestamp
}

func (g *CctxGenerator) setDst(row *models.CrossChainTransaction, chain string, tx *models.Transaction, solanaProgram string) {
	row.DstBlockchain = chain
	row.DstTransactionHash = tx.TransactionHash
	row.DstFromAddress = tx.FromAddress
	row.DstToAddress = tx.ToAddress
	if utils.IsSolana(chain) {
		row.DstToAddress = solanaProgram
	}
	row.DstFee = tx.Fee
	row.DstValue = tx.Value
	row.DstTimestamp = tx.Timestamp
}

// setRefund fills the refund side. The refund's "to" is always the bridge contract or program.
func (g *CctxGenerator) setRefund(row *models.CrossChainTransaction, chain, hash string, ts time.Time, tx *models.Transaction, evmContract, solanaProgram string, fee *string) {
	row.RefundBlockchain = strPtr(chain)
	row.RefundTransactionHash = strPtr(hash)
	row.RefundTimestamp = &ts
	if utils.IsSolana(chain) {
		row.RefundToAddress = strPtr(solanaProgram)
	} else {
		row.RefundToAddress = strPtr(strings.ToLower(evmContract))
	}
	row.RefundFee = fee
	if tx == nil {
		return
	}
	row.RefundFromAddress = strPtr(tx.FromAddress)
	row.RefundValue = strPtr(tx.Value)
	if row.RefundFee == nil {
		row.RefundFee = strPtr(tx.Fee)
	}
	if !tx.Timestamp.IsZero() {
		t := tx.Timestamp
		row.RefundTimestamp = &t
	}
}

// rawIndex looks up stored transactions by (blockchain, hash).
type rawIndex map[string]*models.Transaction

func (r rawIndex) get(chain, hash string) *models.Transaction {
	return r[txKey(chain, hash)]
}

func txKey(chain, hash string) string {
	return chain + "/" + hash
}

func (g *CctxGenerator) rawTransactions(ctx context.Context, hashes []string) (rawIndex, error) {
	idx := make(rawIndex)
	if len(hashes) == 0 {
		return idx, nil
	}
	txs, err := g.txs.FindByHashes(ctx, uniqueStrings(hashes))
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		idx[txKey(tx.Blockchain, tx.TransactionHash)] = tx
	}
	return idx, nil
}

// supportedDirection is false for Solana to Solana, which neither bridge routes.
func supportedDirection(src, dst string) bool {
	return !(utils.IsSolana(src) && utils.IsSolana(dst))
}

func direction(src, dst string) string {
	family := func(chain string) string {
		if utils.IsSolana(chain) {
			return "solana"
		}
		return "evm"
	}
	return family(src) + "->" + family(dst)
}

func countDirections(rows []*models.CrossChainTransaction) map[string]int {
	out := make(map[string]int)
	for _, r := range rows {
		out[direction(r.SrcBlockchain, r.DstBlockchain)]++
	}
	return out
}

type auctionSummary struct {
	auctionState string
	first        time.Time
	last         time.Time
	count        int
}

func groupBids(bids []*models.MayanAuctionBid) map[string]*auctionSummary {
	out := make(map[string]*auctionSummary)
	for _, b := range bids {
		a, ok := out[b.OrderHash]
		if !ok {
			out[b.OrderHash] = &auctionSummary{auctionState: b.AuctionState, first: b.Timestamp, last: b.Timestamp, count: 1}
			continue
		}
		if b.Timestamp.Before(a.first) {
			a.first = b.Timestamp
		}
		if b.Timestamp.After(a.last) {
			a.last = b.Timestamp
		}
		a.count++
	}
	return out
}

// valuationInput returns the unique token pairs (sorted) and the source time span of rows.
func valuationInput(rows []*models.CrossChainTransaction) ([]types.ValuationTuple, time.Time, time.Time) {
	seen := make(map[types.ValuationTuple]bool)
	var tuples []types.ValuationTuple
	var from, to time.Time
	for i, r := range rows {
		t := types.ValuationTuple{
			SrcBlockchain:      r.SrcBlockchain,
			SrcContractAddress: r.SrcContractAddress,
			DstBlockchain:      r.DstBlockchain,
			DstContractAddress: r.DstContractAddress,
		}
		if !seen[t] {
			seen[t] = true
			tuples = append(tuples, t)
		}
		if i == 0 || r.SrcTimestamp.Before(from) {
			from = r.SrcTimestamp
		}
		if i == 0 || r.DstTimestamp.After(to) {
			to = r.DstTimestamp
		}
	}
	sort.Slice(tuples, func(i, j int) bool {
		a, b := tuples[i], tuples[j]
		if a.SrcBlockchain != b.SrcBlockchain {
			return a.SrcBlockchain < b.SrcBlockchain
		}
		if a.SrcContractAddress != b.SrcContractAddress {
			return a.SrcContractAddress < b.SrcContractAddress
		}
		if a.DstBlockchain != b.DstBlockchain {
			return a.DstBlockchain < b.DstBlockchain
		}
		return a.DstContractAddress < b.DstContractAddress
	})
	return tuples, from, to
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
