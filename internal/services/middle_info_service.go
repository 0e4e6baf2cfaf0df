package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bridge-indexer/internal/metrics"
	"bridge-indexer/internal/repository"
	"bridge-indexer/internal/utils"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

// selectorKind tells the enrichment pass what an entry point's calldata holds.
type selectorKind int

const (
	selectorSwap     selectorKind = iota // token at word 0, amount at word 1
	selectorNoMiddle                     // bridge entry point without a swap
)

type selectorInfo struct {
	name string
	kind selectorKind
}

// Entry points that reach DlnSource / DlnDestination.
var entryPointSignatures = map[string]selectorKind{
	// crosschain forwarder
	"strictlySwapAndCall(address,uint256,bytes,uint256,address,address,bytes,address,uint256,address,address,bytes)": selectorSwap,
	"swapAndCall(address,uint256,bytes,address,bytes,address,address,address,bytes)":                                  selectorSwap,

	// DlnSource
	"createOrder((address,uint256,bytes,uint256,uint256,bytes,address,bytes,bytes,bytes,bytes),bytes,uint32,bytes)":                   selectorNoMiddle,
	"createSaltedOrder((address,uint256,bytes,uint256,uint256,bytes,address,bytes,bytes,bytes,bytes),uint64,bytes,uint32,bytes,bytes)": selectorNoMiddle,

	// DlnDestination
	"fulfillOrder((uint64,bytes,uint256,bytes,uint256,uint256,bytes,uint256,bytes,bytes,bytes,bytes,bytes,bytes),uint256,bytes32,bytes,address)": selectorNoMiddle,

	"sendEvmUnlock(bytes32,address,uint256)":        selectorNoMiddle,
	"sendBatchEvmUnlock(bytes32[],address,uint256)": selectorNoMiddle,
}

var entryPoints = buildSelectorTable(entryPointSignatures)

func buildSelectorTable(signatures map[string]selectorKind) map[[4]byte]selectorInfo {
	out := make(map[[4]byte]selectorInfo, len(signatures))
	for sig, kind := range signatures {
		var sel [4]byte
		copy(sel[:], crypto.Keccak256([]byte(sig))[:4])
		out[sel] = selectorInfo{name: sig[:strings.IndexByte(sig, '(')], kind: kind}
	}
	return out
}

// Enrichment outcomes.
const (
	OutcomeEnriched        = "enriched"
	OutcomeNoMiddle        = "no_middle"
	OutcomeUnknownSelector = "unknown_selector"
	OutcomeMissingTx       = "missing_tx"
	OutcomeFailed          = "failed"
)

// EnrichmentResult counts per outcome.
type EnrichmentResult map[string]int

// MiddleInfoService is the post-extraction pass that fills middle token/amount columns from
// transaction calldata, and Solana fees from transaction metadata.
type MiddleInfoService struct {
	debridge repository.DeBridgeRepository
	mayan    repository.MayanRepository
	txs      repository.TransactionRepository
	logger   *logrus.Logger
}

func NewMiddleInfoService(debridge repository.DeBridgeRepository, mayan repository.MayanRepository, txs repository.TransactionRepository, logger *logrus.Logger) *MiddleInfoService {
	return &MiddleInfoService{debridge: debridge, mayan: mayan, txs: txs, logger: logger}
}

// swapWindow is the token/amount pair read right after the selector.
type swapWindow struct {
	token  string
	amount string
}

// classify reads the selector of input. The window is set only for swap entry points.
func classify(input []byte) (selectorInfo, *swapWindow, error) {
	if len(input) < 4 {
		return selectorInfo{}, nil, fmt.Errorf("calldata too short: %d bytes", len(input))
	}
	var sel [4]byte
	copy(sel[:], input[:4])
	info, ok := entryPoints[sel]
	if !ok {
		return selectorInfo{name: hexutil.Encode(sel[:])}, nil, errUnknownSelector
	}
	if info.kind != selectorSwap {
		return info, nil, nil
	}
	if len(input) < 4+64 {
		return info, nil, fmt.Errorf("%s calldata too short: %d bytes", info.name, len(input))
	}
	token, err := utils.EvmAddressFromBytes(input[4:36])
	if err != nil {
		return info, nil, err
	}
	amount := utils.DecimalFromBytes(input[36:68])
	return info, &swapWindow{token: token, amount: amount}, nil
}

var errUnknownSelector = errors.New("unknown selector")

// EnrichDeBridge fills middle info for created and fulfilled orders on the given EVM chains.
func (s *MiddleInfoService) EnrichDeBridge(ctx context.Context, chains []string) (EnrichmentResult, error) {
	result := EnrichmentResult{}

	created, err := s.debridge.ListCreatedOrdersWithoutMiddle(ctx, chains)
	if err != nil {
		return nil, err
	}
	for _, o := range created {
		outcome := s.enrich(ctx, o.Blockchain, o.TransactionHash, o.OrderID, func(w *swapWindow) error {
			// the order's give side is what reached DlnSource after the swap
			return s.debridge.UpdateCreatedOrderMiddleInfo(ctx, o.OrderID, w.token, w.amount, o.GiveTokenAddress, o.GiveAmount)
		})
		result[outcome]++
	}

	fulfilled, err := s.debridge.ListFulfilledOrdersWithoutMiddle(ctx, chains)
	if err != nil {
		return nil, err
	}
	for _, o := range fulfilled {
		outcome := s.enrich(ctx, o.Blockchain, o.TransactionHash, o.OrderID, func(w *swapWindow) error {
			return s.debridge.UpdateFulfilledOrderMiddleInfo(ctx, o.OrderID, w.token, w.amount)
		})
		result[outcome]++
	}

	s.logger.WithFields(logrus.Fields{
		"chains":    chains,
		"created":   len(created),
		"fulfilled": len(fulfilled),
		"outcomes":  result,
	}).Info("Middle info enrichment finished")
	return result, nil
}

func (s *MiddleInfoService) enrich(ctx context.Context, chain, txHash, orderID string, update func(*swapWindow) error) string {
	entry := s.logger.WithFields(logrus.Fields{"blockchain": chain, "tx_hash": txHash, "order_id": orderID})

	tx, found, err := s.txs.Get(ctx, chain, txHash)
	if err != nil {
		entry.WithError(err).Error("Failed to load transaction")
		metrics.EnrichmentOutcomes.WithLabelValues("", OutcomeFailed).Inc()
		return OutcomeFailed
	}
	if !found {
		entry.Warn("Raw transaction not stored, cannot read calldata")
		metrics.EnrichmentOutcomes.WithLabelValues("", OutcomeMissingTx).Inc()
		return OutcomeMissingTx
	}

	input, err := utils.DecodeHex(tx.InputData)
	if err != nil {
		entry.WithError(err).Error("Bad calldata")
		metrics.EnrichmentOutcomes.WithLabelValues("", OutcomeFailed).Inc()
		return OutcomeFailed
	}

	info, window, err := classify(input)
	switch {
	case errors.Is(err, errUnknownSelector):
		entry.WithField("selector", info.name).Warn("Unknown entry point, middle info not available")
		metrics.EnrichmentOutcomes.WithLabelValues(info.name, OutcomeUnknownSelector).Inc()
		return OutcomeUnknownSelector
	case err != nil:
		entry.WithError(err).Error("Failed to read swap window")
		metrics.EnrichmentOutcomes.WithLabelValues(info.name, OutcomeFailed).Inc()
		return OutcomeFailed
	case window == nil:
		metrics.EnrichmentOutcomes.WithLabelValues(info.name, OutcomeNoMiddle).Inc()
		return OutcomeNoMiddle
	}

	if err := update(window); err != nil {
		entry.WithError(err).Error("Failed to store middle info")
		metrics.EnrichmentOutcomes.WithLabelValues(info.name, OutcomeFailed).Inc()
		return OutcomeFailed
	}
	metrics.EnrichmentOutcomes.WithLabelValues(info.name, OutcomeEnriched).Inc()
	return OutcomeEnriched
}

// FillSolanaFees copies the transaction fee onto Solana unlock records of both bridges.
func (s *MiddleInfoService) FillSolanaFees(ctx context.Context) (int, error) {
	filled := 0

	claims, err := s.debridge.ListClaimedUnlocksWithoutFee(ctx, solanaChain)
	if err != nil {
		return filled, err
	}
	for _, c := range claims {
		fee, ok := s.solanaFee(ctx, c.TransactionHash)
		if !ok {
			continue
		}
		if err := s.debridge.UpdateClaimedUnlockFee(ctx, c.OrderID, fee); err != nil {
			return filled, err
		}
		filled++
	}

	unlocks, err := s.mayan.ListUnlockedWithoutFee(ctx, solanaChain)
	if err != nil {
		return filled, err
	}
	for _, u := range unlocks {
		fee, ok := s.solanaFee(ctx, u.TransactionHash)
		if !ok {
			continue
		}
		if err := s.mayan.UpdateUnlockedFee(ctx, u.ID, fee); err != nil {
			return filled, err
		}
		filled++
	}

	s.logger.WithFields(logrus.Fields{
		"claims":  len(claims),
		"unlocks": len(unlocks),
		"filled":  filled,
	}).Info("Solana fee pass finished")
	return filled, nil
}

func (s *MiddleInfoService) solanaFee(ctx context.Context, signature string) (string, bool) {
	tx, found, err := s.txs.Get(ctx, solanaChain, signature)
	if err != nil {
		s.logger.WithError(err).WithField("signature", signature).Error("Failed to load transaction")
		return "", false
	}
	if !found {
		s.logger.WithField("signature", signature).Warn("Raw transaction not stored, fee left empty")
		return "", false
	}
	return tx.Fee, true
}
