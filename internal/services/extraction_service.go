package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"bridge-indexer/internal/events"
	"bridge-indexer/internal/metrics"
	"bridge-indexer/internal/models"
	"bridge-indexer/internal/repository"
	"bridge-indexer/internal/types"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EVMChainReader is the chain-data collaborator for one EVM chain.
type EVMChainReader interface {
	BlockByTimestamp(ctx context.Context, ts time.Time) (uint64, error)
	FilterLogs(ctx context.Context, from, to uint64, addresses []common.Address, topics []common.Hash) ([]ethtypes.Log, error)
	BlockTimes(ctx context.Context, numbers []uint64) (map[uint64]time.Time, error)
	TransactionDetails(ctx context.Context, hash common.Hash) (*models.Transaction, error)
}

// SolanaChainReader is the chain-data collaborator for Solana.
type SolanaChainReader interface {
	SignaturesInRange(ctx context.Context, program string, start, end time.Time) ([]string, error)
	TransactionMeta(ctx context.Context, signature string) (*models.Transaction, error)
}

// InstructionDecoder turns a signature into its decoded instruction list.
type InstructionDecoder interface {
	Decode(ctx context.Context, signature string) (*types.SolanaTransaction, error)
}

// LogProcessor decodes bridge events out of EVM logs.
type LogProcessor interface {
	Addresses() []common.Address
	Topics() []common.Hash
	SetRunID(runID string)
	ProcessLogs(ctx context.Context, batch *types.EVMLogBatch) BatchResult
}

// InstructionProcessor decodes bridge instructions out of Solana transactions.
type InstructionProcessor interface {
	Programs() []string
	SetRunID(runID string)
	ProcessTransactions(ctx context.Context, txs []*types.SolanaTransaction) BatchResult
}

type evmChain struct {
	reader    EVMChainReader
	batchSize uint64
}

// Extraction stages whose failures are recorded and skipped.
const (
	stageSignatures = "signatures"
	stageLogs       = "filter_logs"
	stageBlockTimes = "block_times"
	stageTxMeta     = "transaction_meta"
)

// ExtractionService drives a time-window extraction for one bridge on one chain.
// A failing RPC call or insert costs the range, program or transaction it was
// about; the run carries on and reports it as failed.
type ExtractionService struct {
	txs       repository.TransactionRepository
	failed    repository.FailedEventRepository // optional
	publisher events.Publisher
	logger    *logrus.Logger

	evmChains  map[string]evmChain
	logProcs   map[models.Bridge]LogProcessor
	solana     SolanaChainReader
	decoder    InstructionDecoder
	instrProcs map[models.Bridge]InstructionProcessor
}

func NewExtractionService(txs repository.TransactionRepository, failed repository.FailedEventRepository, publisher events.Publisher, logger *logrus.Logger) *ExtractionService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ExtractionService{
		txs:        txs,
		failed:     failed,
		publisher:  publisher,
		logger:     logger,
		evmChains:  make(map[string]evmChain),
		logProcs:   make(map[models.Bridge]LogProcessor),
		instrProcs: make(map[models.Bridge]InstructionProcessor),
	}
}

func (s *ExtractionService) AddEVMChain(chain string, reader EVMChainReader, batchSize uint64) {
	if batchSize == 0 {
		batchSize = 2000
	}
	s.evmChains[chain] = evmChain{reader: reader, batchSize: batchSize}
}

func (s *ExtractionService) SetSolana(reader SolanaChainReader, decoder InstructionDecoder) {
	s.solana = reader
	s.decoder = decoder
}

func (s *ExtractionService) RegisterLogProcessor(bridge models.Bridge, p LogProcessor) {
	s.logProcs[bridge] = p
}

func (s *ExtractionService) RegisterInstructionProcessor(bridge models.Bridge, p InstructionProcessor) {
	s.instrProcs[bridge] = p
}

// EVMChains lists the configured EVM chains in name order.
func (s *ExtractionService) EVMChains() []string {
	names := make([]string, 0, len(s.evmChains))
	for name := range s.evmChains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExtractEVM decodes every bridge event emitted on chain between start and end.
func (s *ExtractionService) ExtractEVM(ctx context.Context, bridge models.Bridge, chain string, start, end time.Time) (*events.RunSummary, error) {
	proc, ok := s.logProcs[bridge]
	if !ok {
		return nil, fmt.Errorf("no EVM processor for bridge %s", bridge)
	}
	c, ok := s.evmChains[chain]
	if !ok {
		return nil, fmt.Errorf("chain %s is not configured", chain)
	}

	began := time.Now()
	runID := uuid.NewString()
	proc.SetRunID(runID)
	entry := s.logger.WithFields(logrus.Fields{"bridge": bridge, "blockchain": chain, "run_id": runID})
	runner := s.runner(bridge, runID)

	fromBlock, err := c.reader.BlockByTimestamp(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("resolve start block: %w", err)
	}
	toBlock, err := c.reader.BlockByTimestamp(ctx, end)
	if err != nil {
		return nil, fmt.Errorf("resolve end block: %w", err)
	}
	// [start, end): the block found for end is the first one outside the window
	if toBlock > fromBlock {
		toBlock--
	}
	entry.WithFields(logrus.Fields{"from_block": fromBlock, "to_block": toBlock}).Info("Starting EVM extraction")

	var total BatchResult
	for from := fromBlock; from <= toBlock; from += c.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		to := from + c.batchSize - 1
		if to > toBlock {
			to = toBlock
		}
		rangeRef := eventRef{Blockchain: chain, EventName: stageLogs, Block: from}

		logs, err := c.reader.FilterLogs(ctx, from, to, proc.Addresses(), proc.Topics())
		if err != nil {
			s.stageFailed(ctx, runner, rangeRef, &total, fmt.Errorf("filter logs %d-%d: %w", from, to, err))
			continue
		}
		if len(logs) == 0 {
			continue
		}

		blockTimes, err := c.reader.BlockTimes(ctx, blockNumbers(logs))
		if err != nil {
			rangeRef.EventName = stageBlockTimes
			s.stageFailed(ctx, runner, rangeRef, &total, fmt.Errorf("block times %d-%d: %w", from, to, err))
			continue
		}
		s.storeEVMTransactions(ctx, runner, c.reader, chain, logs, blockTimes, &total)

		total.Add(proc.ProcessLogs(ctx, &types.EVMLogBatch{
			Blockchain: chain,
			FromBlock:  from,
			ToBlock:    to,
			Logs:       logs,
			BlockTimes: blockTimes,
		}))
	}

	metrics.ExtractionDuration.WithLabelValues(string(bridge), chain).Observe(time.Since(began).Seconds())
	summary := s.summary(runID, bridge, chain, start, end, total)
	s.publish(ctx, entry, summary)
	return summary, nil
}

// storeEVMTransactions saves the raw metadata of every transaction in logs.
// The logs are decoded either way; a transaction that cannot be stored is counted as failed.
func (s *ExtractionService) storeEVMTransactions(ctx context.Context, runner *eventRunner, reader EVMChainReader, chain string, logs []ethtypes.Log, blockTimes map[uint64]time.Time, result *BatchResult) {
	seen := make(map[common.Hash]bool)
	for _, lg := range logs {
		if seen[lg.TxHash] {
			continue
		}
		seen[lg.TxHash] = true

		ref := eventRef{Blockchain: chain, EventName: stageTxMeta, Contract: lg.Address.Hex(), TxHash: lg.TxHash.Hex(), Block: lg.BlockNumber}
		if err := s.storeEVMTransaction(ctx, reader, ref, blockTimes); err != nil {
			s.stageFailed(ctx, runner, ref, result, err)
		}
	}
}

func (s *ExtractionService) storeEVMTransaction(ctx context.Context, reader EVMChainReader, ref eventRef, blockTimes map[uint64]time.Time) error {
	exists, err := s.txs.Exists(ctx, ref.Blockchain, ref.TxHash)
	if err != nil || exists {
		return err
	}
	tx, err := reader.TransactionDetails(ctx, common.HexToHash(ref.TxHash))
	if err != nil {
		return fmt.Errorf("transaction %s: %w", ref.TxHash, err)
	}
	tx.Blockchain = ref.Blockchain
	tx.TransactionHash = ref.TxHash
	tx.BlockNumber = ref.Block
	if ts, ok := blockTimes[ref.Block]; ok {
		tx.Timestamp = ts
	}
	return s.txs.Create(ctx, tx)
}

// ExtractSolana decodes every transaction that touched the bridge's programs between start and end.
func (s *ExtractionService) ExtractSolana(ctx context.Context, bridge models.Bridge, start, end time.Time) (*events.RunSummary, error) {
	proc, ok := s.instrProcs[bridge]
	if !ok {
		return nil, fmt.Errorf("no Solana processor for bridge %s", bridge)
	}
	if s.solana == nil || s.decoder == nil {
		return nil, fmt.Errorf("solana is not configured")
	}

	began := time.Now()
	runID := uuid.NewString()
	proc.SetRunID(runID)
	entry := s.logger.WithFields(logrus.Fields{"bridge": bridge, "blockchain": solanaChain, "run_id": runID})
	runner := s.runner(bridge, runID)

	var failures BatchResult
	var signatures []string
	seen := make(map[string]bool)
	for _, program := range proc.Programs() {
		sigs, err := s.solana.SignaturesInRange(ctx, program, start, end)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			ref := eventRef{Blockchain: solanaChain, EventName: stageSignatures, Contract: program}
			s.stageFailed(ctx, runner, ref, &failures, fmt.Errorf("signatures for %s: %w", program, err))
			continue
		}
		for _, sig := range sigs {
			if !seen[sig] {
				seen[sig] = true
				signatures = append(signatures, sig)
			}
		}
	}
	entry.WithField("signatures", len(signatures)).Info("Starting Solana extraction")

	txs := make([]*types.SolanaTransaction, 0, len(signatures))
	undecoded := 0
	for _, sig := range signatures {
		tx, err := s.decoder.Decode(ctx, sig)
		if err != nil {
			undecoded++
			entry.WithError(err).WithField("signature", sig).Warn("No decoded instructions for transaction")
			continue
		}
		// the instructions are decoded already; a missing metadata row does not hold them back
		if err := s.storeSolanaTransaction(ctx, tx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			ref := eventRef{Blockchain: solanaChain, EventName: stageTxMeta, TxHash: sig, Block: tx.Slot}
			s.stageFailed(ctx, runner, ref, &failures, err)
		}
		txs = append(txs, tx)
	}
	// slot order so a create is seen before its fulfill in the same window
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Slot < txs[j].Slot })

	total := proc.ProcessTransactions(ctx, txs)
	total.Add(failures)
	if undecoded > 0 {
		entry.WithField("undecoded", undecoded).Warn("Some transactions could not be decoded")
	}

	metrics.ExtractionDuration.WithLabelValues(string(bridge), solanaChain).Observe(time.Since(began).Seconds())
	summary := s.summary(runID, bridge, solanaChain, start, end, total)
	s.publish(ctx, entry, summary)
	return summary, nil
}

// storeSolanaTransaction makes sure the signature has a complete metadata row and
// copies fee, signer and block time onto the decoded transaction.
// Rows stored earlier without block time or fee are filled in from RPC.
func (s *ExtractionService) storeSolanaTransaction(ctx context.Context, tx *types.SolanaTransaction) error {
	stored, found, err := s.txs.Get(ctx, solanaChain, tx.Signature)
	if err != nil {
		return err
	}
	if found && metaComplete(stored) {
		applyMeta(tx, stored)
		return nil
	}

	meta, err := s.solana.TransactionMeta(ctx, tx.Signature)
	if err != nil {
		return fmt.Errorf("transaction meta %s: %w", tx.Signature, err)
	}
	meta.Blockchain = solanaChain
	meta.TransactionHash = tx.Signature
	if meta.BlockNumber == 0 {
		meta.BlockNumber = tx.Slot
	}
	applyMeta(tx, meta)

	if found {
		return s.txs.UpdateMeta(ctx, meta)
	}
	return s.txs.Create(ctx, meta)
}

func metaComplete(tx *models.Transaction) bool {
	return !tx.Timestamp.IsZero() && tx.Fee != "" && tx.Fee != "0" && tx.FromAddress != ""
}

// applyMeta fills what the decoder output left empty; it may predate fee and signer support.
func applyMeta(tx *types.SolanaTransaction, meta *models.Transaction) {
	if tx.Fee == 0 {
		if fee, ok := parseUint(meta.Fee); ok {
			tx.Fee = fee
		}
	}
	if tx.Signer == "" {
		tx.Signer = meta.FromAddress
	}
	if tx.BlockTime == 0 && !meta.Timestamp.IsZero() {
		tx.BlockTime = meta.Timestamp.Unix()
	}
}

func (s *ExtractionService) runner(bridge models.Bridge, runID string) *eventRunner {
	r := newEventRunner(bridge, s.logger, s.failed)
	r.SetRunID(runID)
	return r
}

// stageFailed counts one skipped unit of extraction work and leaves a failure record for re-runs.
func (s *ExtractionService) stageFailed(ctx context.Context, runner *eventRunner, ref eventRef, result *BatchResult, err error) {
	result.Failed++
	metrics.ProcessingErrors.WithLabelValues(string(runner.bridge), ref.Blockchain, ref.EventName).Inc()
	s.logger.WithFields(ref.fields(runner.bridge)).
		WithField("run_id", runner.runID).
		WithError(err).
		Error("Extraction step failed, skipping")
	runner.recordFailure(ctx, ref, err)
}

func (s *ExtractionService) summary(runID string, bridge models.Bridge, chain string, start, end time.Time, result BatchResult) *events.RunSummary {
	return &events.RunSummary{
		RunID:      runID,
		Bridge:     string(bridge),
		Stage:      events.StageExtract,
		Blockchain: chain,
		StartTime:  start,
		EndTime:    end,
		Included:   result.Included,
		Skipped:    result.Skipped,
		Failed:     result.Failed,
		FinishedAt: time.Now(),
	}
}

func (s *ExtractionService) publish(ctx context.Context, entry *logrus.Entry, summary *events.RunSummary) {
	entry.WithFields(logrus.Fields{
		"included": summary.Included,
		"skipped":  summary.Skipped,
		"failed":   summary.Failed,
	}).Info("Extraction finished")
	if err := s.publisher.PublishRunSummary(ctx, summary); err != nil {
		entry.WithError(err).Warn("Failed to publish run summary")
	}
}

func blockNumbers(logs []ethtypes.Log) []uint64 {
	seen := make(map[uint64]bool)
	var out []uint64
	for _, lg := range logs {
		if !seen[lg.BlockNumber] {
			seen[lg.BlockNumber] = true
			out = append(out, lg.BlockNumber)
		}
	}
	return out
}

func parseUint(s string) (uint64, bool) {
	v, err := strconv.ParseUint(s, 10, 64)
	return v, err == nil
}
