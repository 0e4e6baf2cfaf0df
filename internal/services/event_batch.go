package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"bridge-indexer/internal/metrics"
	"bridge-indexer/internal/models"
	"bridge-indexer/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BatchResult counts what happened to the events of one batch.
type BatchResult struct {
	Included int `json:"included"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

func (r *BatchResult) Add(other BatchResult) {
	r.Included += other.Included
	r.Skipped += other.Skipped
	r.Failed += other.Failed
}

func (r BatchResult) Total() int {
	return r.Included + r.Skipped + r.Failed
}

// Skip reasons.
const (
	skipDuplicate       = "duplicate"
	skipExcludedChain   = "excluded_chain"
	skipForeignProtocol = "foreign_protocol"
	skipForeignContract = "foreign_contract"
	skipFailedTx        = "failed_tx"
)

// skipError marks an event that is dropped on purpose. It is not a failure.
type skipError struct {
	reason string
	detail string
}

func (e *skipError) Error() string {
	if e.detail == "" {
		return "skipped: " + e.reason
	}
	return fmt.Sprintf("skipped: %s (%s)", e.reason, e.detail)
}

func skip(reason string) error {
	return &skipError{reason: reason}
}

func skipf(reason, format string, args ...interface{}) error {
	return &skipError{reason: reason, detail: fmt.Sprintf(format, args...)}
}

// eventRef identifies a single event or instruction in logs and failure records.
type eventRef struct {
	Blockchain string
	EventName  string
	Contract   string
	TxHash     string
	Block      uint64
	Index      int // log index or instruction index
}

func (r eventRef) fields(bridge models.Bridge) logrus.Fields {
	return logrus.Fields{
		"bridge":     bridge,
		"blockchain": r.Blockchain,
		"event":      r.EventName,
		"contract":   r.Contract,
		"tx_hash":    r.TxHash,
		"block":      r.Block,
		"index":      r.Index,
	}
}

// eventRunner isolates events from each other: a failing or panicking handler
// costs exactly one event.
type eventRunner struct {
	bridge models.Bridge
	logger *logrus.Logger
	failed repository.FailedEventRepository // optional
	runID  string
}

func newEventRunner(bridge models.Bridge, logger *logrus.Logger, failed repository.FailedEventRepository) *eventRunner {
	return &eventRunner{
		bridge: bridge,
		logger: logger,
		failed: failed,
		runID:  uuid.New().String(),
	}
}

// SetRunID ties failure records to an extraction run.
func (r *eventRunner) SetRunID(runID string) {
	r.runID = runID
}

func (r *eventRunner) run(ctx context.Context, ref eventRef, result *BatchResult, handle func() error) {
	err := r.safeCall(handle)

	var skipped *skipError
	switch {
	case err == nil:
		result.Included++
		metrics.EventsIncluded.WithLabelValues(string(r.bridge), ref.EventName).Inc()

	case errors.As(err, &skipped):
		result.Skipped++
		metrics.EventsSkipped.WithLabelValues(string(r.bridge), ref.EventName, skipped.reason).Inc()
		entry := r.logger.WithFields(ref.fields(r.bridge)).WithField("reason", skipped.reason)
		if skipped.detail != "" {
			entry = entry.WithField("detail", skipped.detail)
		}
		if skipped.reason == skipDuplicate {
			entry.Debug("Event already stored")
		} else {
			entry.Info("Event dropped")
		}

	default:
		result.Failed++
		metrics.EventsFailed.WithLabelValues(string(r.bridge), ref.EventName).Inc()
		r.logger.WithFields(ref.fields(r.bridge)).WithError(err).Error("Failed to process event")
		r.recordFailure(ctx, ref, err)
	}
}

func (r *eventRunner) safeCall(handle func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v\n%s", p, debug.Stack())
		}
	}()
	return handle()
}

func (r *eventRunner) recordFailure(ctx context.Context, ref eventRef, cause error) {
	if r.failed == nil {
		return
	}
	record := &models.FailedEvent{
		ID:              uuid.New().String(),
		RunID:           r.runID,
		Bridge:          string(r.bridge),
		Blockchain:      ref.Blockchain,
		EventName:       ref.EventName,
		Contract:        ref.Contract,
		TransactionHash: ref.TxHash,
		BlockNumber:     ref.Block,
		LastError:       cause.Error(),
	}
	if err := r.failed.Create(ctx, record); err != nil {
		r.logger.WithFields(ref.fields(r.bridge)).WithError(err).Warn("Failed to record failed event")
	}
}

func (r *eventRunner) logBatch(kind, blockchain string, result BatchResult, extra logrus.Fields) {
	fields := logrus.Fields{
		"bridge":     r.bridge,
		"blockchain": blockchain,
		"run_id":     r.runID,
		"included":   result.Included,
		"skipped":    result.Skipped,
		"failed":     result.Failed,
	}
	for k, v := range extra {
		fields[k] = v
	}
	r.logger.WithFields(fields).Infof("Processed %s batch", kind)
}

func strPtr(s string) *string {
	return &s
}

// optionalString returns nil for the empty string.
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
