// Package events publishes run summaries so downstream jobs (valuation, exports) can react
// to fresh extraction or generation results.
package events

import (
	"context"
	"time"

	"bridge-indexer/internal/clients"

	"github.com/sirupsen/logrus"
)

// Stages a run summary can describe.
const (
	StageExtract  = "extract"
	StageEnrich   = "enrich"
	StageGenerate = "generate"
)

// RunSummary is the JSON payload published after every run.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	Bridge     string    `json:"bridge"`
	Stage      string    `json:"stage"`
	Blockchain string    `json:"blockchain,omitempty"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Included   int       `json:"included"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Rows       int       `json:"rows,omitempty"` // generate stage: cctx rows written
	FinishedAt time.Time `json:"finished_at"`
}

// Publisher delivers run summaries.
type Publisher interface {
	PublishRunSummary(ctx context.Context, summary *RunSummary) error
}

// NATSPublisher publishes summaries on <prefix>.<bridge>.<stage>.
type NATSPublisher struct {
	client *clients.NATSClient
	logger *logrus.Logger
}

func NewNATSPublisher(client *clients.NATSClient, logger *logrus.Logger) *NATSPublisher {
	return &NATSPublisher{client: client, logger: logger}
}

func (p *NATSPublisher) PublishRunSummary(_ context.Context, summary *RunSummary) error {
	subject := p.client.Subject(summary.Bridge, summary.Stage)
	if err := p.client.PublishJSON(subject, summary); err != nil {
		return err
	}
	p.logger.WithFields(logrus.Fields{
		"subject": subject,
		"run_id":  summary.RunID,
	}).Debug("Published run summary")
	return nil
}

// NopPublisher is used when NATS is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishRunSummary(context.Context, *RunSummary) error { return nil }
