package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"bridge-indexer/internal/config"
	"bridge-indexer/internal/models"
	"bridge-indexer/internal/types"
)

// ValuationClient asks the pricing service to price a cctx table.
// Prepare loads prices for the token pairs; Apply writes the *_usd columns.
type ValuationClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewValuationClient(cfg config.ValuationConfig) *ValuationClient {
	timeout := 60 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	return &ValuationClient{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type valuationPrepareRequest struct {
	Bridge string                 `json:"bridge"`
	Table  string                 `json:"table"`
	Tuples []types.ValuationTuple `json:"tuples"`
	From   time.Time              `json:"from"`
	To     time.Time              `json:"to"`
}

type valuationApplyRequest struct {
	Bridge string `json:"bridge"`
	Table  string `json:"table"`
}

func (c *ValuationClient) Prepare(ctx context.Context, bridge models.Bridge, tuples []types.ValuationTuple, from, to time.Time) error {
	return c.post(ctx, "/v1/valuation/prepare", valuationPrepareRequest{
		Bridge: string(bridge),
		Table:  bridge.CctxTable(),
		Tuples: tuples,
		From:   from,
		To:     to,
	})
}

func (c *ValuationClient) Apply(ctx context.Context, bridge models.Bridge) error {
	return c.post(ctx, "/v1/valuation/apply", valuationApplyRequest{
		Bridge: string(bridge),
		Table:  bridge.CctxTable(),
	})
}

func (c *ValuationClient) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("valuation API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// NopValuator leaves the USD columns empty.
type NopValuator struct{}

func (NopValuator) Prepare(context.Context, models.Bridge, []types.ValuationTuple, time.Time, time.Time) error {
	return nil
}

func (NopValuator) Apply(context.Context, models.Bridge) error { return nil }
