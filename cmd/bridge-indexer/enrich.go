package main

import (
	"time"

	"bridge-indexer/internal/events"
	"bridge-indexer/internal/models"
	"bridge-indexer/internal/services"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fill middle token/amount from calldata and Solana unlock fees",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newContainer()
		if err != nil {
			return err
		}
		defer c.Close()

		ctx := cmd.Context()
		start := time.Now()

		outcomes, err := c.MiddleInfoService.EnrichDeBridge(ctx, c.EVMChainNames())
		if err != nil {
			return err
		}
		fees, err := c.MiddleInfoService.FillSolanaFees(ctx)
		if err != nil {
			return err
		}

		logger.WithFields(logrus.Fields{
			"outcomes":    outcomes,
			"solana_fees": fees,
		}).Info("Enrichment finished")

		summary := &events.RunSummary{
			RunID:      uuid.NewString(),
			Bridge:     string(models.BridgeDeBridge),
			Stage:      events.StageEnrich,
			StartTime:  start,
			EndTime:    time.Now(),
			Included:   outcomes[services.OutcomeEnriched],
			Skipped:    outcomes[services.OutcomeNoMiddle] + outcomes[services.OutcomeUnknownSelector] + outcomes[services.OutcomeMissingTx],
			Failed:     outcomes[services.OutcomeFailed],
			FinishedAt: time.Now(),
		}
		if err := c.Publisher.PublishRunSummary(ctx, summary); err != nil {
			logger.WithError(err).Warn("Failed to publish run summary")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}
