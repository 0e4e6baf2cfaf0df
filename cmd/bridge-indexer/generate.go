package main

import (
	"fmt"
	"time"

	"bridge-indexer/internal/events"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var generateBridges string

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Rebuild the per-bridge cross-chain transaction tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		bridges, err := parseBridges(generateBridges)
		if err != nil {
			return err
		}

		c, err := newContainer()
		if err != nil {
			return err
		}
		defer c.Close()

		ctx := cmd.Context()
		for _, bridge := range bridges {
			start := time.Now()
			rows, err := c.CctxGenerator.Generate(ctx, bridge)
			if err != nil {
				return fmt.Errorf("generate %s: %w", bridge, err)
			}

			summary := &events.RunSummary{
				RunID:      uuid.NewString(),
				Bridge:     string(bridge),
				Stage:      events.StageGenerate,
				StartTime:  start,
				EndTime:    time.Now(),
				Rows:       rows,
				FinishedAt: time.Now(),
			}
			if err := c.Publisher.PublishRunSummary(ctx, summary); err != nil {
				logger.WithError(err).Warn("Failed to publish run summary")
			}
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateBridges, "bridge", "all", "debridge, mayan or all")
	rootCmd.AddCommand(generateCmd)
}
