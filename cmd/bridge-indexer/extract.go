package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	extractBridges string
	extractChains  string
	extractStart   string
	extractEnd     string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Decode bridge events in [start, end) into the canonical tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		bridges, err := parseBridges(extractBridges)
		if err != nil {
			return err
		}
		start, err := parseTime("start", extractStart)
		if err != nil {
			return err
		}
		end, err := parseTime("end", extractEnd)
		if err != nil {
			return err
		}
		if !start.Before(end) {
			return fmt.Errorf("--start must be before --end")
		}

		c, err := newContainer()
		if err != nil {
			return err
		}
		defer c.Close()
		if err := c.InitChainClients(); err != nil {
			return err
		}

		chains := c.EVMChainNames()
		withSolana := true
		if extractChains != "" {
			chains, withSolana = nil, false
			for _, name := range strings.Split(extractChains, ",") {
				name = strings.TrimSpace(name)
				if name == "solana" {
					withSolana = true
					continue
				}
				chains = append(chains, name)
			}
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		failedRuns := 0
		for _, bridge := range bridges {
			for _, chain := range chains {
				if _, err := c.ExtractionService.ExtractEVM(ctx, bridge, chain, start, end); err != nil {
					failedRuns++
					logger.WithError(err).WithFields(logrus.Fields{"bridge": bridge, "blockchain": chain}).Error("EVM extraction failed")
				}
			}
			if withSolana {
				if _, err := c.ExtractionService.ExtractSolana(ctx, bridge, start, end); err != nil {
					failedRuns++
					logger.WithError(err).WithField("bridge", bridge).Error("Solana extraction failed")
				}
			}
		}
		if failedRuns > 0 {
			return fmt.Errorf("%d extraction run(s) failed", failedRuns)
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractBridges, "bridge", "all", "debridge, mayan or all")
	extractCmd.Flags().StringVar(&extractChains, "chains", "", "comma-separated chains (default every enabled network)")
	extractCmd.Flags().StringVar(&extractStart, "start", "", "window start, RFC3339")
	extractCmd.Flags().StringVar(&extractEnd, "end", "", "window end (exclusive), RFC3339")
	_ = extractCmd.MarkFlagRequired("start")
	_ = extractCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(extractCmd)
}
