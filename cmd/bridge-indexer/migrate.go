package main

import (
	"bridge-indexer/internal/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update every table",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := db.InitDB(cfg.Database)
		if err != nil {
			return err
		}
		if err := db.Migrate(gdb); err != nil {
			return err
		}
		logger.Info("✅ Migration completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
