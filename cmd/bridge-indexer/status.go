package main

import (
	"fmt"

	"bridge-indexer/internal/db"
	"bridge-indexer/internal/models"
	"bridge-indexer/internal/repository"

	"github.com/spf13/cobra"
	"gorm.io/gorm/schema"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print database connection and table row counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := db.InitDB(cfg.Database)
		if err != nil {
			return err
		}

		var dbName string
		if err := gdb.Raw("SELECT current_database()").Scan(&dbName).Error; err != nil {
			return fmt.Errorf("failed to get database name: %w", err)
		}
		fmt.Printf("📋 Connected to database: %s\n", dbName)

		tables := []schema.Tabler{
			&models.Transaction{},
			&models.DeBridgeCreatedOrder{},
			&models.DeBridgeFulfilledOrder{},
			&models.DeBridgeClaimedUnlock{},
			&models.MayanForwarded{},
			&models.MayanOrder{},
			&models.MayanRegisteredOrder{},
			&models.MayanFulfilled{},
			&models.MayanUnlocked{},
			&models.MayanRefunded{},
			&models.MayanAuctionBid{},
			&models.MayanAuctionClose{},
			&models.FailedEvent{},
		}
		for _, model := range tables {
			var count int64
			if err := gdb.Model(model).Count(&count).Error; err != nil {
				return fmt.Errorf("count %s: %w", model.TableName(), err)
			}
			fmt.Printf("   %-28s %d\n", model.TableName(), count)
		}

		cctxs := repository.NewCctxRepository(gdb)
		for _, bridge := range db.Bridges {
			count, err := cctxs.Count(cmd.Context(), bridge)
			if err != nil {
				return err
			}
			fmt.Printf("   %-28s %d\n", bridge.CctxTable(), count)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
