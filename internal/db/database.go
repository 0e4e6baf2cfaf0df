package db

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"bridge-indexer/internal/config"
	"bridge-indexer/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Bridges whose cctx tables are managed by Migrate.
var Bridges = []models.Bridge{models.BridgeDeBridge, models.BridgeMayan}

// InitDB opens the postgres connection. Schema migration is a separate step (Migrate).
func InitDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	log.Printf("Connecting to database...")

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
		PrepareStmt:                              true,
		CreateBatchSize:                          500,
		Logger:                                   logger.Default.LogMode(logLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("✅ Database connected successfully")
	return db, nil
}

func logLevel(level string) logger.LogLevel {
	switch level {
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}

// Migrate creates or updates every table the indexer writes.
func Migrate(db *gorm.DB) error {
	// Solana signatures are 87-88 chars; tables created before they were indexed used VARCHAR(66)
	log.Println("🔧 Fixing transaction hash column sizes...")
	for _, table := range hashColumnTables {
		if err := widenColumn(db, table, "transaction_hash", 100); err != nil {
			log.Printf("⚠️ Failed to fix %s.transaction_hash: %v", table, err)
		}
	}

	log.Println("🚀 Starting database schema migration with GORM AutoMigrate...")

	if err := db.AutoMigrate(
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
	); err != nil {
		return fmt.Errorf("AutoMigrate failed: %w", err)
	}

	// cctx tables share one model
	for _, bridge := range Bridges {
		if err := db.Table(bridge.CctxTable()).AutoMigrate(&models.CrossChainTransaction{}); err != nil {
			return fmt.Errorf("AutoMigrate %s failed: %w", bridge.CctxTable(), err)
		}
	}

	log.Println("✅ Database schema migrated successfully")
	return nil
}

var hashColumnTables = []string{
	"transactions",
	"debridge_created_orders",
	"debridge_fulfilled_orders",
	"debridge_claimed_unlocks",
	"mayan_orders",
	"mayan_fulfilled",
	"mayan_unlocked",
}

// widenColumn grows a VARCHAR column to size. AutoMigrate never alters existing column sizes.
func widenColumn(db *gorm.DB, tableName, columnName string, size int) error {
	var currentSize sql.NullInt64
	err := db.Raw(`
		SELECT character_maximum_length
		FROM information_schema.columns
		WHERE table_schema = 'public'
		AND table_name = ?
		AND column_name = ?
	`, tableName, columnName).Scan(&currentSize).Error
	if err != nil {
		return fmt.Errorf("failed to check %s.%s column size: %w", tableName, columnName, err)
	}

	// table or column not there yet, AutoMigrate creates it with the right size
	if !currentSize.Valid {
		return nil
	}
	if int(currentSize.Int64) >= size {
		return nil
	}

	log.Printf("🔧 Updating %s.%s column from VARCHAR(%d) to VARCHAR(%d)...", tableName, columnName, currentSize.Int64, size)
	result := db.Exec(fmt.Sprintf(`ALTER TABLE %s ALTER COLUMN %s TYPE VARCHAR(%d)`, tableName, columnName, size))
	if result.Error != nil {
		return fmt.Errorf("failed to update %s.%s column size: %w", tableName, columnName, result.Error)
	}
	log.Printf("✅ Updated %s.%s column size to VARCHAR(%d)", tableName, columnName, size)
	return nil
}
