package database

import (
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/flipforce/pack-tracker/internal/models"
)

// Open connects to the database and migrates the schema. A postgres URL in
// dsn selects the postgres driver; anything else (including empty, which
// falls back to a local file) is treated as a sqlite path. ":memory:" gives
// the throwaway database the tests run against.
func Open(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		if dsn == "" {
			dsn = "./pack_tracker.db"
		}
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema for every record family.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.PackSeries{},
		&models.SeriesProcessingState{},
		&models.PackMaxSold{},
		&models.PackSalesTracker{},
		&models.PackCountersSnapshot{},
		&models.CardSnapshotEntry{},
		&models.PackTotalValueSnapshot{},
		&models.SoldCardEvent{},
		&models.SuspectedSwap{},
		&models.PackEvRoiSnapshot{},
		&models.PackTierEvContributionSnapshot{},
	)
}
