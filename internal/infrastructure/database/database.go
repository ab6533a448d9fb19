package database

import (
	"strings"

	"fundledger-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite:"

// Open opens a GORM DB from DSN. Postgres URLs go through the pgx driver with
// PreferSimpleProtocol (poolers such as PgBouncer reject cached prepared
// statements); "sqlite:<path>" opens a local pure-Go SQLite file.
func Open(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	if strings.HasPrefix(dsn, sqlitePrefix) {
		return gorm.Open(sqlite.Open(strings.TrimPrefix(dsn, sqlitePrefix)), cfg)
	}
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), cfg)
}

// Models lists every ledger table in dependency order.
func Models() []interface{} {
	return []interface{}{
		&domain.Portfolio{},
		&domain.Holding{},
		&domain.Lot{},
		&domain.Withdrawal{},
		&domain.Allocation{},
		&domain.HoldingEvent{},
	}
}

// AutoMigrate creates or updates the ledger tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
