package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteAndMigrate(t *testing.T) {
	db, err := Open("sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"Portfolios", "Holdings", "Lots", "Withdrawals", "Allocations", "HoldingEvents"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
