package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestRun_CreatesTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Run(db))
	// idempotent
	require.NoError(t, Run(db))

	for _, name := range TableNames() {
		assert.True(t, db.Migrator().HasTable(name), name)
	}
}

func TestTableNames(t *testing.T) {
	names := TableNames()
	assert.Len(t, names, len(Models()))
	assert.Contains(t, names, "channels")
	assert.Contains(t, names, "channel_memberships")
	assert.Contains(t, names, "messages")
	assert.Contains(t, names, "notifications")
}
