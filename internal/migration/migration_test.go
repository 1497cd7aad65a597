package migration

import (
	"fmt"
	"io/fs"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMigrateSQLiteCreatesTables(t *testing.T) {
	dsn := fmt.Sprintf("file:migrate_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, Migrate(conn))
	assert.True(t, conn.Migrator().HasTable("customers"))
	assert.True(t, conn.Migrator().HasTable("invoices"))

	// Idempotent.
	require.NoError(t, Migrate(conn))
}

func TestMigrateRequiresHandle(t *testing.T) {
	assert.Error(t, Migrate(nil))
	assert.Error(t, RunMigrations(nil))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	up, err := fs.Glob(embeddedMigrations, "migrations/*.up.sql")
	require.NoError(t, err)
	down, err := fs.Glob(embeddedMigrations, "migrations/*.down.sql")
	require.NoError(t, err)
	assert.NotEmpty(t, up)
	assert.Equal(t, len(up), len(down))
}
