package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func TestDialectRejectsUnknownType(t *testing.T) {
	_, err := Dialect(Config{Type: "oracle"})
	assert.Error(t, err)
}

func TestDialectNames(t *testing.T) {
	for _, tc := range []struct {
		typ  string
		name string
	}{
		{typ: "postgres", name: "postgres"},
		{typ: "mysql", name: "mysql"},
		{typ: "sqlite", name: "sqlite"},
		{typ: "", name: "sqlite"},
	} {
		d, err := Dialect(Config{Type: tc.typ})
		require.NoError(t, err, tc.typ)
		assert.Equal(t, tc.name, d.Name(), tc.typ)
	}
}

func TestOpenSQLiteMemory(t *testing.T) {
	d, err := Dialect(Config{Type: "sqlite", Path: "file::memory:"})
	require.NoError(t, err)

	conn, err := Open(d, Config{Name: "test"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	var one int
	require.NoError(t, conn.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestIsDuplicateKeyErrDrivers(t *testing.T) {
	assert.False(t, IsDuplicateKeyErr(nil))
	assert.True(t, IsDuplicateKeyErr(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)))
	assert.True(t, IsDuplicateKeyErr(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsDuplicateKeyErr(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsDuplicateKeyErr(&mysql.MySQLError{Number: 1062}))
	assert.False(t, IsDuplicateKeyErr(&mysql.MySQLError{Number: 1213}))
	assert.False(t, IsDuplicateKeyErr(errors.New("connection refused")))
}

func TestIsDuplicateKeyErr(t *testing.T) {
	d, err := Dialect(Config{Type: "sqlite", Path: "file::memory:"})
	require.NoError(t, err)
	conn, err := Open(d, Config{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY)").Error)
	require.NoError(t, conn.Exec("INSERT INTO t (id) VALUES (1)").Error)
	err = conn.Exec("INSERT INTO t (id) VALUES (1)").Error
	assert.True(t, IsDuplicateKeyErr(err))
}
