package logger

import (
	"context"
	"testing"
	"time"

	obscontext "github.com/smallbiznis/autocharge/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestNewRejectsInvalidLevel(t *testing.T) {
	_, err := New(nil, Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNewBuildsLogger(t *testing.T) {
	log, err := New(nil, Config{ServiceName: "autocharge", Environment: "test", Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.True(t, log.Core().Enabled(zap.DebugLevel))
}

func TestWithContextAddsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zap.New(core)

	ctx := obscontext.WithRunID(context.Background(), "run-1")
	ctx = obscontext.WithRequestID(ctx, "req-1")
	WithContext(ctx, base).Info("billing.pass.start")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "run-1", fields["run_id"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.NotContains(t, fields, "trace_id")
}

func TestGormLoggerLogsSlowQueries(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewGormLogger(zap.New(core), GormLoggerConfig{
		Level:         gormlogger.Warn,
		SlowThreshold: time.Millisecond,
	})

	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return "UPDATE invoices SET status = 'PAID' WHERE id = 1", 1
	}, nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "db.query", entries[0].Message)
	assert.Equal(t, "UPDATE", entries[0].ContextMap()["operation"])
	assert.EqualValues(t, 1, entries[0].ContextMap()["rows_affected"])
}

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "SELECT", operationFromSQL("with x as (select 1) select * from x"))
	assert.Equal(t, "DELETE", operationFromSQL("DELETE FROM invoices WHERE id = 1"))
	assert.Equal(t, "UNKNOWN", operationFromSQL(""))
}

func TestGormLoggerDropsBoundParams(t *testing.T) {
	var filter gorm.ParamsFilter = NewGormLogger(nil, GormLoggerConfig{})

	sql, params := filter.ParamsFilter(context.Background(), "SELECT * FROM invoices WHERE id = ?", int64(7))
	assert.Equal(t, "SELECT * FROM invoices WHERE id = ?", sql)
	assert.Nil(t, params)
}
