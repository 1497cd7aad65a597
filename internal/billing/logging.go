package billing

import (
	"context"
	"time"

	obscontext "github.com/smallbiznis/autocharge/internal/observability/context"
	obslogger "github.com/smallbiznis/autocharge/internal/observability/logger"
	"go.uber.org/zap"
)

type passRun struct {
	runID          string
	startedAt      time.Time
	snapshotSize   int
	processedCount int
	errorCount     int
}

func (r *passRun) AddProcessed(count int) {
	if r == nil || count <= 0 {
		return
	}
	r.processedCount += count
}

func (r *passRun) IncError() {
	if r == nil {
		return
	}
	r.errorCount++
}

func (s *Service) startRun(ctx context.Context) (context.Context, *passRun) {
	if ctx == nil {
		ctx = context.Background()
	}
	run := &passRun{
		runID:     s.genID.Generate().String(),
		startedAt: time.Now(),
	}
	ctx = obscontext.WithRunID(ctx, run.runID)
	ctx = obscontext.WithActor(ctx, "system", "billing")
	return ctx, run
}

func (s *Service) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}

func (s *Service) logPassStart(ctx context.Context, run *passRun) {
	s.logger(ctx).Info("billing.pass.start",
		zap.Int("snapshot_size", run.snapshotSize),
	)
}

func (s *Service) logPassFinish(ctx context.Context, run *passRun) {
	fields := []zap.Field{
		zap.Int64("duration_ms", time.Since(run.startedAt).Milliseconds()),
		zap.Int("snapshot_size", run.snapshotSize),
		zap.Int("processed_count", run.processedCount),
		zap.Int("error_count", run.errorCount),
	}
	log := s.logger(ctx)
	if run.errorCount > 0 {
		log.Warn("billing.pass.finish", fields...)
		return
	}
	log.Info("billing.pass.finish", fields...)
}
