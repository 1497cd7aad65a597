package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Error reasons on autocharge_scheduler_job_errors_total.
const (
	SchedulerJobReasonDeadlineExceeded     = "deadline_exceeded"
	SchedulerJobReasonCanceled             = "canceled"
	SchedulerJobReasonDBLockTimeout        = "db_lock_timeout"
	SchedulerJobReasonSerializationFailure = "serialization_failure"
	SchedulerJobReasonDB                   = "db"
	SchedulerJobReasonUnknown              = "unknown"
)

// SchedulerMetrics is the prometheus view of the billing trigger loop.
type SchedulerMetrics struct {
	jobRuns     *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	jobTimeouts *prometheus.CounterVec
	jobErrors   *prometheus.CounterVec
	fireLag     prometheus.Histogram
}

var (
	schedulerMu      sync.Mutex
	schedulerMetrics *SchedulerMetrics
)

func Scheduler() *SchedulerMetrics {
	return SchedulerWithConfig(Config{})
}

// SchedulerWithConfig registers the scheduler collectors on the default
// registerer on first use. Later calls return the same instance and
// ignore cfg.
func SchedulerWithConfig(cfg Config) *SchedulerMetrics {
	schedulerMu.Lock()
	defer schedulerMu.Unlock()
	if schedulerMetrics == nil {
		schedulerMetrics = newSchedulerMetrics(prometheus.DefaultRegisterer, cfg)
	}
	return schedulerMetrics
}

// ResetSchedulerMetricsForTest forgets the shared instance so a test can
// register against a fresh default registerer.
func ResetSchedulerMetricsForTest() {
	schedulerMu.Lock()
	schedulerMetrics = nil
	schedulerMu.Unlock()
}

func newSchedulerMetrics(reg prometheus.Registerer, cfg Config) *SchedulerMetrics {
	labels := constLabelsFor(cfg)
	m := &SchedulerMetrics{
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "autocharge_scheduler_job_runs_total",
			Help:        "Scheduler job fires by name.",
			ConstLabels: labels,
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "autocharge_scheduler_job_duration_seconds",
			Help:        "Scheduler job latency from fire to completion.",
			Buckets:     prometheus.ExponentialBucketsRange(0.01, 1800, 15),
			ConstLabels: labels,
		}, []string{"job"}),
		jobTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "autocharge_scheduler_job_timeouts_total",
			Help:        "Scheduler jobs cut short by their pass timeout.",
			ConstLabels: labels,
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "autocharge_scheduler_job_errors_total",
			Help:        "Scheduler job errors by low-cardinality reason.",
			ConstLabels: labels,
		}, []string{"job", "reason"}),
		fireLag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "autocharge_scheduler_fire_lag_seconds",
			Help:        "Distance between a trigger boundary and the clock time it fired at.",
			Buckets:     []float64{0.001, 0.01, 0.1, 1, 10, 60, 600, 3600, 86400, 604800},
			ConstLabels: labels,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.jobRuns, m.jobDuration, m.jobTimeouts, m.jobErrors, m.fireLag)
	return m
}

func (m *SchedulerMetrics) IncJobRun(job string) {
	if m != nil {
		m.jobRuns.WithLabelValues(job).Inc()
	}
}

func (m *SchedulerMetrics) ObserveJobDuration(job string, d time.Duration) {
	if m != nil {
		m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
	}
}

func (m *SchedulerMetrics) IncJobTimeout(job string) {
	if m != nil {
		m.jobTimeouts.WithLabelValues(job).Inc()
	}
}

func (m *SchedulerMetrics) IncJobError(job string, err error) {
	if m != nil && err != nil {
		m.jobErrors.WithLabelValues(job, ClassifySchedulerJobReason(err)).Inc()
	}
}

// ObserveFireLag records how far past its boundary a fire happened.
// Negative lag counts as zero.
func (m *SchedulerMetrics) ObserveFireLag(lag time.Duration) {
	if m != nil {
		m.fireLag.Observe(max(lag, 0).Seconds())
	}
}

var jobReasonRules = []struct {
	reason string
	match  func(error) bool
}{
	{SchedulerJobReasonDeadlineExceeded, func(err error) bool { return errors.Is(err, context.DeadlineExceeded) }},
	{SchedulerJobReasonCanceled, func(err error) bool { return errors.Is(err, context.Canceled) }},
	// postgres lock_not_available, mysql ER_LOCK_WAIT_TIMEOUT
	{SchedulerJobReasonDBLockTimeout, func(err error) bool { return sqlStateIs(err, "55P03", 1205) }},
	// postgres serialization_failure, mysql ER_LOCK_DEADLOCK
	{SchedulerJobReasonSerializationFailure, func(err error) bool { return sqlStateIs(err, "40001", 1213) }},
	{SchedulerJobReasonDB, isDBError},
}

// ClassifySchedulerJobReason maps a job error onto a fixed reason label.
func ClassifySchedulerJobReason(err error) string {
	if err == nil {
		return SchedulerJobReasonUnknown
	}
	for _, rule := range jobReasonRules {
		if rule.match(err) {
			return rule.reason
		}
	}
	return SchedulerJobReasonUnknown
}

func sqlStateIs(err error, pgCode string, mysqlNumber uint16) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgCode
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlNumber
	}
	return false
}

func isDBError(err error) bool {
	for _, target := range []error{
		gorm.ErrInvalidDB,
		gorm.ErrInvalidTransaction,
		gorm.ErrInvalidData,
		gorm.ErrMissingWhereClause,
		gorm.ErrDuplicatedKey,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	var pgErr *pgconn.PgError
	var myErr *mysql.MySQLError
	return errors.As(err, &pgErr) || errors.As(err, &myErr)
}

// constLabelsFor is shared by every prometheus collector in the package.
func constLabelsFor(cfg Config) prometheus.Labels {
	service := strings.TrimSpace(cfg.ServiceName)
	if service == "" {
		service = "autocharge"
	}
	env := strings.TrimSpace(cfg.Environment)
	if env == "" {
		env = "unknown"
	}
	return prometheus.Labels{"service": service, "env": env}
}
