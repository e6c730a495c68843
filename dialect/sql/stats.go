package sql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// QueryStats holds statement execution statistics of a driver.
type QueryStats struct {
	// TotalQueries is the number of queries executed.
	TotalQueries atomic.Int64
	// TotalExecs is the number of exec statements executed.
	TotalExecs atomic.Int64
	// TotalDuration is the time spent executing statements.
	TotalDuration atomic.Int64 // nanoseconds
	// SlowQueries is the count of statements exceeding the slow threshold.
	SlowQueries atomic.Int64
	// Errors is the count of failed statements.
	Errors atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalExecs:    s.TotalExecs.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalExecs.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgQueryDuration returns the average statement duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook is called when a statement exceeds the slow threshold.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

// StatsOption configures the statistics collection of WithStats.
type StatsOption func(*statsConn)

// WithSlowThreshold sets the threshold for slow query detection.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *statsConn) {
		s.threshold = d
	}
}

// WithSlowQueryHook sets a callback function for slow queries.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *statsConn) {
		s.hook = hook
	}
}

// WithSlowQueryLog logs slow queries at warning level to logger, or to the
// default logger when nil.
func WithSlowQueryLog(logger *slog.Logger) StatsOption {
	if logger == nil {
		logger = slog.Default()
	}
	return WithSlowQueryHook(func(ctx context.Context, query string, args []any, duration time.Duration) {
		logger.WarnContext(ctx, "slow history query", "duration", duration, "query", query, "args", len(args))
	})
}

// WithStats returns a driver executing the statements of drv and recording
// their statistics into stats.
//
//	stats := new(sql.QueryStats)
//	drv = sql.WithStats(drv, stats, sql.WithSlowQueryLog(logger))
//	repo, err := dao.NewOrderHistoryRepository(drv)
func WithStats(drv *Driver, stats *QueryStats, opts ...StatsOption) *Driver {
	s := &statsConn{ExecQuerier: drv.ExecQuerier, stats: stats, threshold: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(s)
	}
	return NewDriver(drv.dialect, s)
}

type statsConn struct {
	ExecQuerier
	stats     *QueryStats
	threshold time.Duration
	hook      SlowQueryHook
}

func (s *statsConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := s.ExecQuerier.ExecContext(ctx, query, args...)
	s.record(ctx, query, args, start, err, false)
	return res, err
}

func (s *statsConn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := s.ExecQuerier.QueryContext(ctx, query, args...)
	s.record(ctx, query, args, start, err, true)
	return rows, err
}

// QueryRowContext defers its error to Scan, so only the duration is recorded.
func (s *statsConn) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := s.ExecQuerier.QueryRowContext(ctx, query, args...)
	s.record(ctx, query, args, start, row.Err(), true)
	return row
}

func (s *statsConn) record(ctx context.Context, query string, args []any, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	if isQuery {
		s.stats.TotalQueries.Add(1)
	} else {
		s.stats.TotalExecs.Add(1)
	}
	s.stats.TotalDuration.Add(int64(duration))
	if err != nil {
		s.stats.Errors.Add(1)
	}
	if duration > s.threshold {
		s.stats.SlowQueries.Add(1)
		if s.hook != nil {
			s.hook(ctx, query, args, duration)
		}
	}
}
