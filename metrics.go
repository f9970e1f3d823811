package shardscan

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordResolve is called after each partition resolution.
	// partitions is the number produced, err is nil if successful.
	RecordResolve(partitions int, duration time.Duration, err error)

	// RecordPartitionScan is called when one partition's iteration ends,
	// whether by exhaustion, explicit close, cancellation or failure.
	// rows is the number of rows produced before the scan ended.
	RecordPartitionScan(path ScanPath, rows int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordResolve(int, time.Duration, error) {}

func (NoopMetricsCollector) RecordPartitionScan(ScanPath, int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ResolveCount     atomic.Int64
	ResolveErrors    atomic.Int64
	PartitionsTotal  atomic.Int64
	ScanCount        atomic.Int64
	ScanErrors       atomic.Int64
	ScanRowsTotal    atomic.Int64
	ScanTotalNanos   atomic.Int64
	BucketLocalScans atomic.Int64
	QueryPathScans   atomic.Int64
}

// RecordResolve implements MetricsCollector.
func (m *BasicMetricsCollector) RecordResolve(partitions int, duration time.Duration, err error) {
	m.ResolveCount.Add(1)
	if err != nil {
		m.ResolveErrors.Add(1)
		return
	}
	m.PartitionsTotal.Add(int64(partitions))
}

// RecordPartitionScan implements MetricsCollector.
func (m *BasicMetricsCollector) RecordPartitionScan(path ScanPath, rows int64, duration time.Duration, err error) {
	m.ScanCount.Add(1)
	m.ScanRowsTotal.Add(rows)
	m.ScanTotalNanos.Add(int64(duration))
	if err != nil {
		m.ScanErrors.Add(1)
	}
	switch path {
	case PathBucketLocal:
		m.BucketLocalScans.Add(1)
	case PathQuery:
		m.QueryPathScans.Add(1)
	}
}
