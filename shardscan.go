package shardscan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tupleworks/shardscan/filter"
	"github.com/tupleworks/shardscan/model"
	"github.com/tupleworks/shardscan/partition"
	"github.com/tupleworks/shardscan/region"
	"github.com/tupleworks/shardscan/store"
)

// ScanPath identifies which access strategy a partition scan used.
type ScanPath uint8

const (
	// PathQuery executes a parameterized scan query over a connection.
	PathQuery ScanPath = iota + 1
	// PathBucketLocal walks buckets directly against the in-process region.
	PathBucketLocal
)

// String returns a human-readable name for the scan path.
func (p ScanPath) String() string {
	switch p {
	case PathQuery:
		return "query"
	case PathBucketLocal:
		return "bucket-local"
	default:
		return "invalid"
	}
}

// Scanner scans one logical table partition by partition. Its public surface
// is Partitions, PreferredLocations and Compute; an external execution
// engine consumes one row sequence per partition, typically in parallel
// across partitions.
//
// A Scanner is safe for concurrent Compute calls on distinct partitions.
// The iterators it returns are not.
type Scanner struct {
	table      string
	schema     model.Schema
	filters    []filter.Filter
	pred       filter.CompiledPredicate
	projection []string // nil: full rows; empty: traversal only
	queryRoute bool

	localRegion region.Region
	pools       *store.Pools
	props       store.ConnProps
	resolver    *partition.Resolver
	explicit    []*partition.ScanPartition

	logger  *Logger
	metrics MetricsCollector

	mu         sync.Mutex
	partitions []*partition.ScanPartition
	info       *region.Info
	closed     bool
}

// Table returns the logical table name this scanner reads.
func (s *Scanner) Table() string {
	return s.table
}

// Schema returns the declared schema of the scanned rows.
func (s *Scanner) Schema() model.Schema {
	return s.schema
}

// Predicate returns the compiled pushdown predicate. Filters outside the
// pushdown vocabulary are absent here; re-apply them with filter.Matches.
func (s *Scanner) Predicate() filter.CompiledPredicate {
	return s.pred
}

// Filters returns the original filter list, including filters that were not
// pushed down. Residual filtering evaluates these against returned rows.
func (s *Scanner) Filters() []filter.Filter {
	return s.filters
}

// Partitions resolves and returns the scan partitions. Resolution runs at
// most once per scanner; resolution failures are fatal and not retried
// internally, but a failed resolution is not cached.
func (s *Scanner) Partitions(ctx context.Context) ([]*partition.ScanPartition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrScannerClosed
	}
	if s.partitions != nil {
		return s.partitions, nil
	}

	start := time.Now()
	parts, err := s.resolver.Resolve(ctx, s.table, s.explicit)
	s.metrics.RecordResolve(len(parts), time.Since(start), err)
	s.logger.LogResolve(ctx, s.table, len(parts), err)
	if err != nil {
		return nil, err
	}
	s.partitions = parts
	return parts, nil
}

// PreferredLocations returns the hosts that hold p's data, for the caller's
// scheduler to co-locate work with data.
func (s *Scanner) PreferredLocations(p *partition.ScanPartition) []string {
	return p.PreferredHosts()
}

// Compute produces the lazy row sequence for one partition. The caller owns
// the returned iterator and must drive it from a single goroutine; it
// releases its resources on exhaustion, Close, failure or cancellation of
// ctx, whichever comes first.
func (s *Scanner) Compute(ctx context.Context, p *partition.ScanPartition) (RowIterator, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrScannerClosed
	}

	info, err := s.regionInfo(ctx)
	if err != nil {
		return nil, err
	}

	partitioned := info.Kind == region.KindPartitioned
	path := s.choosePath(partitioned)

	start := time.Now()
	logger := s.logger.WithScanID(uuid.NewString()).WithPartition(p.Index())
	onClose := func(rows int64, cause error) {
		s.metrics.RecordPartitionScan(path, rows, time.Since(start), cause)
		logger.LogPartitionScan(ctx, path, rows, cause)
	}

	if path == PathBucketLocal {
		entries := s.localRegion.Entries(p.Buckets().Slice())
		return newBucketIterator(ctx, entries, s.schema, onClose), nil
	}

	qs := queryScan{
		table:       s.table,
		canonical:   info.CanonicalName,
		partitioned: partitioned,
		pred:        s.pred,
		projection:  s.projection,
		width:       s.rowWidth(),
		props:       s.props,
	}
	it, err := newQueryIterator(ctx, s.pools.For(s.table, s.props), p, qs, onClose)
	if err != nil {
		onClose(0, err)
		return nil, err
	}
	return it, nil
}

// choosePath applies the per-partition strategy rule: the query path
// whenever a projection or query-engine semantics are demanded, the
// bucket-local walk for unfiltered full-row scans of partitioned tables,
// and the query path otherwise since pushdown only applies there.
func (s *Scanner) choosePath(partitioned bool) ScanPath {
	if s.projection != nil || s.queryRoute {
		return PathQuery
	}
	if partitioned && s.pred.Empty() && s.localRegion != nil {
		return PathBucketLocal
	}
	return PathQuery
}

// ScanAll scans every partition concurrently, invoking fn once per
// partition with its row iterator. parallelism bounds the number of
// in-flight partitions; 0 means unbounded. Iteration within one partition
// stays strictly sequential. The iterator passed to fn is closed when fn
// returns.
func (s *Scanner) ScanAll(ctx context.Context, parallelism int, fn func(ctx context.Context, p *partition.ScanPartition, rows RowIterator) error) error {
	parts, err := s.Partitions(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for _, p := range parts {
		g.Go(func() error {
			it, err := s.Compute(ctx, p)
			if err != nil {
				return fmt.Errorf("partition %d: %w", p.Index(), err)
			}
			defer it.Close()
			if err := fn(ctx, p, it); err != nil {
				return fmt.Errorf("partition %d: %w", p.Index(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Close releases the scanner's connection pools. In-flight iterators keep
// their connections until they finish; those connections are closed as they
// are released.
func (s *Scanner) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.pools.Close()
}

func (s *Scanner) regionInfo(ctx context.Context) (*region.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info != nil {
		return s.info, nil
	}
	info, err := s.resolver.Info(ctx, s.table)
	if err != nil {
		return nil, err
	}
	s.info = info
	return info, nil
}

// rowWidth returns the width of rows the query path produces: the schema's
// width for full rows, the projection's width otherwise, and one column for
// the degenerate SELECT 1 scan.
func (s *Scanner) rowWidth() int {
	if s.projection == nil {
		return s.schema.Width()
	}
	if len(s.projection) == 0 {
		return 1
	}
	return len(s.projection)
}
