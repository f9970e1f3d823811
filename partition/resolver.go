package partition

import (
	"context"
	"errors"
	"fmt"

	"github.com/tupleworks/shardscan/region"
	"github.com/tupleworks/shardscan/store"
)

var (
	// ErrTableNotFound is returned when the table's canonical name cannot
	// be resolved against the store.
	ErrTableNotFound = errors.New("table not found")

	// ErrMissingRegionMetadata is returned when the cluster reports no
	// region placement for a resolved table.
	ErrMissingRegionMetadata = errors.New("no region metadata for table")
)

// ConnAcquirer hands out short-lived pooled connections for metadata
// lookups. *store.Pool satisfies it.
type ConnAcquirer interface {
	Acquire(ctx context.Context) (*store.PooledConn, error)
}

// Resolver maps a logical table to its set of scan partitions using the
// cluster's region placement metadata.
type Resolver struct {
	meta region.Metadata
	pool ConnAcquirer
}

// NewResolver creates a resolver backed by the given metadata accessor and
// connection pool.
func NewResolver(meta region.Metadata, pool ConnAcquirer) *Resolver {
	return &Resolver{
		meta: meta,
		pool: pool,
	}
}

// Resolve produces the scan partitions for table.
//
// A non-empty explicit list is returned unchanged and never re-resolved;
// collocated multi-table scans use this to share one partitioning scheme.
// Otherwise a short-lived connection resolves the canonical table name, the
// metadata accessor reports the region's placement, and one partition is
// emitted per bucket grouping (partitioned regions) or per replica host
// (replicated regions).
//
// Resolution failures are fatal for the scan and are propagated, never
// retried: a schema mismatch must not be masked.
func (r *Resolver) Resolve(ctx context.Context, table string, explicit []*ScanPartition) ([]*ScanPartition, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}

	info, err := r.resolveInfo(ctx, table)
	if err != nil {
		return nil, err
	}

	switch info.Kind {
	case region.KindPartitioned:
		parts := make([]*ScanPartition, 0, len(info.Groups))
		for i, g := range info.Groups {
			parts = append(parts, NewScanPartition(i, BucketSetOf(g.Buckets...), g.Hosts...))
		}
		return parts, nil
	case region.KindReplicated:
		parts := make([]*ScanPartition, 0, len(info.ReplicaHosts))
		for i, host := range info.ReplicaHosts {
			parts = append(parts, NewScanPartition(i, nil, host))
		}
		return parts, nil
	default:
		return nil, fmt.Errorf("%w: %q reported invalid region kind", ErrMissingRegionMetadata, table)
	}
}

// Info resolves the region placement for table without expanding it into
// partitions.
func (r *Resolver) Info(ctx context.Context, table string) (*region.Info, error) {
	return r.resolveInfo(ctx, table)
}

func (r *Resolver) resolveInfo(ctx context.Context, table string) (*region.Info, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire resolution connection: %w", err)
	}

	canonical, err := conn.CanonicalName(ctx, table)
	relErr := conn.Release()
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrTableNotFound, table, err)
	}
	if relErr != nil {
		return nil, fmt.Errorf("failed to release resolution connection: %w", relErr)
	}

	info, err := r.meta.Resolve(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMissingRegionMetadata, canonical, err)
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingRegionMetadata, canonical)
	}
	return info, nil
}
