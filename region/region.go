package region

import (
	"context"

	"github.com/tupleworks/shardscan/model"
)

// Kind identifies how a region distributes its data across the cluster.
type Kind uint8

const (
	// KindInvalid represents an unknown region kind.
	KindInvalid Kind = iota
	// KindPartitioned represents a sharded region whose data is split into
	// buckets spread across hosts.
	KindPartitioned
	// KindReplicated represents a region fully copied to every replica host.
	KindReplicated
)

// String returns a human-readable name for the region kind.
func (k Kind) String() string {
	switch k {
	case KindPartitioned:
		return "PARTITIONED"
	case KindReplicated:
		return "REPLICATED"
	default:
		return "INVALID"
	}
}

// BucketGroup is one grouping of buckets as reported by cluster metadata,
// together with the hosts that hold copies of them, primary first.
type BucketGroup struct {
	Buckets []uint32
	Hosts   []string
}

// Info describes the placement of the region backing one table.
type Info struct {
	// CanonicalName is the store's fully resolved name for the table.
	CanonicalName string

	// Kind is the region's distribution kind.
	Kind Kind

	// Groups holds the bucket groupings of a partitioned region.
	Groups []BucketGroup

	// ReplicaHosts holds the replica locations of a replicated region.
	ReplicaHosts []string
}

// Metadata resolves a table name to its region placement. Implementations
// query the cluster's region/placement service.
type Metadata interface {
	// Resolve returns the placement info for the named table, or an error if
	// the table is unknown or carries no region metadata. Resolution
	// failures are fatal for the scan; callers must not retry silently.
	Resolve(ctx context.Context, table string) (*Info, error)
}

// Entry is one raw entry surfaced by the in-process region walk.
type Entry interface {
	// Fill materializes the entry into row, which must have schema's width.
	// It returns false when the entry cannot be materialized: it is stale,
	// owned remotely without a local copy, or its stored value is
	// undecodable. Such entries are concurrently-removed or relocated data
	// and are skipped, not errors.
	Fill(schema model.Schema, row model.Row) bool
}

// EntryIterator walks the raw entries of a bucket subset. It is finite and
// non-restartable.
type EntryIterator interface {
	// Next returns the next raw entry, or ok=false once the entry set is
	// exhausted across all requested buckets.
	Next() (entry Entry, ok bool)

	// Close releases any resources held by the walk.
	Close() error
}

// Region is the in-process representation of a table's local storage, used
// by the bucket-local fast path to bypass query execution entirely.
type Region interface {
	// Entries returns an iterator over the raw entries of exactly the given
	// buckets. An empty bucket list yields an empty iteration.
	Entries(buckets []uint32) EntryIterator
}
