package partition

import (
	"fmt"
	"strings"
)

// ScanPartition identifies one unit of parallel scan work: the buckets it
// covers and the hosts preferred for executing it. It is created once per
// scan by the Resolver and immutable thereafter; the caller's execution
// engine owns it and assigns it to a worker.
type ScanPartition struct {
	index   int
	buckets *BucketSet
	hosts   []string
}

// NewScanPartition creates a partition over the given buckets. hosts are the
// preferred execution locations, primary first. A nil bucket set is treated
// as empty (replicated tables have no buckets).
func NewScanPartition(index int, buckets *BucketSet, hosts ...string) *ScanPartition {
	if buckets == nil {
		buckets = NewBucketSet()
	}
	return &ScanPartition{
		index:   index,
		buckets: buckets,
		hosts:   hosts,
	}
}

// Index returns the partition's position within the scan.
func (p *ScanPartition) Index() int {
	return p.index
}

// Buckets returns the bucket set this partition covers. The set must not be
// modified by the caller.
func (p *ScanPartition) Buckets() *BucketSet {
	return p.buckets
}

// PreferredHosts returns the hosts that hold this partition's data, for
// locality-aware scheduling.
func (p *ScanPartition) PreferredHosts() []string {
	return p.hosts
}

// String returns a representation like "Partition(2, buckets=3, hosts=[h1])".
func (p *ScanPartition) String() string {
	return fmt.Sprintf("Partition(%d, buckets=%d, hosts=[%s])",
		p.index, p.buckets.Cardinality(), strings.Join(p.hosts, ","))
}
