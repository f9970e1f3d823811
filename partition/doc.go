// Package partition maps a logical table onto units of parallel scan work.
// A ScanPartition binds a roaring-backed set of bucket IDs to the hosts
// preferred for executing it; the Resolver derives partitions from cluster
// region metadata, or passes an explicit partitioning through untouched for
// collocated multi-table scans.
package partition
