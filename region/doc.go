// Package region abstracts the storage layer backing a table: placement
// metadata (partitioned vs replicated, bucket layout, host locations) and
// the raw entry walk the bucket-local fast path runs against the in-process
// store. Values evicted to disk are carried as LZ4 overflow blocks and
// decoded transparently during entry materialization.
package region
