package region

import (
	"github.com/tupleworks/shardscan/model"
)

// BasicEntry is the standard Entry implementation for in-process regions.
// An entry holds its columns in memory, or an overflow block if the value
// was evicted to disk, or neither if it is stale or owned remotely.
type BasicEntry struct {
	// Columns is the in-memory value, nil if evicted or unavailable.
	Columns model.Row

	// Overflow is the LZ4 overflow block of an evicted value.
	Overflow []byte

	// Stale marks an entry whose value was concurrently removed.
	Stale bool

	// RemoteOnly marks an entry owned by another member without a local
	// copy (e.g. mid-rebalance).
	RemoteOnly bool
}

// Fill implements Entry. The row buffer is overwritten in place; width
// mismatches and undecodable overflow blocks make the entry unfillable.
func (e *BasicEntry) Fill(schema model.Schema, row model.Row) bool {
	if e.Stale || e.RemoteOnly {
		return false
	}

	columns := e.Columns
	if columns == nil {
		if e.Overflow == nil {
			return false
		}
		decoded, err := DecompressOverflow(e.Overflow)
		if err != nil {
			return false
		}
		columns = decoded
	}

	if len(columns) != schema.Width() || len(row) != schema.Width() {
		return false
	}
	copy(row, columns)
	return true
}
