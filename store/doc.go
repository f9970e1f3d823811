// Package store defines the connection surface shardscan drives the row
// store through (connections, prepared statements, lazily traversed result
// sets) and a bounded, keyed connection pool. The store itself is a black
// box behind these interfaces.
package store
