package store

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/tupleworks/shardscan/model"
)

// Conn is a single connection to the row store. Connections are not safe
// for concurrent use; each scan partition drives its own.
type Conn interface {
	// Prepare compiles a parameterized statement on this connection.
	Prepare(ctx context.Context, query string) (Stmt, error)

	// CanonicalName resolves a table name to the store's canonical,
	// schema-qualified form.
	CanonicalName(ctx context.Context, table string) (string, error)

	// Close terminates the connection.
	Close() error
}

// Stmt is a prepared statement.
type Stmt interface {
	// Query executes the statement with args bound positionally and returns
	// its result rows.
	Query(ctx context.Context, args ...any) (Rows, error)

	// Exec executes the statement for its side effects only.
	Exec(ctx context.Context, args ...any) error

	// SetFetchSize hints how many rows the store should transfer per fetch.
	SetFetchSize(n int)

	// Close releases the statement.
	Close() error
}

// Rows is a lazily traversed result set. Column values are produced only
// when Scan is called; a consumer may advance and close without ever
// scanning.
type Rows interface {
	// Next advances to the next row, returning false at the end or on error.
	Next() bool

	// Scan reads the current row's column values into dest.
	Scan(dest model.Row) error

	// Err returns the error, if any, that ended iteration early.
	Err() error

	// Close releases the result set.
	Close() error
}

// Factory opens a new connection to the row store.
type Factory func(ctx context.Context) (Conn, error)

// ConnProps carries the per-connection configuration a pool is keyed by.
type ConnProps struct {
	// Dialect names the SQL dialect of the target store.
	Dialect string

	// FetchSize is the per-fetch row count hint applied to scan statements.
	// Zero means the store's default.
	FetchSize int

	// Extra holds opaque driver properties.
	Extra map[string]string
}

// Key returns a stable string representation for use in pool maps.
func (p ConnProps) Key() string {
	var sb strings.Builder
	sb.WriteString("d:")
	sb.WriteString(p.Dialect)
	sb.WriteString("\x1ff:")
	sb.WriteString(strconv.Itoa(p.FetchSize))
	if len(p.Extra) > 0 {
		keys := make([]string, 0, len(p.Extra))
		for k := range p.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString("\x1f")
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(p.Extra[k])
		}
	}
	return sb.String()
}
