package shardscan

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tupleworks/shardscan/filter"
	"github.com/tupleworks/shardscan/model"
	"github.com/tupleworks/shardscan/partition"
	"github.com/tupleworks/shardscan/store"
)

// setScanBucketsSQL scopes all subsequent execution on a connection to an
// exact bucket subset. The statement text and its positional binds are part
// of the wire contract with the store.
const setScanBucketsSQL = "CALL SYS.SET_SCAN_BUCKETS(?, ?)"

// queryIterator executes a parameterized scan query against a pooled
// connection, restricted to one partition's buckets, and exposes the result
// set as a lazy row sequence. Connection, statement and result set share the
// iterator's lifetime and are released together exactly once: on exhaustion,
// on explicit Close, on failure, or when cancellation is observed, whichever
// fires first.
type queryIterator struct {
	ctx  context.Context
	conn *store.PooledConn
	stmt store.Stmt
	rows store.Rows

	state    iterState
	buf      model.Row
	rowCount atomic.Int64 // read by the cancellation watcher

	releaseOnce sync.Once
	releaseErr  error
	done        chan struct{}
	onClose     func(rows int64, err error)
}

// queryScan bundles what the query path needs to start one partition.
type queryScan struct {
	table       string
	canonical   string
	partitioned bool
	pred        filter.CompiledPredicate
	projection  []string
	width       int
	props       store.ConnProps
}

func newQueryIterator(ctx context.Context, pool *store.Pool, p *partition.ScanPartition, qs queryScan, onClose func(rows int64, err error)) (*queryIterator, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire scan connection: %w", err)
	}

	if qs.partitioned {
		if err := scopeBuckets(ctx, conn, qs.canonical, p.Buckets()); err != nil {
			conn.Release()
			return nil, err
		}
	}

	stmt, err := conn.Prepare(ctx, selectSQL(qs.canonical, qs.projection, qs.pred.Fragment))
	if err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to prepare scan statement: %w", err)
	}
	if qs.props.FetchSize > 0 {
		stmt.SetFetchSize(qs.props.FetchSize)
	}

	rows, err := stmt.Query(ctx, qs.pred.Args...)
	if err != nil {
		stmt.Close()
		conn.Release()
		return nil, fmt.Errorf("failed to execute scan statement: %w", err)
	}

	it := &queryIterator{
		ctx:     ctx,
		conn:    conn,
		stmt:    stmt,
		rows:    rows,
		buf:     make(model.Row, qs.width),
		done:    make(chan struct{}),
		onClose: onClose,
	}

	// Cancellation is a normal early-termination path: release the held
	// connection, statement and result set promptly, even mid-iteration.
	go func() {
		select {
		case <-ctx.Done():
			it.release(ctx.Err())
		case <-it.done:
		}
	}()

	return it, nil
}

// scopeBuckets instructs the connection to restrict visibility to exactly
// the given buckets. The call's own statement is closed immediately after
// execution, success or failure.
func scopeBuckets(ctx context.Context, conn store.Conn, table string, buckets *partition.BucketSet) error {
	stmt, err := conn.Prepare(ctx, setScanBucketsSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare bucket scoping call: %w", err)
	}
	defer stmt.Close()

	if err := stmt.Exec(ctx, table, bucketCSV(buckets)); err != nil {
		return fmt.Errorf("failed to scope scan to buckets: %w", err)
	}
	return nil
}

func bucketCSV(buckets *partition.BucketSet) string {
	var sb strings.Builder
	for id := range buckets.Iterator() {
		if sb.Len() > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	return sb.String()
}

// selectSQL builds the scan query text. A nil projection selects every
// column, an explicitly empty projection selects the constant 1 (the caller
// wants traversal semantics, not data), otherwise the requested columns in
// caller-given order.
func selectSQL(table string, projection []string, where string) string {
	columnList := "*"
	if projection != nil {
		if len(projection) == 0 {
			columnList = "1"
		} else {
			columnList = strings.Join(projection, ",")
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(columnList)
	sb.WriteString(" FROM ")
	sb.WriteString(table)
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	return sb.String()
}

// HasNext implements RowIterator.
func (it *queryIterator) HasNext() (bool, error) {
	switch it.state {
	case stateCached:
		return true, nil
	case stateExhausted:
		return false, nil
	}

	if err := it.ctx.Err(); err != nil {
		it.state = stateExhausted
		it.release(err)
		return false, err
	}

	if it.rows.Next() {
		it.state = stateCached
		return true, nil
	}

	it.state = stateExhausted
	if err := it.rows.Err(); err != nil {
		it.release(err)
		return false, fmt.Errorf("scan failed: %w", err)
	}
	if err := it.release(nil); err != nil {
		return false, err
	}
	return false, nil
}

// Next implements RowIterator.
func (it *queryIterator) Next() (model.Row, error) {
	ok, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoMoreRows
	}

	if err := it.rows.Scan(it.buf); err != nil {
		it.state = stateExhausted
		it.release(err)
		return nil, fmt.Errorf("failed to read row: %w", err)
	}
	it.state = stateNeedsAdvance
	it.rowCount.Add(1)
	return it.buf, nil
}

// Close implements RowIterator.
func (it *queryIterator) Close() error {
	it.state = stateExhausted
	return it.release(nil)
}

// release closes result set, statement and connection together, keeping the
// first error. It runs at most once; every exit path funnels through it.
func (it *queryIterator) release(cause error) error {
	it.releaseOnce.Do(func() {
		close(it.done)
		var firstErr error
		if err := it.rows.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := it.stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := it.conn.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
		it.releaseErr = firstErr
		if it.onClose != nil {
			it.onClose(it.rowCount.Load(), cause)
		}
	})
	return it.releaseErr
}
