package shardscan

import (
	"context"
	"sync"

	"github.com/tupleworks/shardscan/model"
	"github.com/tupleworks/shardscan/region"
)

// RowIterator is a lazy, finite, non-restartable sequence of rows produced
// for one scan partition. It must be driven by a single goroutine.
//
// Close is idempotent and releases every resource the iterator holds; it is
// also called internally on exhaustion, failure and cancellation, so exactly
// one release takes effect regardless of how iteration ends.
type RowIterator interface {
	// HasNext reports whether another row is available without consuming
	// it. Calling it repeatedly without Next never skips rows.
	HasNext() (bool, error)

	// Next returns the next row, or ErrNoMoreRows past the end. On the
	// bucket-local path the returned row aliases a buffer reused by the
	// following Next call.
	Next() (model.Row, error)

	// Close ends iteration early and releases held resources.
	Close() error
}

// iterState is the advance state machine shared by both iterators: the cost
// of finding the next row is deferred until asked, and a found row is cached
// until consumed.
type iterState uint8

const (
	stateNeedsAdvance iterState = iota
	stateCached
	stateExhausted
)

// bucketIterator walks a set of buckets directly against the in-process
// region representation, bypassing query execution. Entries that cannot be
// materialized (stale, remotely owned without a local copy, undecodable)
// are skipped silently; they are concurrently-removed or relocated data,
// not failures.
type bucketIterator struct {
	ctx     context.Context
	entries region.EntryIterator
	schema  model.Schema

	state iterState
	buf   model.Row
	rows  int64

	closeOnce sync.Once
	closeErr  error
	onClose   func(rows int64, err error)
}

func newBucketIterator(ctx context.Context, entries region.EntryIterator, schema model.Schema, onClose func(rows int64, err error)) *bucketIterator {
	return &bucketIterator{
		ctx:     ctx,
		entries: entries,
		schema:  schema,
		buf:     model.NewRow(schema),
		onClose: onClose,
	}
}

// HasNext implements RowIterator.
func (it *bucketIterator) HasNext() (bool, error) {
	switch it.state {
	case stateCached:
		return true, nil
	case stateExhausted:
		return false, nil
	}

	for {
		if err := it.ctx.Err(); err != nil {
			it.state = stateExhausted
			it.release(err)
			return false, err
		}

		entry, ok := it.entries.Next()
		if !ok {
			it.state = stateExhausted
			if err := it.release(nil); err != nil {
				return false, err
			}
			return false, nil
		}
		if entry.Fill(it.schema, it.buf) {
			it.state = stateCached
			return true, nil
		}
	}
}

// Next implements RowIterator.
func (it *bucketIterator) Next() (model.Row, error) {
	ok, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoMoreRows
	}
	it.state = stateNeedsAdvance
	it.rows++
	return it.buf, nil
}

// Close implements RowIterator.
func (it *bucketIterator) Close() error {
	it.state = stateExhausted
	return it.release(nil)
}

func (it *bucketIterator) release(cause error) error {
	it.closeOnce.Do(func() {
		it.closeErr = it.entries.Close()
		if it.onClose != nil {
			it.onClose(it.rows, cause)
		}
	})
	return it.closeErr
}
