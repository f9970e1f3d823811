// Package testutil provides recording test doubles for the store and region
// interfaces: connections, statements and result sets that count their close
// calls, scripted metadata accessors and in-memory regions.
package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tupleworks/shardscan/model"
	"github.com/tupleworks/shardscan/region"
	"github.com/tupleworks/shardscan/store"
)

// Script configures the behavior of every connection a Factory opens.
type Script struct {
	// CanonicalName is returned by Conn.CanonicalName; defaults to the
	// requested table name when empty.
	CanonicalName string
	// CanonicalErr makes name resolution fail.
	CanonicalErr error

	// QueryData is returned row by row from any Query call.
	QueryData []model.Row
	// QueryErr makes Query fail.
	QueryErr error
	// RowsErr ends result iteration with an error after QueryData is
	// consumed.
	RowsErr error
	// ScanErr makes Rows.Scan fail.
	ScanErr error

	// PrepareErr makes Prepare fail.
	PrepareErr error
	// ExecErr makes Exec fail.
	ExecErr error
	// OpenErr makes the factory itself fail.
	OpenErr error
}

// Factory opens scripted connections and records every one of them.
type Factory struct {
	Script *Script

	mu    sync.Mutex
	conns []*Conn
}

// NewFactory creates a factory around script. A nil script behaves as empty.
func NewFactory(script *Script) *Factory {
	if script == nil {
		script = &Script{}
	}
	return &Factory{Script: script}
}

// Open implements store.Factory.
func (f *Factory) Open(ctx context.Context) (store.Conn, error) {
	if f.Script.OpenErr != nil {
		return nil, f.Script.OpenErr
	}
	c := &Conn{script: f.Script}
	f.mu.Lock()
	f.conns = append(f.conns, c)
	f.mu.Unlock()
	return c, nil
}

// Conns returns every connection opened so far.
func (f *Factory) Conns() []*Conn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Conn(nil), f.conns...)
}

// Conn is a scripted, recording store.Conn.
type Conn struct {
	script *Script

	mu         sync.Mutex
	stmts      []*Stmt
	closeCount atomic.Int32
}

// Prepare implements store.Conn.
func (c *Conn) Prepare(ctx context.Context, query string) (store.Stmt, error) {
	if c.script.PrepareErr != nil {
		return nil, c.script.PrepareErr
	}
	s := &Stmt{SQL: query, script: c.script}
	c.mu.Lock()
	c.stmts = append(c.stmts, s)
	c.mu.Unlock()
	return s, nil
}

// CanonicalName implements store.Conn.
func (c *Conn) CanonicalName(ctx context.Context, table string) (string, error) {
	if c.script.CanonicalErr != nil {
		return "", c.script.CanonicalErr
	}
	if c.script.CanonicalName != "" {
		return c.script.CanonicalName, nil
	}
	return table, nil
}

// Close implements store.Conn.
func (c *Conn) Close() error {
	c.closeCount.Add(1)
	return nil
}

// CloseCount returns how often Close was called.
func (c *Conn) CloseCount() int {
	return int(c.closeCount.Load())
}

// Stmts returns every statement prepared on this connection, in order.
func (c *Conn) Stmts() []*Stmt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Stmt(nil), c.stmts...)
}

// Stmt is a scripted, recording store.Stmt.
type Stmt struct {
	SQL    string
	script *Script

	mu        sync.Mutex
	fetchSize int
	queryArgs [][]any
	execArgs  [][]any
	rows      *Rows

	closeCount atomic.Int32
}

// Query implements store.Stmt.
func (s *Stmt) Query(ctx context.Context, args ...any) (store.Rows, error) {
	s.mu.Lock()
	s.queryArgs = append(s.queryArgs, append([]any(nil), args...))
	s.mu.Unlock()
	if s.script.QueryErr != nil {
		return nil, s.script.QueryErr
	}
	r := &Rows{
		data:    s.script.QueryData,
		iterErr: s.script.RowsErr,
		scanErr: s.script.ScanErr,
	}
	s.mu.Lock()
	s.rows = r
	s.mu.Unlock()
	return r, nil
}

// Exec implements store.Stmt.
func (s *Stmt) Exec(ctx context.Context, args ...any) error {
	s.mu.Lock()
	s.execArgs = append(s.execArgs, append([]any(nil), args...))
	s.mu.Unlock()
	return s.script.ExecErr
}

// SetFetchSize implements store.Stmt.
func (s *Stmt) SetFetchSize(n int) {
	s.mu.Lock()
	s.fetchSize = n
	s.mu.Unlock()
}

// Close implements store.Stmt.
func (s *Stmt) Close() error {
	s.closeCount.Add(1)
	return nil
}

// CloseCount returns how often Close was called.
func (s *Stmt) CloseCount() int {
	return int(s.closeCount.Load())
}

// FetchSize returns the last applied fetch-size hint.
func (s *Stmt) FetchSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchSize
}

// QueryArgs returns the bind arguments of every Query call.
func (s *Stmt) QueryArgs() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.queryArgs...)
}

// ExecArgs returns the bind arguments of every Exec call.
func (s *Stmt) ExecArgs() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.execArgs...)
}

// Rows returns the result set produced by the last Query call, if any.
func (s *Stmt) Rows() *Rows {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Rows is a scripted, recording store.Rows.
type Rows struct {
	data    []model.Row
	iterErr error
	scanErr error

	mu         sync.Mutex
	pos        int
	closeCount atomic.Int32
}

// Next implements store.Rows.
func (r *Rows) Next() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closeCount.Load() > 0 {
		return false
	}
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

// Scan implements store.Rows.
func (r *Rows) Scan(dest model.Row) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copy(dest, r.data[r.pos-1])
	return nil
}

// Err implements store.Rows.
func (r *Rows) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pos >= len(r.data) {
		return r.iterErr
	}
	return nil
}

// Close implements store.Rows.
func (r *Rows) Close() error {
	r.closeCount.Add(1)
	return nil
}

// CloseCount returns how often Close was called.
func (r *Rows) CloseCount() int {
	return int(r.closeCount.Load())
}

// Metadata is a scripted region.Metadata accessor.
type Metadata struct {
	Info *region.Info
	Err  error

	mu    sync.Mutex
	calls []string
}

// Resolve implements region.Metadata.
func (m *Metadata) Resolve(ctx context.Context, table string) (*region.Info, error) {
	m.mu.Lock()
	m.calls = append(m.calls, table)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Info, nil
}

// Calls returns the table names resolved so far.
func (m *Metadata) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Region is an in-memory region.Region that records which buckets were
// requested.
type Region struct {
	ByBucket map[uint32][]region.Entry

	mu       sync.Mutex
	requests [][]uint32
	iters    []*EntryIter
}

// Entries implements region.Region.
func (r *Region) Entries(buckets []uint32) region.EntryIterator {
	var entries []region.Entry
	for _, b := range buckets {
		entries = append(entries, r.ByBucket[b]...)
	}
	it := &EntryIter{entries: entries}
	r.mu.Lock()
	r.requests = append(r.requests, append([]uint32(nil), buckets...))
	r.iters = append(r.iters, it)
	r.mu.Unlock()
	return it
}

// Requests returns the bucket lists passed to Entries, in call order.
func (r *Region) Requests() [][]uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]uint32(nil), r.requests...)
}

// Iters returns every iterator handed out so far.
func (r *Region) Iters() []*EntryIter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*EntryIter(nil), r.iters...)
}

// EntryIter is a recording region.EntryIterator over a fixed entry list.
type EntryIter struct {
	entries    []region.Entry
	pos        int
	closeCount atomic.Int32
}

// Next implements region.EntryIterator.
func (it *EntryIter) Next() (region.Entry, bool) {
	if it.pos >= len(it.entries) {
		return nil, false
	}
	e := it.entries[it.pos]
	it.pos++
	return e, true
}

// Close implements region.EntryIterator.
func (it *EntryIter) Close() error {
	it.closeCount.Add(1)
	return nil
}

// CloseCount returns how often Close was called.
func (it *EntryIter) CloseCount() int {
	return int(it.closeCount.Load())
}

// Entry creates a live entry holding the given column values.
func Entry(columns ...any) *region.BasicEntry {
	return &region.BasicEntry{Columns: columns}
}

// StaleEntry creates an entry whose value was concurrently removed.
func StaleEntry() *region.BasicEntry {
	return &region.BasicEntry{Stale: true}
}

// RemoteEntry creates an entry owned elsewhere without a local copy.
func RemoteEntry() *region.BasicEntry {
	return &region.BasicEntry{RemoteOnly: true}
}

// OverflowEntry creates an entry whose value lives in a compressed overflow
// block.
func OverflowEntry(columns ...any) *region.BasicEntry {
	block, err := region.CompressOverflow(columns)
	if err != nil {
		panic(err)
	}
	return &region.BasicEntry{Overflow: block}
}
