package shardscan_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	shardscan "github.com/tupleworks/shardscan"
	"github.com/tupleworks/shardscan/filter"
	"github.com/tupleworks/shardscan/model"
	"github.com/tupleworks/shardscan/partition"
	"github.com/tupleworks/shardscan/region"
	"github.com/tupleworks/shardscan/store"
	"github.com/tupleworks/shardscan/testutil"
)

var orderSchema = model.NewSchema(
	model.Column{Name: "id", Type: model.TypeInt},
	model.Column{Name: "name", Type: model.TypeString},
	model.Column{Name: "amount", Type: model.TypeFloat},
)

func partitionedInfo() *region.Info {
	return &region.Info{
		CanonicalName: "APP.ORDERS",
		Kind:          region.KindPartitioned,
		Groups: []region.BucketGroup{
			{Buckets: []uint32{0, 1}, Hosts: []string{"host-a"}},
			{Buckets: []uint32{2, 3}, Hosts: []string{"host-b"}},
		},
	}
}

type fixture struct {
	factory *testutil.Factory
	region  *testutil.Region
	meta    *testutil.Metadata
}

func newFixture(script *testutil.Script) *fixture {
	return &fixture{
		factory: testutil.NewFactory(script),
		region: &testutil.Region{ByBucket: map[uint32][]region.Entry{
			0: {testutil.Entry(int64(1), "Alice", 10.0)},
			1: {testutil.Entry(int64(2), "Bob", 20.0)},
			2: {testutil.Entry(int64(3), "Carol", 30.0)},
		}},
		meta: &testutil.Metadata{Info: partitionedInfo()},
	}
}

func (f *fixture) builder() shardscan.Builder {
	return shardscan.Table("orders", orderSchema).
		Connect(f.factory.Open, store.ConnProps{Dialect: "snappy"}).
		Metadata(f.meta).
		LocalRegion(f.region)
}

// allStmts flattens the statements prepared across every opened connection.
func (f *fixture) allStmts() []*testutil.Stmt {
	var stmts []*testutil.Stmt
	for _, c := range f.factory.Conns() {
		stmts = append(stmts, c.Stmts()...)
	}
	return stmts
}

func firstPartition() *partition.ScanPartition {
	return partition.NewScanPartition(0, partition.BucketSetOf(0, 1), "host-a")
}

func drain(t *testing.T, it shardscan.RowIterator) []model.Row {
	t.Helper()
	var rows []model.Row
	for {
		ok, err := it.HasNext()
		require.NoError(t, err)
		if !ok {
			return rows
		}
		row, err := it.Next()
		require.NoError(t, err)
		rows = append(rows, row.Clone())
	}
}

func TestComputeUnfilteredScanTakesBucketLocalPath(t *testing.T) {
	f := newFixture(nil)
	sc, err := f.builder().Build()
	require.NoError(t, err)
	defer sc.Close()

	it, err := sc.Compute(context.Background(), firstPartition())
	require.NoError(t, err)

	rows := drain(t, it)
	assert.Equal(t, []model.Row{
		{int64(1), "Alice", 10.0},
		{int64(2), "Bob", 20.0},
	}, rows)

	// Exactly the requested buckets were walked and no query ran.
	assert.Equal(t, [][]uint32{{0, 1}}, f.region.Requests())
	assert.Empty(t, f.allStmts())
}

func TestComputeFilteredScanTakesQueryPath(t *testing.T) {
	f := newFixture(&testutil.Script{
		QueryData: []model.Row{{int64(1), "Alice", 10.0}},
	})
	sc, err := f.builder().
		Filters(filter.Eq("id", 1), filter.Gt("amount", 5)).
		Build()
	require.NoError(t, err)
	defer sc.Close()

	it, err := sc.Compute(context.Background(), firstPartition())
	require.NoError(t, err)
	rows := drain(t, it)
	require.Len(t, rows, 1)

	// The bucket-local path never ran.
	assert.Empty(t, f.region.Requests())

	stmts := f.allStmts()
	require.Len(t, stmts, 2)

	// Bucket scoping call first, its statement closed immediately.
	scope := stmts[0]
	assert.Equal(t, "CALL SYS.SET_SCAN_BUCKETS(?, ?)", scope.SQL)
	assert.Equal(t, [][]any{{"APP.ORDERS", "0,1"}}, scope.ExecArgs())
	assert.Equal(t, 1, scope.CloseCount())

	// Then the scan query with the compiled predicate and ordered binds.
	scan := stmts[1]
	assert.Equal(t, "SELECT * FROM APP.ORDERS WHERE id = ? AND amount > ?", scan.SQL)
	assert.Equal(t, [][]any{{1, 5}}, scan.QueryArgs())
}

func TestComputeProjectionForcesQueryPath(t *testing.T) {
	f := newFixture(&testutil.Script{
		QueryData: []model.Row{{"Alice", int64(1)}},
	})
	sc, err := f.builder().Project("name", "id").Build()
	require.NoError(t, err)
	defer sc.Close()

	it, err := sc.Compute(context.Background(), firstPartition())
	require.NoError(t, err)
	rows := drain(t, it)

	assert.Equal(t, []model.Row{{"Alice", int64(1)}}, rows)
	assert.Empty(t, f.region.Requests())

	stmts := f.allStmts()
	require.Len(t, stmts, 2)
	assert.Equal(t, "SELECT name,id FROM APP.ORDERS", stmts[1].SQL)
}

func TestComputeEmptyProjectionSelectsConstant(t *testing.T) {
	f := newFixture(&testutil.Script{
		QueryData: []model.Row{{int64(1)}, {int64(1)}},
	})
	sc, err := f.builder().Project().Build()
	require.NoError(t, err)
	defer sc.Close()

	it, err := sc.Compute(context.Background(), firstPartition())
	require.NoError(t, err)
	defer it.Close()

	stmts := f.allStmts()
	require.Len(t, stmts, 2)
	assert.Equal(t, "SELECT 1 FROM APP.ORDERS", stmts[1].SQL)

	// The degenerate consumer advances and closes without reading columns.
	count := 0
	for {
		ok, err := it.HasNext()
		require.NoError(t, err)
		if !ok {
			break
		}
		_, err = it.Next()
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 2, count)
}

func TestComputeQueryRouteForcesQueryPath(t *testing.T) {
	f := newFixture(&testutil.Script{})
	sc, err := f.builder().QueryRoute().Build()
	require.NoError(t, err)
	defer sc.Close()

	it, err := sc.Compute(context.Background(), firstPartition())
	require.NoError(t, err)
	drain(t, it)

	assert.Empty(t, f.region.Requests())
	require.Len(t, f.allStmts(), 2)
	assert.Equal(t, "SELECT * FROM APP.ORDERS", f.allStmts()[1].SQL)
}

func TestComputeReplicatedTableSkipsBucketScoping(t *testing.T) {
	f := newFixture(&testutil.Script{})
	f.meta.Info = &region.Info{
		CanonicalName: "APP.DIMS",
		Kind:          region.KindReplicated,
		ReplicaHosts:  []string{"host-a"},
	}
	sc, err := f.builder().Build()
	require.NoError(t, err)
	defer sc.Close()

	it, err := sc.Compute(context.Background(), partition.NewScanPartition(0, nil, "host-a"))
	require.NoError(t, err)
	drain(t, it)

	// Replicated regions take the query path without restricting buckets.
	stmts := f.allStmts()
	require.Len(t, stmts, 1)
	assert.Equal(t, "SELECT * FROM APP.DIMS", stmts[0].SQL)
}

func TestComputeAppliesFetchSizeHint(t *testing.T) {
	f := newFixture(&testutil.Script{})
	sc, err := shardscan.Table("orders", orderSchema).
		Connect(f.factory.Open, store.ConnProps{Dialect: "snappy", FetchSize: 500}).
		Metadata(f.meta).
		QueryRoute().
		Build()
	require.NoError(t, err)
	defer sc.Close()

	it, err := sc.Compute(context.Background(), firstPartition())
	require.NoError(t, err)
	drain(t, it)

	stmts := f.allStmts()
	require.Len(t, stmts, 2)
	assert.Equal(t, 500, stmts[1].FetchSize())
	assert.Equal(t, 0, stmts[0].FetchSize())
}

func TestQueryIteratorReleasesEverythingExactlyOnce(t *testing.T) {
	f := newFixture(&testutil.Script{
		QueryData: []model.Row{{int64(1), "Alice", 10.0}},
	})
	sc, err := f.builder().QueryRoute().Build()
	require.NoError(t, err)
	defer sc.Close()

	it, err := sc.Compute(context.Background(), firstPartition())
	require.NoError(t, err)
	drain(t, it)

	// Closing again after exhaustion must not double-release.
	require.NoError(t, it.Close())
	require.NoError(t, it.Close())

	stmts := f.allStmts()
	require.Len(t, stmts, 2)
	scan := stmts[1]
	assert.Equal(t, 1, scan.CloseCount())
	assert.Equal(t, 1, scan.Rows().CloseCount())

	// The connection went back to the pool, not to its grave.
	require.Len(t, f.factory.Conns(), 1)
	assert.Equal(t, 0, f.factory.Conns()[0].CloseCount())
}

func TestQueryIteratorReleasesOnCancellation(t *testing.T) {
	f := newFixture(&testutil.Script{
		QueryData: []model.Row{
			{int64(1), "Alice", 10.0},
			{int64(2), "Bob", 20.0},
			{int64(3), "Carol", 30.0},
		},
	})
	sc, err := f.builder().QueryRoute().Build()
	require.NoError(t, err)
	defer sc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	it, err := sc.Compute(ctx, firstPartition())
	require.NoError(t, err)

	ok, err := it.HasNext()
	require.NoError(t, err)
	require.True(t, ok)
	_, err = it.Next()
	require.NoError(t, err)

	// Cancel mid-iteration: resources must be released promptly without the
	// consumer calling anything else.
	cancel()

	scan := f.allStmts()[1]
	require.Eventually(t, func() bool {
		return scan.CloseCount() == 1 && scan.Rows().CloseCount() == 1
	}, time.Second, 5*time.Millisecond)

	// A later Close stays idempotent.
	it.Close()
	assert.Equal(t, 1, scan.CloseCount())
}

func TestComputeQueryFailureReleasesConnection(t *testing.T) {
	boom := errors.New("statement rejected")
	f := newFixture(&testutil.Script{QueryErr: boom})
	sc, err := f.builder().QueryRoute().Build()
	require.NoError(t, err)
	defer sc.Close()

	_, err = sc.Compute(context.Background(), firstPartition())
	require.ErrorIs(t, err, boom)

	stmts := f.allStmts()
	require.Len(t, stmts, 2)
	assert.Equal(t, 1, stmts[1].CloseCount())
	assert.Equal(t, 0, f.factory.Conns()[0].CloseCount())
}

func TestComputeBucketScopingFailureClosesItsStatement(t *testing.T) {
	boom := errors.New("no such procedure")
	f := newFixture(&testutil.Script{ExecErr: boom})
	sc, err := f.builder().QueryRoute().Build()
	require.NoError(t, err)
	defer sc.Close()

	_, err = sc.Compute(context.Background(), firstPartition())
	require.ErrorIs(t, err, boom)

	stmts := f.allStmts()
	require.Len(t, stmts, 1)
	assert.Equal(t, "CALL SYS.SET_SCAN_BUCKETS(?, ?)", stmts[0].SQL)
	assert.Equal(t, 1, stmts[0].CloseCount())
}

func TestScanTimeFailurePropagatesAfterRelease(t *testing.T) {
	boom := errors.New("member departed")
	f := newFixture(&testutil.Script{
		QueryData: []model.Row{{int64(1), "Alice", 10.0}},
		RowsErr:   boom,
	})
	sc, err := f.builder().QueryRoute().Build()
	require.NoError(t, err)
	defer sc.Close()

	it, err := sc.Compute(context.Background(), firstPartition())
	require.NoError(t, err)

	_, err = it.Next()
	require.NoError(t, err)

	_, err = it.HasNext()
	require.ErrorIs(t, err, boom)

	scan := f.allStmts()[1]
	assert.Equal(t, 1, scan.CloseCount())
	assert.Equal(t, 1, scan.Rows().CloseCount())
}

func TestPartitionsAndPreferredLocations(t *testing.T) {
	f := newFixture(nil)
	sc, err := f.builder().Build()
	require.NoError(t, err)
	defer sc.Close()

	parts, err := sc.Partitions(context.Background())
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, []string{"host-a"}, sc.PreferredLocations(parts[0]))
	assert.Equal(t, []string{"host-b"}, sc.PreferredLocations(parts[1]))

	// Resolution runs once; the second call serves the cached partitions.
	again, err := sc.Partitions(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.meta.Calls(), 1)
	for i := range parts {
		assert.Same(t, parts[i], again[i])
	}
}

func TestExplicitPartitionsBypassResolution(t *testing.T) {
	f := newFixture(nil)
	explicit := []*partition.ScanPartition{firstPartition()}
	sc, err := f.builder().Partitions(explicit...).Build()
	require.NoError(t, err)
	defer sc.Close()

	parts, err := sc.Partitions(context.Background())
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Same(t, explicit[0], parts[0])
	assert.Empty(t, f.meta.Calls())
}

func TestScanAllVisitsEveryPartition(t *testing.T) {
	f := newFixture(nil)
	f.region.ByBucket[3] = []region.Entry{testutil.Entry(int64(4), "Dave", 40.0)}
	sc, err := f.builder().Build()
	require.NoError(t, err)
	defer sc.Close()

	var mu sync.Mutex
	seen := map[int64]bool{}
	err = sc.ScanAll(context.Background(), 2, func(ctx context.Context, p *partition.ScanPartition, rows shardscan.RowIterator) error {
		for {
			ok, err := rows.HasNext()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			row, err := rows.Next()
			if err != nil {
				return err
			}
			mu.Lock()
			seen[row[0].(int64)] = true
			mu.Unlock()
		}
	})
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{1: true, 2: true, 3: true, 4: true}, seen)
}

func TestComputeAfterCloseFails(t *testing.T) {
	f := newFixture(nil)
	sc, err := f.builder().Build()
	require.NoError(t, err)
	require.NoError(t, sc.Close())

	_, err = sc.Compute(context.Background(), firstPartition())
	assert.ErrorIs(t, err, shardscan.ErrScannerClosed)
}
