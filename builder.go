package shardscan

import (
	"errors"

	"github.com/tupleworks/shardscan/filter"
	"github.com/tupleworks/shardscan/model"
	"github.com/tupleworks/shardscan/partition"
	"github.com/tupleworks/shardscan/region"
	"github.com/tupleworks/shardscan/store"
)

// Table creates a new scanner builder for the named table and schema.
//
// The builder is immutable - each method returns a new builder with the
// updated configuration. This ensures thread-safety and prevents accidental
// state sharing.
//
// Example:
//
//	sc, err := shardscan.Table("app.orders", schema).
//	    Connect(factory, props).
//	    Metadata(meta).
//	    LocalRegion(reg).
//	    Filters(filter.Gte("amount", 100)).
//	    Build()
func Table(name string, schema model.Schema) Builder {
	return Builder{
		table:  name,
		schema: schema,
		poolCfg: store.PoolConfig{
			MaxOpen: 8,
		},
	}
}

// Builder is an immutable fluent builder for creating Scanner instances.
// Each method returns a new builder with the updated configuration.
type Builder struct {
	table      string
	schema     model.Schema
	filters    []filter.Filter
	projection []string
	queryRoute bool

	meta        region.Metadata
	localRegion region.Region
	factory     store.Factory
	props       store.ConnProps
	poolCfg     store.PoolConfig
	explicit    []*partition.ScanPartition

	logger  *Logger
	metrics MetricsCollector
}

// Connect sets the connection factory and per-connection properties.
func (b Builder) Connect(factory store.Factory, props store.ConnProps) Builder {
	b.factory = factory
	b.props = props
	return b
}

// Metadata sets the cluster region/placement metadata accessor.
func (b Builder) Metadata(meta region.Metadata) Builder {
	b.meta = meta
	return b
}

// LocalRegion sets the in-process region representation enabling the
// bucket-local fast path. Without it every partition takes the query path.
func (b Builder) LocalRegion(r region.Region) Builder {
	b.localRegion = r
	return b
}

// Filters sets the predicates to push down. Filters the compiler cannot
// express are silently excluded; the caller re-applies them after the scan.
func (b Builder) Filters(filters ...filter.Filter) Builder {
	b.filters = filters
	return b
}

// Project restricts the scan to the given columns, in the given order.
// Calling Project with no columns requests the degenerate SELECT 1 scan:
// row traversal and cleanup semantics without reading any column.
func (b Builder) Project(columns ...string) Builder {
	b.projection = append([]string{}, columns...)
	return b
}

// QueryRoute forces the query path even for unfiltered full-row scans, for
// callers that need query-engine semantics such as committed-read isolation
// via result sets.
func (b Builder) QueryRoute() Builder {
	b.queryRoute = true
	return b
}

// Partitions supplies an explicit partition list, e.g. for collocated
// multi-table scans that must share one partitioning scheme. The resolver
// returns it unchanged.
func (b Builder) Partitions(parts ...*partition.ScanPartition) Builder {
	b.explicit = parts
	return b
}

// PoolConfig sets the connection pool limits.
func (b Builder) PoolConfig(cfg store.PoolConfig) Builder {
	b.poolCfg = cfg
	return b
}

// WithLogger sets the logger. Defaults to a noop logger.
func (b Builder) WithLogger(logger *Logger) Builder {
	b.logger = logger
	return b
}

// WithMetrics sets the metrics collector. Defaults to noop.
func (b Builder) WithMetrics(metrics MetricsCollector) Builder {
	b.metrics = metrics
	return b
}

// Build validates the configuration and creates the Scanner.
func (b Builder) Build() (*Scanner, error) {
	if b.table == "" {
		return nil, errors.New("table name is required")
	}
	if b.schema.Width() == 0 {
		return nil, errors.New("schema must declare at least one column")
	}
	if b.factory == nil {
		return nil, errors.New("connection factory is required")
	}
	if b.meta == nil {
		return nil, errors.New("region metadata accessor is required")
	}
	for _, col := range b.projection {
		if _, ok := b.schema.Ordinal(col); !ok {
			return nil, &ErrUnknownColumn{Column: col}
		}
	}

	logger := b.logger
	if logger == nil {
		logger = NoopLogger()
	}
	metrics := b.metrics
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}

	pools := store.NewPools(b.factory, b.poolCfg)
	s := &Scanner{
		table:       b.table,
		schema:      b.schema,
		filters:     b.filters,
		pred:        filter.Compile(b.filters),
		projection:  b.projection,
		queryRoute:  b.queryRoute,
		localRegion: b.localRegion,
		pools:       pools,
		props:       b.props,
		resolver:    partition.NewResolver(b.meta, pools.For(b.table, b.props)),
		explicit:    b.explicit,
		logger:      logger.WithTable(b.table),
		metrics:     metrics,
	}
	return s, nil
}
