package store

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrPoolClosed is returned when acquiring from a closed pool.
var ErrPoolClosed = errors.New("connection pool is closed")

// PoolConfig holds pool limits.
type PoolConfig struct {
	// MaxOpen is the maximum number of connections open at once.
	// If 0, defaults to 8.
	MaxOpen int64

	// MaxIdle is the maximum number of idle connections retained for reuse.
	// If 0, defaults to MaxOpen.
	MaxIdle int

	// AcquiresPerSec throttles how fast new acquisitions may proceed.
	// If 0, unlimited.
	AcquiresPerSec float64
}

// Pool is a bounded pool of row-store connections for one (table, dialect,
// properties) key. Acquisition blocks while the pool is at capacity and is
// optionally rate limited; released connections are reused LIFO.
//
// The pool owns concurrency limits. Its callers' only obligation is to
// release every acquired connection exactly once.
type Pool struct {
	factory Factory
	cfg     PoolConfig

	sem     *semaphore.Weighted
	limiter *rate.Limiter // nil if unlimited

	mu     sync.Mutex
	idle   []Conn
	closed bool
}

// NewPool creates a pool producing connections from factory.
func NewPool(factory Factory, cfg PoolConfig) *Pool {
	if cfg.MaxOpen <= 0 {
		cfg.MaxOpen = 8
	}
	if cfg.MaxIdle <= 0 {
		cfg.MaxIdle = int(cfg.MaxOpen)
	}

	p := &Pool{
		factory: factory,
		cfg:     cfg,
		sem:     semaphore.NewWeighted(cfg.MaxOpen),
	}
	if cfg.AcquiresPerSec > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.AcquiresPerSec), 1)
	}
	return p
}

// Acquire returns a pooled connection, blocking until capacity is available
// or ctx is canceled.
func (p *Pool) Acquire(ctx context.Context) (*PooledConn, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.sem.Release(1)
		return nil, ErrPoolClosed
	}
	var conn Conn
	if n := len(p.idle); n > 0 {
		conn = p.idle[n-1]
		p.idle = p.idle[:n-1]
	}
	p.mu.Unlock()

	if conn == nil {
		c, err := p.factory(ctx)
		if err != nil {
			p.sem.Release(1)
			return nil, err
		}
		conn = c
	}

	return &PooledConn{Conn: conn, pool: p}, nil
}

// put returns a connection to the idle list, closing it if the pool is
// closed or idle capacity is exhausted.
func (p *Pool) put(conn Conn) error {
	p.mu.Lock()
	if !p.closed && len(p.idle) < p.cfg.MaxIdle {
		p.idle = append(p.idle, conn)
		p.mu.Unlock()
		p.sem.Release(1)
		return nil
	}
	p.mu.Unlock()
	p.sem.Release(1)
	return conn.Close()
}

// Close closes the pool and all idle connections. Connections currently
// checked out are closed as they are released.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	var firstErr error
	for _, conn := range idle {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PooledConn is a connection checked out of a Pool. Release returns it to
// the pool and is idempotent; exactly one release takes effect no matter how
// many exit paths race to it.
type PooledConn struct {
	Conn
	pool *Pool

	releaseOnce sync.Once
	releaseErr  error
}

// Release returns the connection to its pool.
func (c *PooledConn) Release() error {
	c.releaseOnce.Do(func() {
		c.releaseErr = c.pool.put(c.Conn)
	})
	return c.releaseErr
}

// PoolKey identifies one pool within a registry.
type PoolKey struct {
	Table   string
	Dialect string
	Props   string
}

// Pools is a registry of connection pools keyed by table identity and
// connection properties.
type Pools struct {
	factory Factory
	cfg     PoolConfig

	mu sync.Mutex
	m  map[PoolKey]*Pool
}

// NewPools creates a pool registry. Every pool it creates shares factory
// and cfg.
func NewPools(factory Factory, cfg PoolConfig) *Pools {
	return &Pools{
		factory: factory,
		cfg:     cfg,
		m:       make(map[PoolKey]*Pool),
	}
}

// For returns the pool for (table, props), creating it on first use.
func (ps *Pools) For(table string, props ConnProps) *Pool {
	key := PoolKey{Table: table, Dialect: props.Dialect, Props: props.Key()}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	if p, ok := ps.m[key]; ok {
		return p
	}
	p := NewPool(ps.factory, ps.cfg)
	ps.m[key] = p
	return p
}

// Close closes every pool in the registry.
func (ps *Pools) Close() error {
	ps.mu.Lock()
	pools := make([]*Pool, 0, len(ps.m))
	for _, p := range ps.m {
		pools = append(pools, p)
	}
	ps.m = make(map[PoolKey]*Pool)
	ps.mu.Unlock()

	var firstErr error
	for _, p := range pools {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
