package storage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrPoolClosed is returned by Acquire after Close
var ErrPoolClosed = errors.New("storage pool closed")

// Pool hands out a bounded number of connections to a shared Backend.
// Every Acquire must be paired with exactly one Release, normally via
// defer right after the Acquire succeeds.
type Pool struct {
	backend Backend
	slots   chan struct{} // one token per connection in use
	closed  atomic.Bool

	acquires atomic.Uint64
	releases atomic.Uint64
}

// PoolStats is a point-in-time view of pool usage
type PoolStats struct {
	Size     int    `json:"size"`
	InUse    int    `json:"in_use"`
	Acquires uint64 `json:"acquires"`
	Releases uint64 `json:"releases"`
}

// NewPool creates a pool allowing size concurrent connections to b.
// A size below 1 is treated as 1.
func NewPool(b Backend, size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		backend: b,
		slots:   make(chan struct{}, size),
	}
}

// Acquire blocks until a connection is free, ctx is done, or the pool
// is closed
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if p.closed.Load() {
		<-p.slots
		return nil, ErrPoolClosed
	}
	p.acquires.Add(1)
	return &Conn{Backend: p.backend, pool: p}, nil
}

// Close stops handing out connections. Connections already acquired
// stay usable until released.
func (p *Pool) Close() {
	p.closed.Store(true)
}

// Stats returns current pool usage
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Size:     cap(p.slots),
		InUse:    len(p.slots),
		Acquires: p.acquires.Load(),
		Releases: p.releases.Load(),
	}
}

// Conn is one acquired connection. It exposes the full Backend contract
// until released.
type Conn struct {
	Backend
	pool *Pool
	once sync.Once
}

// Release returns the connection to its pool. Extra calls are no-ops.
func (c *Conn) Release() {
	c.once.Do(func() {
		<-c.pool.slots
		c.pool.releases.Add(1)
	})
}
