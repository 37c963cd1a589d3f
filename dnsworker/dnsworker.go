// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package dnsworker

import (
	"context"
	"io"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/miekg/dns"
	"go.uber.org/ratelimit"
)

// DnsPool is a (size-limited) pool of DNS client connections talking with the
// same DNS resolver address. The pool size is the admission gate: at most size
// submitted tasks run concurrently, each with exclusive use of one pooled
// [Resolver].
type DnsPool struct {
	workers *workerpool.WorkerPool
	limiter ratelimit.Limiter
	mu      sync.Mutex // protects the pool of free resolvers
	free    []Resolver
}

// DnsPoolOption can be passed to New when creating new [DnsPool] objects.
type DnsPoolOption func(*DnsPool)

// WithQueryRate limits the total number of DNS queries per second issued
// across all pooled connections. A rate of zero or less leaves queries
// unpaced.
func WithQueryRate(qps int) DnsPoolOption {
	return func(p *DnsPool) {
		if qps > 0 {
			p.limiter = ratelimit.New(qps)
		}
	}
}

// New returns a pool of the specified size of DNS client connections, with
// each connection using the specified context and talking to the same DNS
// resolver address.
//
// Tasks are submitted using [DnsPool.Submit] in form of task functions
// receiving a concrete [Resolver].
//
// The passed context is used for creating (dialing) the DNS client connections
// only. It is not directly passed to the submitted tasks, so task submitters
// are themselves responsible for capturing the necessary context in their task
// function closure.
func New(ctx context.Context, size int, dnsclnt *dns.Client, addr string, options ...DnsPoolOption) (*DnsPool, error) {
	free := make([]Resolver, 0, size)
	pool := newPool(size, options...)
	for i := 0; i < size; i++ {
		conn, err := dnsclnt.DialContext(ctx, addr)
		if err != nil {
			// Immediately release all connections created so far.
			for _, r := range free {
				r.(io.Closer).Close()
			}
			return nil, err
		}
		free = append(free, &connResolver{clnt: dnsclnt, conn: conn, limiter: pool.limiter})
	}
	pool.free = free
	return pool, nil
}

// NewWithResolvers returns a pool working on the specified pre-built
// resolvers; the pool size and thus the concurrency ceiling is the number of
// resolvers passed in. It is used by tests to run the pool against stub
// resolvers without dialing any DNS server.
func NewWithResolvers(resolvers []Resolver, options ...DnsPoolOption) *DnsPool {
	pool := newPool(len(resolvers), options...)
	pool.free = resolvers
	return pool
}

func newPool(size int, options ...DnsPoolOption) *DnsPool {
	pool := &DnsPool{
		workers: workerpool.New(size),
		limiter: ratelimit.NewUnlimited(),
	}
	for _, opt := range options {
		opt(pool)
	}
	return pool
}

// Submit a task to the DNS client connection pool, where it gets enqueued to
// be executed as soon as one of the pooled resolvers becomes available.
func (p *DnsPool) Submit(task func(r Resolver)) {
	p.workers.Submit(func() { p.task(task) })
}

// task grabs the next free resolver and passes it to the specified function.
// After the function returns, the resolver is put back into the free list.
func (p *DnsPool) task(task func(r Resolver)) {
	// pop off a free resolver,
	// https://ueokande.github.io/go-slice-tricks/,
	p.mu.Lock()
	if len(p.free) == 0 {
		panic("no free DNS resolver available")
	}
	last := len(p.free) - 1
	r := p.free[last]
	p.free = p.free[:last]
	p.mu.Unlock()
	// run the task with its assigned resolver...
	task(r)
	// ...and push the resolver back into the free list.
	p.mu.Lock()
	p.free = append(p.free, r)
	p.mu.Unlock()
}

// StopWait waits for all enqueued resolution tasks to finish, and then shuts
// down the pool, closing all pooled connections.
func (p *DnsPool) StopWait() {
	p.workers.StopWait()
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.free {
		if closer, ok := r.(io.Closer); ok {
			closer.Close()
		}
	}
	p.free = nil
}
