// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package dig

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/siemens/epdgdig/audit"
	"github.com/siemens/epdgdig/dnsworker"
)

// ResolutionTarget is one hostname to be resolved, together with the operator
// metadata carried through into the final report. Targets are immutable.
type ResolutionTarget struct {
	Hostname    string `json:"hostname"`
	CountryCode string `json:"country_code"`
	Network     string `json:"network"`
}

// ResolutionRecord is the outcome of resolving one target: the (possibly
// empty) list of addresses dug up for the hostname, A records first, then
// AAAA. Exactly one record is produced per target, regardless of resolution
// success or failure.
type ResolutionRecord struct {
	Hostname    string   `json:"hostname"`
	Addresses   []string `json:"addresses"`
	CountryCode string   `json:"country_code"`
	Network     string   `json:"network"`
}

// Valid returns true if at least one address was resolved for the hostname.
func (rec ResolutionRecord) Valid() bool {
	return len(rec.Addresses) > 0
}

// Digger digs the IPv4 and IPv6 addresses of ePDG hostnames, following CNAME
// chains, and then streams one [ResolutionRecord] per target over its “news”
// channel. The size of its worker pool is the hard ceiling on concurrently
// active chain resolutions.
type Digger struct {
	workers   *dnsworker.DnsPool
	news      chan ResolutionRecord
	log       *audit.Log
	ownlog    bool // the Digger created its own (discarding) audit log.
	progress  func(completed, total int)
	completed atomic.Int64
}

// DiggerOption can be passed to New when creating new [Digger]
// objects.
type DiggerOption func(*Digger)

// WithAuditLog directs the Digger's per-query audit lines to the specified
// log. Without this option, audit lines are discarded.
func WithAuditLog(log *audit.Log) DiggerOption {
	return func(d *Digger) {
		d.log = log
	}
}

// WithProgress registers a callback invoked after each completed target with
// the number of targets completed so far and the total of the current batch.
// The callback is observational only: it is called from worker goroutines and
// must not block for long.
func WithProgress(fn func(completed, total int)) DiggerOption {
	return func(d *Digger) {
		d.progress = fn
	}
}

// New returns a new Digger working on the specified DNS worker pool, as well
// as its “news stream”. The pool size is the concurrency ceiling of the
// Digger. The news channel sends one ResolutionRecord per target as
// resolutions complete; please note that the news channel is only closed by
// [Digger.StopWait]. Tests run the Digger against stub resolvers, see
// [dnsworker.NewWithResolvers].
func New(pool *dnsworker.DnsPool, options ...DiggerOption) (*Digger, <-chan ResolutionRecord) {
	news := make(chan ResolutionRecord, 128)
	d := &Digger{
		workers: pool,
		news:    news,
	}
	for _, opt := range options {
		opt(d)
	}
	if d.log == nil {
		d.log = audit.New(io.Discard)
		d.ownlog = true
	}
	return d, news
}

// DigTargets digs the given batch of resolution targets. Each target is
// enqueued onto the worker pool and processed by exactly one chain resolution;
// results are getting sent to the channel returned beforehand by New. DigTargets
// only enqueues and returns immediately; use [Digger.StopWait] to join on the
// whole batch.
func (d *Digger) DigTargets(ctx context.Context, targets []ResolutionTarget) {
	total := len(targets)
	for _, target := range targets {
		target := target
		d.workers.Submit(func(r dnsworker.Resolver) {
			chain := resolveChain(ctx, r, target.Hostname, d.log)
			rec := ResolutionRecord{
				Hostname:    target.Hostname,
				Addresses:   chain.Addresses,
				CountryCode: target.CountryCode,
				Network:     target.Network,
			}
			// Avoid blocking endlessly in case of the context getting
			// cancelled while the consumer has gone away.
			select {
			case d.news <- rec:
			case <-ctx.Done():
				return
			}
			if d.progress != nil {
				d.progress(int(d.completed.Add(1)), total)
			}
		})
	}
}

// StopWait waits for all queued resolution tasks to get processed and then
// finally closes the news channel.
func (d *Digger) StopWait() {
	d.workers.StopWait()
	if d.ownlog {
		_ = d.log.Close()
	}
	close(d.news)
}
