// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package dnsworker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/miekg/dns"
	"go.uber.org/ratelimit"
)

// ErrNoRecord signals an authoritative negative DNS answer: the queried name
// exists without a record of the queried type, or does not exist at all.
// Lookup errors not wrapping ErrNoRecord are transport-level query failures
// (network errors, timeouts, server failures) instead.
var ErrNoRecord = errors.New("no such record")

// Resolver exposes the per-record-type DNS lookups needed for following CNAME
// chains and collecting addresses. Implementations must be usable from a
// single resolution task at a time; concurrency is provided by pooling
// multiple Resolvers, see [DnsPool].
type Resolver interface {
	// LookupCNAME returns the CNAME target of name, or an error wrapping
	// ErrNoRecord if name is no alias.
	LookupCNAME(ctx context.Context, name string) (string, error)
	// LookupA returns the textual IPv4 addresses of name.
	LookupA(ctx context.Context, name string) ([]string, error)
	// LookupAAAA returns the textual IPv6 addresses of name.
	LookupAAAA(ctx context.Context, name string) ([]string, error)
}

// connResolver queries an upstream DNS server over a single pooled client
// connection.
type connResolver struct {
	clnt    *dns.Client
	conn    *dns.Conn
	limiter ratelimit.Limiter
}

var _ Resolver = (*connResolver)(nil)

// exchange sends a single query for the given name and record type, honoring
// the pool-wide query rate limit.
func (r *connResolver) exchange(ctx context.Context, name string, qtype uint16) (*dns.Msg, error) {
	// don't fire off the query if the context has already been cancelled.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	r.limiter.Take()
	msg := dns.Msg{
		MsgHdr: dns.MsgHdr{Id: dns.Id(), RecursionDesired: true},
	}
	msg.SetQuestion(dns.Fqdn(name), qtype)
	reply, _, err := r.clnt.ExchangeWithConn(&msg, r.conn)
	if err != nil {
		return nil, fmt.Errorf("query %s %s: %w", dns.TypeToString[qtype], name, err)
	}
	switch reply.Rcode {
	case dns.RcodeSuccess:
		return reply, nil
	case dns.RcodeNameError:
		return nil, fmt.Errorf("query %s %s: %w", dns.TypeToString[qtype], name, ErrNoRecord)
	default:
		return nil, fmt.Errorf("query %s %s: server returned %s",
			dns.TypeToString[qtype], name, dns.RcodeToString[reply.Rcode])
	}
}

// LookupCNAME implements [Resolver].
func (r *connResolver) LookupCNAME(ctx context.Context, name string) (string, error) {
	reply, err := r.exchange(ctx, name, dns.TypeCNAME)
	if err != nil {
		return "", err
	}
	for _, rr := range reply.Answer {
		if cname, ok := rr.(*dns.CNAME); ok {
			// normalize the FQDN answer so that chain following compares
			// names in the same dot-less form as the starting hostname.
			return strings.TrimSuffix(cname.Target, "."), nil
		}
	}
	return "", fmt.Errorf("query CNAME %s: %w", name, ErrNoRecord)
}

// LookupA implements [Resolver].
func (r *connResolver) LookupA(ctx context.Context, name string) ([]string, error) {
	reply, err := r.exchange(ctx, name, dns.TypeA)
	if err != nil {
		return nil, err
	}
	var addrs []string
	for _, rr := range reply.Answer {
		if a, ok := rr.(*dns.A); ok {
			addrs = append(addrs, a.A.String())
		}
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("query A %s: %w", name, ErrNoRecord)
	}
	return addrs, nil
}

// LookupAAAA implements [Resolver].
func (r *connResolver) LookupAAAA(ctx context.Context, name string) ([]string, error) {
	reply, err := r.exchange(ctx, name, dns.TypeAAAA)
	if err != nil {
		return nil, err
	}
	var addrs []string
	for _, rr := range reply.Answer {
		if aaaa, ok := rr.(*dns.AAAA); ok {
			addrs = append(addrs, aaaa.AAAA.String())
		}
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("query AAAA %s: %w", name, ErrNoRecord)
	}
	return addrs, nil
}

// Close closes the underlying DNS client connection.
func (r *connResolver) Close() error {
	return r.conn.Close()
}
