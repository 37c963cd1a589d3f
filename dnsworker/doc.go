// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

/*
Package dnsworker implements a simple limiting DNS client-request execution
pool. epdgdig uses [DnsPool] with a pool of “DNS workers” for CNAME, A, and
AAAA lookups. The pool size is also the hard ceiling on concurrently active
resolution tasks: a submitted task runs only once one of the pooled resolver
connections becomes free.

Usage

	dnsclnt := dns.Client{Net: "tcp"}
	pool, err := dnsworker.New(
	    context.Background(),
	    32,                   // number of parallel DNS connections and thus workers
	    &dnsclnt,             // DNS client
	    "9.9.9.9:53",         // address of server/resolver
	)
	pool.Submit(func(r dnsworker.Resolver) {
	    target, err := r.LookupCNAME(ctx, "epdg.epc.mnc002.mcc262.pub.3gppnetwork.org")
	    // ...
	})
	pool.StopWait()

Lookups distinguish authoritative negative answers ([ErrNoRecord]) from
transport-level query failures (any other error), see [Resolver].

# Acknowledgements

Under its hood, [DnsPool] leverages [gammazero/workerpool] as the limiting
goroutine pool.

[gammazero/workerpool]: https://github.com/gammazero/workerpool
*/
package dnsworker
