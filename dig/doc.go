// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

/*
Package dig implements the ePDG hostname resolution core: following a
hostname's CNAME chain until a terminal name is reached (with cycle
protection), collecting the terminal name's A and AAAA records, and doing so
for whole batches of hostnames under a hard concurrency ceiling.

A [Digger] fans resolution tasks out over a [dnsworker.DnsPool]; the pool size
is the admission gate, so at most that many chain resolutions are active at any
instant. Every target produces exactly one [ResolutionRecord] on the Digger's
news channel, regardless of resolution success or failure; a [RecordMap]
consumes the channel and aggregates the records into the sorted, deterministic
report view.

Digging is implemented in pure Go, leveraging the incredible Go module
[miekg/dns].

[miekg/dns]: https://github.com/miekg/dns
*/
package dig
