// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

/*
Package ping implements an ICMP(v4/v6)-based IP address (in)validator for the
addresses dug up for ePDG hostnames.

[Pinger] objects support concurrent IP address validation jobs with maximum
goroutine limits. Individual ping verdicts are streamed as they are decided, to
a channel returned when creating a new Pinger object. A verdict is a
[types.QualifiedAddress] with its [types.Quality] set to [types.Verified] or
[types.Invalid]; a Pinger additionally emits any newly submitted address with
quality [types.Verifying] before it undergoes verification, so that interactive
clients can early show all enqueued verifications.

# Acknowledgements

Under its hood, [Pinger] leverages [gammazero/workerpool] as the limiting
goroutine pool and [go-ping/ping] for the actual ICMP business.

[gammazero/workerpool]: https://github.com/gammazero/workerpool
[go-ping/ping]: https://github.com/go-ping/ping
*/
package ping
