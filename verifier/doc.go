// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

/*
Package verifier implements an IP address verifier with caching in order to
avoid expensive duplicate IP address verification: ePDG deployments often front
multiple operators with the same anycast addresses, so the same address can be
dug up for many different hostnames.

The concrete IP address verification is carried out by a [ping.Pinger].
*/
package verifier
