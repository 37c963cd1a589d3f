// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

/*
Package types defines epdgdig's information model, which revolves around
[QualifiedAddress] and [NamedAddress], as well as the verification [Quality] of
addresses. A [NamedAddress] is a [QualifiedAddress] together with the ePDG
hostname the address was resolved for.

All pipeline stages exchange these types by value over channels, so there is no
shared mutable state to guard: a stage that wants to change the quality of an
address derives a new value using [QualifiedAddress.WithQuality].
*/
package types
