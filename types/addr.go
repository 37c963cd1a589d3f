// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package types

// QualifiedAddress is a network address with an associated quality, such as
// unverified, verifying, verified, and invalid.
type QualifiedAddress struct {
	Address string  `json:"address"` // a single network IP (v4/v6) address
	Quality Quality `json:"quality"` // quality (verification) state
	Err     error   `json:"-"`       // optional error details for invalid addresses
}

// WithQuality returns a copy of the qualified address with the specified new
// quality and optional error detail.
func (qa QualifiedAddress) WithQuality(q Quality, err error) QualifiedAddress {
	qa.Quality = q
	qa.Err = err
	return qa
}

// NamedAddress is a [QualifiedAddress] together with the ePDG hostname it was
// resolved for.
type NamedAddress struct {
	Hostname         string `json:"hostname"` // the DNS "name"
	QualifiedAddress        // a single associated (resolved) IP network address
}

// WithQuality returns a copy of the named address with the specified new
// quality and optional error detail.
func (na NamedAddress) WithQuality(q Quality, err error) NamedAddress {
	na.QualifiedAddress = na.QualifiedAddress.WithQuality(q, err)
	return na
}
