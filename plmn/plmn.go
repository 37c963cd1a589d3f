// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

// Package plmn models public land mobile network (PLMN) identities, consisting
// of a mobile country code (MCC) and a mobile network code (MNC), and derives
// the standardized ePDG hostnames for them.
package plmn

import (
	"fmt"
	"strconv"
	"strings"
)

// PLMN identifies a public land mobile network by its mobile country code and
// mobile network code.
type PLMN struct {
	MCC int // mobile country code
	MNC int // mobile network code
}

// Parse returns the PLMN for the given MCC and MNC in textual form, as they
// appear in operator tables. Leading zeros and surrounding whitespace are
// accepted ("01" and "001" denote the same MNC).
func Parse(mcc, mnc string) (PLMN, error) {
	c, err := strconv.Atoi(strings.TrimSpace(mcc))
	if err != nil {
		return PLMN{}, fmt.Errorf("invalid MCC %q: %w", mcc, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(mnc))
	if err != nil {
		return PLMN{}, fmt.Errorf("invalid MNC %q: %w", mnc, err)
	}
	return PLMN{MCC: c, MNC: n}, nil
}

// EPDGHostname returns the hostname of the operator's evolved packet data
// gateway, following the naming convention of 3GPP TS 23.003: both the MNC and
// the MCC are zero-padded to three digits.
func (p PLMN) EPDGHostname() string {
	return fmt.Sprintf("epdg.epc.mnc%03d.mcc%03d.pub.3gppnetwork.org", p.MNC, p.MCC)
}
