// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package source

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

const operatorTable = `MCC,MNC,ISO,Country,Country Code,Network
262,01,de,Germany,49,Telekom Deutschland GmbH
262,02,de,Germany,49,Vodafone GmbH
234,30,gb,United Kingdom,44,EE Limited
999,xx,zz,Nowhere,0,Bogus Networks
`

var _ = Describe("operator tables", func() {

	It("loads operator rows from CSV", func() {
		operators := Successful(Load(strings.NewReader(operatorTable)))
		Expect(operators).To(HaveLen(4))
		Expect(operators[0]).To(Equal(Operator{
			MCC:         "262",
			MNC:         "01",
			ISO:         "de",
			Country:     "Germany",
			CountryCode: "49",
			Network:     "Telekom Deutschland GmbH",
		}))
	})

	It("rejects tables without the required columns", func() {
		Expect(Load(strings.NewReader("MCC,MNC\n262,01\n"))).Error().
			To(MatchError(ContainSubstring("lacks")))
	})

	It("filters by country code", func() {
		operators := Successful(Load(strings.NewReader(operatorTable)))
		Expect(FilterByCountryCode(operators, "44")).To(ConsistOf(
			HaveField("Network", "EE Limited")))
		Expect(FilterByCountryCode(operators, "")).To(HaveLen(4))
	})

	It("derives resolution targets with canonical ePDG hostnames", func() {
		operators := Successful(Load(strings.NewReader(operatorTable)))
		targets := Targets(operators)
		Expect(targets).To(HaveLen(3), "operators with malformed codes are skipped")
		Expect(targets[0].Hostname).To(Equal("epdg.epc.mnc001.mcc262.pub.3gppnetwork.org"))
		Expect(targets[1].Hostname).To(Equal("epdg.epc.mnc002.mcc262.pub.3gppnetwork.org"))
		Expect(targets[2].Hostname).To(Equal("epdg.epc.mnc030.mcc234.pub.3gppnetwork.org"))
		Expect(targets[2].CountryCode).To(Equal("44"))
		Expect(targets[2].Network).To(Equal("EE Limited"))
	})

})
