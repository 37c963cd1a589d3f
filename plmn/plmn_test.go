// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package plmn

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("PLMN identities", func() {

	It("derives standardized ePDG hostnames", func() {
		Expect(PLMN{MCC: 262, MNC: 2}.EPDGHostname()).To(
			Equal("epdg.epc.mnc002.mcc262.pub.3gppnetwork.org"))
		Expect(PLMN{MCC: 310, MNC: 410}.EPDGHostname()).To(
			Equal("epdg.epc.mnc410.mcc310.pub.3gppnetwork.org"))
	})

	It("parses textual MCC/MNC pairs", func() {
		Expect(Successful(Parse("262", "02"))).To(Equal(PLMN{MCC: 262, MNC: 2}))
		Expect(Successful(Parse(" 234", "30 "))).To(Equal(PLMN{MCC: 234, MNC: 30}))
	})

	It("rejects malformed codes", func() {
		Expect(Parse("abc", "01")).Error().To(HaveOccurred())
		Expect(Parse("262", "")).Error().To(HaveOccurred())
	})

})
