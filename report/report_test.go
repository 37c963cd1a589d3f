// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package report

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/siemens/epdgdig/dig"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("resolution reports", func() {

	records := []dig.ResolutionRecord{
		{
			Hostname:    "epdg.epc.mnc002.mcc262.pub.3gppnetwork.org",
			Addresses:   []string{"10.0.0.1", "10.0.0.2"},
			CountryCode: "49",
			Network:     "Vodafone GmbH",
		},
		{
			Hostname:    "epdg.epc.mnc001.mcc262.pub.3gppnetwork.org",
			Addresses:   nil,
			CountryCode: "49",
			Network:     "Telekom Deutschland GmbH",
		},
	}

	It("round-trips records through the CSV format", func() {
		var sb strings.Builder
		Expect(WriteCSV(&sb, records)).To(Succeed())

		parsed := Successful(ReadCSV(strings.NewReader(sb.String())))
		Expect(parsed).To(HaveLen(2))
		withAddrs := parsed[1]
		Expect(withAddrs.Hostname).To(Equal("epdg.epc.mnc002.mcc262.pub.3gppnetwork.org"))
		Expect(withAddrs.Addresses).To(ConsistOf("10.0.0.1", "10.0.0.2"))
		Expect(withAddrs.Network).To(Equal("Vodafone GmbH"))
	})

	It("sorts rows alphanumerically by hostname", func() {
		var sb strings.Builder
		Expect(WriteCSV(&sb, records)).To(Succeed())

		lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
		Expect(lines[0]).To(Equal("Hostname,IPAddresses,CountryCode,Network"))
		Expect(lines[1]).To(HavePrefix("epdg.epc.mnc001.mcc262"))
		Expect(lines[2]).To(HavePrefix("epdg.epc.mnc002.mcc262"))
	})

	It("keeps unresolved hostnames in the report with an empty address field", func() {
		var sb strings.Builder
		Expect(WriteCSV(&sb, records)).To(Succeed())
		parsed := Successful(ReadCSV(strings.NewReader(sb.String())))
		Expect(parsed[0].Hostname).To(Equal("epdg.epc.mnc001.mcc262.pub.3gppnetwork.org"))
		Expect(parsed[0].Addresses).To(BeEmpty())
	})

	It("writes the valid names sorted, one per line", func() {
		var sb strings.Builder
		Expect(WriteValidNames(&sb, []string{"b.example", "a.example"})).To(Succeed())
		Expect(sb.String()).To(Equal("a.example\nb.example\n"))
	})

	It("names output directories after filter and timestamp", func() {
		now := time.Date(2024, 5, 17, 13, 37, 42, 0, time.UTC)
		Expect(OutputDir("", "49", now)).To(Equal("output_49_2024-05-17_13-37-42"))
		Expect(OutputDir("/tmp", "", now)).To(Equal("/tmp/output_2024-05-17_13-37-42"))
	})

	It("saves the report files into the output directory", func() {
		dir := filepath.Join(GinkgoT().TempDir(), "output_test")
		Expect(Save(dir, records, []string{"epdg.epc.mnc002.mcc262.pub.3gppnetwork.org"})).To(Succeed())

		Expect(Successful(os.ReadFile(filepath.Join(dir, ResultsFile)))).NotTo(BeEmpty())
		valid := Successful(os.ReadFile(filepath.Join(dir, ValidNamesFile)))
		Expect(string(valid)).To(Equal("epdg.epc.mnc002.mcc262.pub.3gppnetwork.org\n"))
	})

})
