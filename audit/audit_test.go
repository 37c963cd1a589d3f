// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("audit log", func() {

	It("serializes concurrent appends without losing or interleaving lines", func() {
		var sb strings.Builder
		log := New(&sb)

		const writers = 16
		const linesPerWriter = 50
		var wg sync.WaitGroup
		wg.Add(writers)
		for w := 0; w < writers; w++ {
			go func(w int) {
				defer wg.Done()
				for i := 0; i < linesPerWriter; i++ {
					log.Printf("writer %d line %d", w, i)
				}
			}(w)
		}
		wg.Wait()
		Expect(log.Close()).To(Succeed())

		lines := strings.Split(strings.TrimSuffix(sb.String(), "\n"), "\n")
		Expect(lines).To(HaveLen(writers * linesPerWriter))
		for _, line := range lines {
			Expect(line).To(MatchRegexp(`^writer \d+ line \d+$`))
		}
	})

	It("appends to a log file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "name_resolution_log.log")
		log := Successful(NewFile(path))
		log.Printf("%s is a CNAME for %s", "a.example", "b.example")
		log.Printf("No CNAME record for %s: %v", "b.example", fmt.Errorf("no such record"))
		Expect(log.Close()).To(Succeed())

		contents := Successful(os.ReadFile(path))
		Expect(string(contents)).To(Equal(
			"a.example is a CNAME for b.example\n" +
				"No CNAME record for b.example: no such record\n"))
	})

})
