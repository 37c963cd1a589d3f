// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package verifier

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/siemens/epdgdig/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
)

// stubValidator declares every address ending in ".1" verified and everything
// else invalid, counting the validations it was asked for.
type stubValidator struct {
	mu        sync.Mutex
	validated []string
	verdicts  chan types.QualifiedAddress
}

func newStubValidator() *stubValidator {
	return &stubValidator{
		verdicts: make(chan types.QualifiedAddress, 16),
	}
}

func (v *stubValidator) Validate(ctx context.Context, addr string) {
	v.mu.Lock()
	v.validated = append(v.validated, addr)
	v.mu.Unlock()
	q := types.Invalid
	if strings.HasSuffix(addr, ".1") {
		q = types.Verified
	}
	v.verdicts <- types.QualifiedAddress{Address: addr, Quality: q}
}

func (v *stubValidator) StopWait() {
	close(v.verdicts)
}

func (v *stubValidator) validations() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.validated...)
}

var _ = Describe("verifying named addresses", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(3 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
	})

	It("verifies each distinct address only once", func(ctx context.Context) {
		validator := newStubValidator()
		verifier, news := NewWithValidator(4, validator, validator.verdicts)

		in := make(chan types.NamedAddress, 8)
		verifydone := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			verifier.Verify(ctx, in)
			close(verifydone)
		}()

		// two hostnames sharing one address, plus a distinct one.
		in <- types.NamedAddress{
			Hostname:         "epdg.epc.mnc001.mcc262.pub.3gppnetwork.org",
			QualifiedAddress: types.QualifiedAddress{Address: "192.0.2.1"},
		}
		in <- types.NamedAddress{
			Hostname:         "epdg.epc.mnc002.mcc262.pub.3gppnetwork.org",
			QualifiedAddress: types.QualifiedAddress{Address: "192.0.2.1"},
		}
		in <- types.NamedAddress{
			Hostname:         "epdg.epc.mnc030.mcc234.pub.3gppnetwork.org",
			QualifiedAddress: types.QualifiedAddress{Address: "192.0.2.66"},
		}
		close(in)

		updates := map[string]types.Quality{}
		for na := range news {
			if !na.Quality.IsPending() {
				updates[na.Hostname+"/"+na.Address] = na.Quality
			}
		}
		Eventually(verifydone).Within(5 * time.Second).Should(BeClosed())

		Expect(validator.validations()).To(ConsistOf("192.0.2.1", "192.0.2.66"),
			"shared address must be validated exactly once")
		Expect(updates).To(HaveKeyWithValue(
			"epdg.epc.mnc001.mcc262.pub.3gppnetwork.org/192.0.2.1", types.Verified))
		Expect(updates).To(HaveKeyWithValue(
			"epdg.epc.mnc002.mcc262.pub.3gppnetwork.org/192.0.2.1", types.Verified))
		Expect(updates).To(HaveKeyWithValue(
			"epdg.epc.mnc030.mcc234.pub.3gppnetwork.org/192.0.2.66", types.Invalid))
	})

	It("winds down cleanly when cancelled", func(ctx context.Context) {
		ctx, cancel := context.WithCancel(ctx)
		validator := newStubValidator()
		verifier, news := NewWithValidator(1, validator, validator.verdicts)

		in := make(chan types.NamedAddress)
		verifydone := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			verifier.Verify(ctx, in)
			close(verifydone)
		}()
		cancel()
		Eventually(verifydone).Within(5 * time.Second).Should(BeClosed())
		Eventually(news).Should(BeClosed())
	})

})
