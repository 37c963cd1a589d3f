// (c) Siemens AG 2024
//
// SPDX-License-Identifier: MIT

package dig

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/siemens/epdgdig/dnsworker"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
)

// testBatch builds count targets, every third one resolvable in the given
// zone.
func testBatch(z *zone, count int) []ResolutionTarget {
	targets := make([]ResolutionTarget, 0, count)
	for i := 0; i < count; i++ {
		hostname := fmt.Sprintf("epdg.epc.mnc%03d.mcc%03d.pub.3gppnetwork.org", i%1000, 200+i/1000)
		if i%3 == 0 {
			z.a[hostname] = []string{fmt.Sprintf("192.0.2.%d", i%254+1)}
		}
		targets = append(targets, ResolutionTarget{
			Hostname:    hostname,
			CountryCode: fmt.Sprintf("%d", i%100),
			Network:     fmt.Sprintf("Network %d", i),
		})
	}
	return targets
}

func digAll(ctx context.Context, targets []ResolutionTarget, poolsize int, inflight, maxseen *int32, z *zone) *RecordMap {
	digger, news := New(stubPool(z, poolsize, time.Millisecond, inflight, maxseen))
	recmap := NewRecordMap()
	trackdone := make(chan struct{})
	go func() {
		defer GinkgoRecover()
		Expect(recmap.Track(ctx, news)).To(Succeed())
		close(trackdone)
	}()
	digger.DigTargets(ctx, targets)
	digger.StopWait()
	Eventually(trackdone).Within(10 * time.Second).Should(BeClosed())
	return recmap
}

var _ = Describe("digging batches of ePDG hostnames", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(3 * time.Second).WithPolling(250 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
	})

	It("produces exactly one record per target under the concurrency ceiling", func(ctx context.Context) {
		const numTargets = 200
		const ceiling = 32

		z := &zone{a: map[string][]string{}}
		targets := testBatch(z, numTargets)
		var inflight, maxseen int32
		recmap := digAll(ctx, targets, ceiling, &inflight, &maxseen, z)

		Expect(recmap.Len()).To(Equal(numTargets))
		Expect(maxseen).To(BeNumerically("<=", ceiling),
			"admission gate violated: %d concurrent lookups", maxseen)
		Expect(inflight).To(BeZero())
	})

	It("yields identical records regardless of task interleaving", func(ctx context.Context) {
		z := &zone{a: map[string][]string{}}
		targets := testBatch(z, 90)

		first := digAll(ctx, targets, 32, nil, nil, z).Records()
		second := digAll(ctx, targets, 7, nil, nil, z).Records()
		Expect(second).To(Equal(first))

		// Records come back sorted by hostname.
		for i := 1; i < len(first); i++ {
			Expect(first[i-1].Hostname < first[i].Hostname).To(BeTrue())
		}
	})

	It("works with a ceiling of one", func(ctx context.Context) {
		z := &zone{a: map[string][]string{}}
		targets := testBatch(z, 10)
		var inflight, maxseen int32
		recmap := digAll(ctx, targets, 1, &inflight, &maxseen, z)
		Expect(recmap.Len()).To(Equal(10))
		Expect(maxseen).To(Equal(int32(1)))
	})

	It("lists exactly the hostnames with at least one address as valid", func(ctx context.Context) {
		z := &zone{a: map[string][]string{}}
		targets := testBatch(z, 30)
		recmap := digAll(ctx, targets, 8, nil, nil, z)

		valid := recmap.ValidHostnames()
		Expect(valid).To(HaveLen(10)) // every third target resolvable
		for i := 1; i < len(valid); i++ {
			Expect(valid[i-1] < valid[i]).To(BeTrue(), "valid hostnames must be sorted")
		}
		for _, rec := range recmap.Records() {
			if rec.Valid() {
				Expect(valid).To(ContainElement(rec.Hostname))
			} else {
				Expect(valid).NotTo(ContainElement(rec.Hostname))
				Expect(rec.Addresses).To(BeEmpty())
			}
		}
	})

	It("reports count-based progress per completed target", func(ctx context.Context) {
		z := &zone{a: map[string][]string{}}
		targets := testBatch(z, 25)

		var calls atomic.Int64
		var final atomic.Int64
		digger, news := New(
			stubPool(z, 4, 0, nil, nil),
			WithProgress(func(completed, total int) {
				calls.Add(1)
				if completed == total {
					final.Store(int64(completed))
				}
			}))
		recmap := NewRecordMap()
		trackdone := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			Expect(recmap.Track(ctx, news)).To(Succeed())
			close(trackdone)
		}()
		digger.DigTargets(ctx, targets)
		digger.StopWait()
		Eventually(trackdone).Within(10 * time.Second).Should(BeClosed())

		Expect(calls.Load()).To(Equal(int64(25)))
		Expect(final.Load()).To(Equal(int64(25)))
	})

	It("keeps going when every single query fails", func(ctx context.Context) {
		pool := dnsworker.NewWithResolvers([]dnsworker.Resolver{
			failingResolver{}, failingResolver{}, failingResolver{},
		})
		digger, news := New(pool)
		targets := []ResolutionTarget{
			{Hostname: "a.example"}, {Hostname: "b.example"}, {Hostname: "c.example"},
			{Hostname: "d.example"}, {Hostname: "e.example"},
		}
		recmap := NewRecordMap()
		trackdone := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			Expect(recmap.Track(ctx, news)).To(Succeed())
			close(trackdone)
		}()
		digger.DigTargets(ctx, targets)
		digger.StopWait()
		Eventually(trackdone).Within(10 * time.Second).Should(BeClosed())

		Expect(recmap.Len()).To(Equal(len(targets)))
		Expect(recmap.ValidHostnames()).To(BeEmpty())
	})

})
