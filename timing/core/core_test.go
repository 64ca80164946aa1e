package core_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vmemsim/loader"
	"github.com/sarchlab/vmemsim/timing/core"
	"github.com/sarchlab/vmemsim/timing/latency"
	"github.com/sarchlab/vmemsim/vmem"
)

var _ = Describe("Core", func() {
	var (
		config *latency.TimingConfig
		c      *core.Core
	)

	BeforeEach(func() {
		config = latency.DefaultTimingConfig()
		config.TLBEntries = 2
		c = core.NewCore(config)
	})

	It("should panic on an invalid config", func() {
		config.TLBEntries = 0
		Expect(func() { core.NewCore(config) }).To(Panic())
	})

	Describe("Translate", func() {
		It("should walk the page table on a TLB miss", func() {
			result := c.Translate(0, 0x5123)

			Expect(result.TLBHit).To(BeFalse())
			Expect(result.PTECacheHit).To(BeFalse())
			Expect(result.PFN).To(Equal(c.Translator().Translate(5, 0)))
			Expect(result.PAddr).To(Equal(vmem.PhysAddr(result.PFN, 0x123)))
			Expect(result.PTE).To(Equal(result.PFN))
			Expect(result.Latency).To(Equal(uint64(101)))
		})

		It("should hit after the walk", func() {
			first := c.Translate(1, 0x5000)
			second := c.Translate(1, 0x5FFF)

			Expect(second.TLBHit).To(BeTrue())
			Expect(second.PFN).To(Equal(first.PFN))
			Expect(second.PTE).To(BeZero())
			Expect(second.Latency).To(Equal(uint64(1)))
		})

		It("should serve neighbouring PTEs from the page-walk cache", func() {
			c.Translate(0, 0x8000)
			result := c.Translate(0, 0x9000)

			Expect(result.TLBHit).To(BeFalse())
			Expect(result.PTECacheHit).To(BeTrue())
			Expect(result.PTE).To(Equal(c.Translator().Translate(9, 0)))
			Expect(result.PFN).To(Equal(result.PTE))
			Expect(result.Latency).To(Equal(uint64(5)))
		})

		It("should go to memory when the page-walk cache is disabled", func() {
			config.PTECacheSize = 0
			c = core.NewCore(config)

			c.Translate(0, 0x8000)
			result := c.Translate(0, 0x9000)
			Expect(result.PTECacheHit).To(BeFalse())
			Expect(result.PTE).To(Equal(c.Translator().Translate(9, 0)))
			Expect(result.PFN).To(Equal(result.PTE))
			Expect(c.Stats().PTECache.Reads).To(Equal(uint64(0)))
		})

		It("should evict the least recently used translation", func() {
			c.Translate(0, 5<<vmem.PageOffsetBits)
			c.Translate(0, 9<<vmem.PageOffsetBits)
			Expect(c.Translate(0, 5<<vmem.PageOffsetBits).TLBHit).To(BeTrue())

			c.Translate(0, 13<<vmem.PageOffsetBits)

			Expect(c.Translate(0, 5<<vmem.PageOffsetBits).TLBHit).To(BeTrue())
			Expect(c.Translate(0, 9<<vmem.PageOffsetBits).TLBHit).To(BeFalse())
		})

		It("should panic on an out-of-range thread", func() {
			Expect(func() { c.Translate(4, 0) }).To(Panic())
		})
	})

	Describe("Branch", func() {
		It("should charge the penalty on a misprediction", func() {
			result := c.Branch(0x400, false)
			Expect(result.Predicted).To(BeTrue())
			Expect(result.Correct).To(BeFalse())
			Expect(result.Latency).To(Equal(uint64(13)))
		})
	})

	Describe("Run", func() {
		It("should accumulate statistics", func() {
			records := []loader.Record{
				{ThreadID: 0, Kind: loader.KindLoad, Addr: 0x1000},
				{ThreadID: 0, Kind: loader.KindStore, Addr: 0x1008},
				{ThreadID: 2, Kind: loader.KindFetch, Addr: 0x1000},
				{ThreadID: 0, Kind: loader.KindBranch, Addr: 0x40, Taken: true},
			}

			stats := c.Run(records)

			Expect(stats.MemoryOps).To(Equal(uint64(3)))
			Expect(stats.Branches).To(Equal(uint64(1)))
			Expect(stats.TLB.Accesses).To(Equal(uint64(3)))
			Expect(stats.TLB.Misses).To(Equal(uint64(2)))
			Expect(stats.ThreadTranslations).To(Equal([]uint64{2, 0, 1, 0}))
			Expect(stats.Branch.Correct).To(Equal(uint64(1)))
			Expect(stats.Cycles).To(Equal(uint64(101 + 1 + 101 + 1)))
			Expect(stats.CyclesPerTranslation()).To(BeNumerically("~", 203.0/3))
		})

		It("should return a stats copy", func() {
			c.Translate(0, 0)
			stats := c.Stats()
			stats.ThreadTranslations[0] = 99

			Expect(c.Stats().ThreadTranslations[0]).To(Equal(uint64(1)))
		})
	})

	Describe("Concurrent drivers", func() {
		It("should keep the TLB consistent under a shared lock", func() {
			config.TLBEntries = 8
			c = core.NewCore(config)

			var wg sync.WaitGroup
			for tid := 0; tid < 4; tid++ {
				wg.Add(1)
				go func(tid int) {
					defer GinkgoRecover()
					defer wg.Done()

					for i := uint64(0); i < 200; i++ {
						vaddr := (i % 5) << vmem.PageOffsetBits
						result := c.Translate(tid, vaddr)
						Expect(result.PFN).
							To(Equal(c.Translator().Translate(i%5, tid)))
					}
				}(tid)
			}
			wg.Wait()

			stats := c.Stats()
			Expect(stats.TLB.Accesses).To(Equal(uint64(800)))
			Expect(c.TLB().NumValid()).To(Equal(8))
		})
	})
})
