package cache_test

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
	"github.com/sarchlab/akita/v4/mem/vm"

	"github.com/sarchlab/vmemsim/timing/cache"
	"github.com/sarchlab/vmemsim/vmem"
)

type noVictimFinder struct{}

func (noVictimFinder) FindVictim(*akitacache.Set) *akitacache.Block {
	return nil
}

var _ = Describe("Cache", func() {
	var (
		c          *cache.Cache
		translator *vmem.Translator
		backing    *cache.PageTableMemory
	)

	BeforeEach(func() {
		translator = vmem.NewTranslator(vmem.DefaultMaxThreads)
		backing = cache.NewPageTableMemory(translator)
		// 1KB, 2-way, 64B lines: 8 sets
		config := cache.Config{
			Size:          1024,
			Associativity: 2,
			BlockSize:     64,
		}
		c = cache.New(config, backing)
	})

	Describe("Read operations", func() {
		It("should miss on cold cache", func() {
			addr := translator.PTEAddr(5, 0)

			result := c.Read(0, addr, vmem.PTESize)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Data).To(Equal(translator.Translate(5, 0)))

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(0)))
		})

		It("should hit on cached data", func() {
			addr := translator.PTEAddr(5, 1)

			c.Read(1, addr, vmem.PTESize)
			result := c.Read(1, addr, vmem.PTESize)

			Expect(result.Hit).To(BeTrue())
			Expect(result.Data).To(Equal(translator.Translate(5, 1)))
			Expect(c.Stats().HitRate()).To(BeNumerically("~", 0.5))
		})

		It("should hit on neighbouring PTEs in the same line", func() {
			c.Read(0, translator.PTEAddr(8, 0), vmem.PTESize)

			result := c.Read(0, translator.PTEAddr(9, 0), vmem.PTESize)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Data).To(Equal(translator.Translate(9, 0)))
		})

		It("should not share blocks between PIDs", func() {
			addr := translator.PTEAddr(3, 0)
			c.Read(0, addr, vmem.PTESize)

			result := c.Read(vm.PID(2), addr, vmem.PTESize)
			Expect(result.Hit).To(BeFalse())
		})
	})

	Describe("Eviction", func() {
		It("should evict the least recently used block of a set", func() {
			// Three lines mapping to set 0 of an 8-set cache.
			a := uint64(0)
			b := uint64(8 * 64)
			d := uint64(16 * 64)

			c.Read(0, a, 8)
			c.Read(0, b, 8)
			c.Read(0, a, 8)

			result := c.Read(0, d, 8)
			Expect(result.Evicted).To(BeTrue())
			Expect(result.EvictedAddr).To(Equal(b))
			Expect(c.Stats().Evictions).To(Equal(uint64(1)))

			Expect(c.Read(0, a, 8).Hit).To(BeTrue())
		})
	})

	Describe("Victim selection", func() {
		It("should panic when the directory yields no victim", func() {
			c = cache.New(cache.Config{
				Size:          1024,
				Associativity: 2,
				BlockSize:     64,
				VictimFinder:  noVictimFinder{},
			}, backing)

			Expect(func() { c.Read(0, 0x40, 8) }).
				To(PanicWith(ContainSubstring("no victim")))
			Expect(c.Stats().Misses).To(Equal(uint64(1)))
		})

		It("should panic on a geometry without whole sets", func() {
			Expect(func() {
				cache.New(cache.Config{Size: 1000, Associativity: 2, BlockSize: 64}, backing)
			}).To(Panic())
			Expect(func() {
				cache.New(cache.Config{Size: 1024, Associativity: 0, BlockSize: 64}, backing)
			}).To(Panic())
		})
	})

	Describe("Reset", func() {
		It("should drop all lines and statistics", func() {
			c.Read(0, 0, 8)
			c.Reset()

			Expect(c.Stats()).To(Equal(cache.Statistics{}))
			Expect(c.Read(0, 0, 8).Hit).To(BeFalse())
		})
	})

	Describe("Without a backing store", func() {
		It("should read zeros", func() {
			c = cache.New(cache.DefaultPTECacheConfig(), nil)
			Expect(c.Read(0, 0x40, 8).Data).To(Equal(uint64(0)))
		})
	})
})

var _ = Describe("PageTableMemory", func() {
	var (
		translator *vmem.Translator
		memory     *cache.PageTableMemory
	)

	BeforeEach(func() {
		translator = vmem.NewTranslator(2)
		memory = cache.NewPageTableMemory(translator)
	})

	It("should hold the translated frame in every PTE", func() {
		for _, tid := range []int{0, 1} {
			for _, vpn := range []uint64{0, 1, 77, vmem.PagesPerTable - 1} {
				data := memory.Read(translator.PTEAddr(vpn, tid), vmem.PTESize)
				Expect(binary.LittleEndian.Uint64(data)).
					To(Equal(translator.Translate(vpn, tid)))
			}
		}
	})

	It("should serve unaligned multi-PTE reads", func() {
		data := memory.Read(4, 16)
		Expect(data).To(HaveLen(16))

		first := binary.LittleEndian.Uint64(data[4:12])
		Expect(first).To(Equal(translator.Translate(1, 0)))
	})

	It("should read zeros beyond the last page table", func() {
		data := memory.Read(2*vmem.PageTableSize, 8)
		Expect(data).To(Equal(make([]byte, 8)))
	})
})
