package vmem_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vmemsim/vmem"
)

var _ = Describe("LRUPolicy", func() {
	var p *vmem.LRUPolicy

	BeforeEach(func() {
		p = vmem.NewLRUPolicy()
	})

	It("should find the first free slot", func() {
		entries := []vmem.Entry{{Valid: true}, {}, {}}

		Expect(p.HasFreeSlot(entries)).To(BeTrue())
		index, ok := p.FreeSlot(entries)
		Expect(ok).To(BeTrue())
		Expect(index).To(Equal(1))
	})

	It("should report a full set", func() {
		entries := []vmem.Entry{{Valid: true}, {Valid: true}}

		Expect(p.HasFreeSlot(entries)).To(BeFalse())
	})

	It("should pick the oldest entry", func() {
		entries := []vmem.Entry{
			{Valid: true, LastAccess: 7},
			{Valid: true, LastAccess: 3},
			{Valid: true, LastAccess: 5},
		}

		Expect(p.SelectVictim(entries)).To(Equal(1))
	})

	It("should break ties by lowest index", func() {
		entries := []vmem.Entry{
			{Valid: true, LastAccess: 4},
			{Valid: true, LastAccess: 2},
			{Valid: true, LastAccess: 2},
		}

		Expect(p.SelectVictim(entries)).To(Equal(1))
	})

	It("should refuse to pick a victim while a slot is free", func() {
		entries := []vmem.Entry{{Valid: true, LastAccess: 9}, {}}

		Expect(func() { p.SelectVictim(entries) }).To(Panic())
	})
})
