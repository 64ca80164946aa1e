package cache

import (
	"encoding/binary"

	"github.com/sarchlab/vmemsim/vmem"
)

// PageTableMemory is a BackingStore holding the page tables of every thread.
// Nothing is stored: the 8-byte word at a PTE address is computed on demand
// as the frame number the translator assigns to that page.
type PageTableMemory struct {
	translator *vmem.Translator
}

// NewPageTableMemory creates a PageTableMemory over the given translator.
func NewPageTableMemory(translator *vmem.Translator) *PageTableMemory {
	return &PageTableMemory{translator: translator}
}

// Read returns size bytes starting at addr. Bytes outside every thread's
// page table read as zero.
func (m *PageTableMemory) Read(addr uint64, size int) []byte {
	data := make([]byte, size)
	var word [vmem.PTESize]byte

	for i := 0; i < size; i++ {
		a := addr + uint64(i)
		pteAddr := a &^ (vmem.PTESize - 1)
		if i == 0 || a%vmem.PTESize == 0 {
			m.fillPTE(word[:], pteAddr)
		}
		data[i] = word[a%vmem.PTESize]
	}

	return data
}

func (m *PageTableMemory) fillPTE(word []byte, pteAddr uint64) {
	threadID := pteAddr / vmem.PageTableSize
	if threadID >= uint64(m.translator.MaxThreads()) {
		clear(word)
		return
	}

	vpn := (pteAddr % vmem.PageTableSize) / vmem.PTESize
	binary.LittleEndian.PutUint64(word,
		m.translator.Translate(vpn, int(threadID)))
}
