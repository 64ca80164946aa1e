// Package vmem models the address-translation fast path: a per-thread linear
// page table, the frame assignment it implies, and a shared fully-associative
// TLB in front of it.
package vmem

import "fmt"

const (
	// PagesPerTable is the number of PTEs in one thread's page table.
	PagesPerTable = 1 << 20

	// PTESize is the size of a page-table entry in bytes.
	PTESize = 8

	// PageTableSize is the size of one thread's page table in bytes.
	PageTableSize = PagesPerTable * PTESize

	// FramesPerThread is the number of physical frames owned by each thread
	// (4GB of 4KB pages).
	FramesPerThread = 1 << 20

	// ReservedFrames is the number of frames at the bottom of physical
	// memory kept for the OS.
	ReservedFrames = 16384

	// DefaultMaxThreads is the number of hardware thread contexts.
	DefaultMaxThreads = 4

	// PageOffsetBits is log2 of the page size.
	PageOffsetBits = 12

	// PageSize is the page size in bytes.
	PageSize = 1 << PageOffsetBits
)

// Translator computes PTE addresses and VPN to PFN translations. It does not
// cache anything; callers keep recent translations in a TLB.
type Translator struct {
	maxThreads int
}

// NewTranslator creates a Translator serving thread IDs in [0, maxThreads).
func NewTranslator(maxThreads int) *Translator {
	if maxThreads <= 0 {
		panic(fmt.Sprintf("vmem: max threads must be positive, got %d",
			maxThreads))
	}

	return &Translator{maxThreads: maxThreads}
}

// MaxThreads returns the number of thread contexts the translator accepts.
func (t *Translator) MaxThreads() int {
	return t.maxThreads
}

func (t *Translator) mustBeValidThread(threadID int) {
	if threadID < 0 || threadID >= t.maxThreads {
		panic(fmt.Sprintf("vmem: thread id %d out of range [0, %d)",
			threadID, t.maxThreads))
	}
}

// PTEAddr returns the byte address of the page-table entry for vpn. Each
// thread's page table starts at threadID*PageTableSize.
func (t *Translator) PTEAddr(vpn uint64, threadID int) uint64 {
	t.mustBeValidThread(threadID)

	base := uint64(threadID) * PageTableSize
	offset := (vpn % PagesPerTable) * PTESize

	return base + offset
}

// Translate returns the physical frame number backing vpn for the thread.
// Frames of different threads never overlap, and none of them falls in the
// reserved OS region.
func (t *Translator) Translate(vpn uint64, threadID int) uint64 {
	t.mustBeValidThread(threadID)

	base := uint64(threadID) * FramesPerThread
	frame := vpn % FramesPerThread

	return ReservedFrames + base + frame
}

// SplitAddr splits a virtual address into its page number and page offset.
func SplitAddr(vaddr uint64) (vpn, offset uint64) {
	return vaddr >> PageOffsetBits, vaddr & (PageSize - 1)
}

// PhysAddr joins a frame number and a page offset into a physical address.
func PhysAddr(pfn, offset uint64) uint64 {
	return pfn<<PageOffsetBits | offset&(PageSize-1)
}
