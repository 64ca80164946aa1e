// Package core provides the trace-driven translation core. It owns one TLB
// shared by all thread contexts and drives the lookup, page-walk and install
// protocol around it.
package core

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/sarchlab/akita/v4/mem/vm"

	"github.com/sarchlab/vmemsim/loader"
	"github.com/sarchlab/vmemsim/timing/bpred"
	"github.com/sarchlab/vmemsim/timing/cache"
	"github.com/sarchlab/vmemsim/timing/latency"
	"github.com/sarchlab/vmemsim/vmem"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// MemoryOps is the number of translated memory references.
	MemoryOps uint64
	// Branches is the number of resolved branches.
	Branches uint64
	// TranslationCycles is the number of cycles spent translating.
	TranslationCycles uint64
	// ThreadTranslations counts translations per thread context.
	ThreadTranslations []uint64

	TLB      vmem.Stats
	PTECache cache.Statistics
	Branch   bpred.Stats
}

// CyclesPerTranslation returns the average translation latency.
func (s Stats) CyclesPerTranslation() float64 {
	if s.MemoryOps == 0 {
		return 0
	}
	return float64(s.TranslationCycles) / float64(s.MemoryOps)
}

// Result is the outcome of one translation.
type Result struct {
	PAddr uint64
	PFN   uint64

	// PTE is the page-table word fetched by the walk. It is zero on a TLB
	// hit.
	PTE         uint64
	TLBHit      bool
	PTECacheHit bool
	Latency     uint64
}

// BranchResult is the outcome of one branch.
type BranchResult struct {
	Predicted bool
	Correct   bool
	Latency   uint64
}

// Core is a translation core. All methods serialize on one lock, so a Core
// can be shared by goroutines that model different thread contexts.
type Core struct {
	mu sync.Mutex

	translator *vmem.Translator
	tlb        *vmem.TLB
	pageTable  *cache.PageTableMemory
	pteCache   *cache.Cache
	latency    *latency.Table
	predictor  *bpred.Predictor

	stats Stats
}

// NewCore creates a Core from a timing configuration. An invalid
// configuration is a setup bug and panics.
func NewCore(config *latency.TimingConfig) *Core {
	if err := config.Validate(); err != nil {
		panic(fmt.Sprintf("core: invalid config: %v", err))
	}

	kind, err := bpred.ParseType(config.BranchPredictor)
	if err != nil {
		panic(fmt.Sprintf("core: %v", err))
	}

	translator := vmem.NewTranslator(config.MaxThreads)

	c := &Core{
		translator: translator,
		tlb:        vmem.NewTLB(config.TLBEntries),
		pageTable:  cache.NewPageTableMemory(translator),
		latency:    latency.NewTableWithConfig(config.Clone()),
		predictor: bpred.New(bpred.Config{
			Type:          kind,
			HistoryLength: config.HistoryLength,
		}),
	}
	c.stats.ThreadTranslations = make([]uint64, config.MaxThreads)

	if config.PTECacheSize > 0 {
		c.pteCache = cache.New(
			cache.Config{
				Size:          config.PTECacheSize,
				Associativity: config.PTECacheAssociativity,
				BlockSize:     latency.PTECacheLineSize,
			},
			c.pageTable,
		)
	}

	return c
}

// TLB returns the shared TLB. Hooks may be attached to it before running.
func (c *Core) TLB() *vmem.TLB {
	return c.tlb
}

// Translator returns the page-table model.
func (c *Core) Translator() *vmem.Translator {
	return c.translator
}

// Translate maps a virtual address of a thread to a physical address.
//
// On a TLB miss the PTE is fetched through the page-walk cache, or straight
// from the page table when the cache is disabled. The frame number installed
// into the TLB comes from the translator and must match the fetched PTE.
func (c *Core) Translate(threadID int, vaddr uint64) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.translate(threadID, vaddr)
}

func (c *Core) translate(threadID int, vaddr uint64) Result {
	if threadID < 0 || threadID >= c.translator.MaxThreads() {
		panic(fmt.Sprintf("core: thread id %d out of range [0, %d)",
			threadID, c.translator.MaxThreads()))
	}

	vpn, offset := vmem.SplitAddr(vaddr)
	result := Result{}

	pfn, hit := c.tlb.Access(threadID, vpn)
	if hit {
		result.TLBHit = true
	} else {
		result.PTE, result.PTECacheHit = c.walk(threadID, vpn)

		pfn = c.translator.Translate(vpn, threadID)
		if result.PTE != pfn {
			panic(fmt.Sprintf(
				"core: thread %d vpn 0x%x: PTE holds 0x%x, translator gives 0x%x",
				threadID, vpn, result.PTE, pfn))
		}

		c.tlb.Install(threadID, vpn, pfn)
	}

	result.PFN = pfn
	result.PAddr = vmem.PhysAddr(pfn, offset)
	result.Latency = c.latency.TranslationLatency(result.TLBHit,
		result.PTECacheHit)

	c.stats.MemoryOps++
	c.stats.ThreadTranslations[threadID]++
	c.stats.TranslationCycles += result.Latency
	c.stats.Cycles += result.Latency

	return result
}

// walk fetches the PTE of vpn and reports whether the page-walk cache held it.
func (c *Core) walk(threadID int, vpn uint64) (pte uint64, cacheHit bool) {
	pteAddr := c.translator.PTEAddr(vpn, threadID)

	if c.pteCache == nil {
		data := c.pageTable.Read(pteAddr, vmem.PTESize)
		return binary.LittleEndian.Uint64(data), false
	}

	access := c.pteCache.Read(vm.PID(threadID), pteAddr, vmem.PTESize)
	return access.Data, access.Hit
}

// Branch predicts and resolves the branch at pc.
func (c *Core) Branch(pc uint64, taken bool) BranchResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.branch(pc, taken)
}

func (c *Core) branch(pc uint64, taken bool) BranchResult {
	predicted := c.predictor.Predict(pc)
	c.predictor.Update(pc, predicted, taken)

	correct := predicted == taken
	lat := c.latency.BranchLatency(correct)

	c.stats.Branches++
	c.stats.Cycles += lat

	return BranchResult{
		Predicted: predicted,
		Correct:   correct,
		Latency:   lat,
	}
}

// Step executes one trace record and returns its latency.
func (c *Core) Step(rec loader.Record) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rec.Kind == loader.KindBranch {
		return c.branch(rec.Addr, rec.Taken).Latency
	}

	return c.translate(rec.ThreadID, rec.Addr).Latency
}

// Run executes all records in order and returns the resulting statistics.
func (c *Core) Run(records []loader.Record) Stats {
	for _, rec := range records {
		c.Step(rec)
	}

	return c.Stats()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.ThreadTranslations = append([]uint64(nil), c.stats.ThreadTranslations...)
	stats.TLB = c.tlb.Stats()
	stats.Branch = c.predictor.Stats()
	if c.pteCache != nil {
		stats.PTECache = c.pteCache.Stats()
	}

	return stats
}
