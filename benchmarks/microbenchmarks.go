package benchmarks

import (
	"fmt"
	"math/rand/v2"

	"github.com/sarchlab/vmemsim/loader"
	"github.com/sarchlab/vmemsim/vmem"
)

// GetMicrobenchmarks returns the standard set of translation microbenchmarks
// for a core with the given number of thread contexts. Each benchmark targets
// one TLB behaviour. All traces are deterministic.
func GetMicrobenchmarks(threads int) []Benchmark {
	return []Benchmark{
		sequentialPages(),
		hotSet(),
		lruThrash(),
		sharedVPNs(threads),
		randomPages(threads),
		branchLoop(),
	}
}

// GetCoreBenchmarks returns a minimal set for quick validation.
func GetCoreBenchmarks(threads int) []Benchmark {
	return []Benchmark{
		hotSet(),
		lruThrash(),
		sharedVPNs(threads),
	}
}

func mustHaveThreads(threads int) {
	if threads < 1 {
		panic(fmt.Sprintf("benchmarks: thread count must be positive, got %d",
			threads))
	}
}

func pageAddr(vpn uint64, offset uint64) uint64 {
	return vpn<<vmem.PageOffsetBits | offset
}

// 1. Sequential Pages - streams through memory, 8 references per page
func sequentialPages() Benchmark {
	records := []loader.Record{}
	for vpn := uint64(0); vpn < 64; vpn++ {
		for off := uint64(0); off < vmem.PageSize; off += vmem.PageSize / 8 {
			records = append(records, loader.Record{
				Kind: loader.KindLoad,
				Addr: pageAddr(0x100+vpn, off),
			})
		}
	}

	return Benchmark{
		Name:        "sequential_pages",
		Description: "64 pages streamed in order, 8 loads per page - one miss per page",
		Records:     records,
	}
}

// 2. Hot Set - a working set that fits in the TLB
func hotSet() Benchmark {
	records := []loader.Record{}
	for iter := 0; iter < 100; iter++ {
		for vpn := uint64(0); vpn < 8; vpn++ {
			records = append(records, loader.Record{
				Kind: loader.KindLoad,
				Addr: pageAddr(vpn, 0x10),
			})
		}
	}

	return Benchmark{
		Name:        "hot_set",
		Description: "8 pages touched 100 times - only compulsory misses",
		Records:     records,
	}
}

// 3. LRU Thrash - a cyclic working set one page larger than the TLB
func lruThrash() Benchmark {
	records := []loader.Record{}
	for iter := 0; iter < 20; iter++ {
		for vpn := uint64(0); vpn < 17; vpn++ {
			records = append(records, loader.Record{
				Kind: loader.KindStore,
				Addr: pageAddr(vpn, 0),
			})
		}
	}

	return Benchmark{
		Name:        "lru_thrash",
		Description: "17 pages in a cycle on a 16-entry TLB - LRU misses every time",
		Records:     records,
	}
}

// 4. Shared VPNs - every thread using the same virtual pages
func sharedVPNs(threads int) Benchmark {
	mustHaveThreads(threads)

	records := []loader.Record{}
	for iter := 0; iter < 50; iter++ {
		for tid := 0; tid < threads; tid++ {
			for vpn := uint64(0); vpn < 4; vpn++ {
				records = append(records, loader.Record{
					ThreadID: tid,
					Kind:     loader.KindLoad,
					Addr:     pageAddr(vpn, 0x80),
				})
			}
		}
	}

	return Benchmark{
		Name:        "shared_vpns",
		Description: fmt.Sprintf("%d threads x 4 identical VPNs - entries are tagged per thread", threads),
		Records:     records,
	}
}

// 5. Random Pages - uniform references over 256 pages from up to 2 threads
func randomPages(threads int) Benchmark {
	mustHaveThreads(threads)

	rng := rand.New(rand.NewPCG(1, 2))
	threads = min(threads, 2)

	records := make([]loader.Record, 0, 2000)
	for i := 0; i < 2000; i++ {
		records = append(records, loader.Record{
			ThreadID: rng.IntN(threads),
			Kind:     loader.KindLoad,
			Addr:     pageAddr(rng.Uint64N(256), rng.Uint64N(vmem.PageSize)),
		})
	}

	return Benchmark{
		Name:        "random_pages",
		Description: fmt.Sprintf("2000 uniform references over 256 pages from %d threads", threads),
		Records:     records,
	}
}

// 6. Branch Loop - instruction fetches and a loop back-edge
func branchLoop() Benchmark {
	records := []loader.Record{}
	for iter := 0; iter < 100; iter++ {
		for pc := uint64(0x1000); pc < 0x1020; pc += 4 {
			records = append(records, loader.Record{
				Kind: loader.KindFetch,
				Addr: pc,
			})
		}
		records = append(records, loader.Record{
			Kind:  loader.KindBranch,
			Addr:  0x101C,
			Taken: iter%10 != 9,
		})
	}

	return Benchmark{
		Name:        "branch_loop",
		Description: "8-instruction loop with a back-edge taken 9 times out of 10",
		Records:     records,
	}
}
