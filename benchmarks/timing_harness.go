// Package benchmarks provides the translation benchmark harness.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/vmemsim/loader"
	"github.com/sarchlab/vmemsim/timing/core"
	"github.com/sarchlab/vmemsim/timing/latency"
)

// BenchmarkResult holds the results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// MemoryOps is the number of translated references
	MemoryOps uint64 `json:"memory_ops"`

	// CyclesPerTranslation is the average translation latency
	CyclesPerTranslation float64 `json:"cycles_per_translation"`

	// TLB stats
	TLBAccesses  uint64  `json:"tlb_accesses"`
	TLBMisses    uint64  `json:"tlb_misses"`
	TLBEvictions uint64  `json:"tlb_evictions"`
	TLBHitRate   float64 `json:"tlb_hit_rate"`

	// Page-walk cache stats (if enabled)
	PTECacheHits   uint64 `json:"pte_cache_hits,omitempty"`
	PTECacheMisses uint64 `json:"pte_cache_misses,omitempty"`

	// Branch predictor stats
	BranchPredictions     uint64  `json:"branch_predictions,omitempty"`
	BranchCorrect         uint64  `json:"branch_correct,omitempty"`
	BranchMispredictions  uint64  `json:"branch_mispredictions,omitempty"`
	BranchAccuracyPercent float64 `json:"branch_accuracy_percent,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark trace.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Records is the trace to execute
	Records []loader.Record
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Timing is the timing configuration of every run.
	Timing *latency.TimingConfig

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Timing:  latency.DefaultTimingConfig(),
		Output:  os.Stdout,
		Verbose: false,
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Timing == nil {
		config.Timing = latency.DefaultTimingConfig()
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results. Benchmarks are checked
// against the configured thread count before any of them runs.
func (h *Harness) RunAll() ([]BenchmarkResult, error) {
	for _, bench := range h.benchmarks {
		if err := h.checkThreads(bench); err != nil {
			return nil, err
		}
	}

	results := make([]BenchmarkResult, 0, len(h.benchmarks))
	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		results = append(results, result)
	}

	return results, nil
}

func (h *Harness) checkThreads(bench Benchmark) error {
	for i, rec := range bench.Records {
		if rec.ThreadID < 0 || rec.ThreadID >= h.config.Timing.MaxThreads {
			return fmt.Errorf("benchmark %s: record %d (%s): thread id exceeds %d threads",
				bench.Name, i, rec, h.config.Timing.MaxThreads)
		}
	}

	return nil
}

// runBenchmark executes a single benchmark on a fresh core.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	c := core.NewCore(h.config.Timing)

	if h.config.Verbose {
		_, _ = fmt.Fprintf(h.config.Output, "Running %s (%d records)\n",
			bench.Name, len(bench.Records))
	}

	start := time.Now()
	stats := c.Run(bench.Records)
	wallTime := time.Since(start)

	return BenchmarkResult{
		Name:                  bench.Name,
		Description:           bench.Description,
		SimulatedCycles:       stats.Cycles,
		MemoryOps:             stats.MemoryOps,
		CyclesPerTranslation:  stats.CyclesPerTranslation(),
		TLBAccesses:           stats.TLB.Accesses,
		TLBMisses:             stats.TLB.Misses,
		TLBEvictions:          stats.TLB.Evictions,
		TLBHitRate:            stats.TLB.HitRate(),
		PTECacheHits:          stats.PTECache.Hits,
		PTECacheMisses:        stats.PTECache.Misses,
		BranchPredictions:     stats.Branch.Predictions,
		BranchCorrect:         stats.Branch.Correct,
		BranchMispredictions:  stats.Branch.Mispredictions,
		BranchAccuracyPercent: stats.Branch.Accuracy(),
		WallTime:              wallTime,
	}
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== vmemsim Translation Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:       %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Memory Ops:             %d\n", r.MemoryOps)
		_, _ = fmt.Fprintf(h.config.Output, "  Cycles/Translation:     %.3f\n", r.CyclesPerTranslation)
		_, _ = fmt.Fprintln(h.config.Output, "  --- TLB ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Accesses:  %d\n", r.TLBAccesses)
		_, _ = fmt.Fprintf(h.config.Output, "  Misses:    %d\n", r.TLBMisses)
		_, _ = fmt.Fprintf(h.config.Output, "  Evictions: %d\n", r.TLBEvictions)
		_, _ = fmt.Fprintf(h.config.Output, "  Hit Rate:  %.1f%%\n", 100*r.TLBHitRate)

		if r.PTECacheHits > 0 || r.PTECacheMisses > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- Page-Walk Cache ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Hits:   %d\n", r.PTECacheHits)
			_, _ = fmt.Fprintf(h.config.Output, "  Misses: %d\n", r.PTECacheMisses)
		}

		if r.BranchPredictions > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- Branch Predictor ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Predictions:     %d\n", r.BranchPredictions)
			_, _ = fmt.Fprintf(h.config.Output, "  Correct:         %d\n", r.BranchCorrect)
			_, _ = fmt.Fprintf(h.config.Output, "  Mispredictions:  %d\n", r.BranchMispredictions)
			_, _ = fmt.Fprintf(h.config.Output, "  Accuracy:        %.1f%%\n", r.BranchAccuracyPercent)
		}

		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,memory_ops,cycles_per_translation,tlb_accesses,tlb_misses,tlb_evictions,tlb_hit_rate,pte_cache_hits,pte_cache_misses,branch_predictions,branch_mispredictions")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%.4f,%d,%d,%d,%d\n",
			r.Name,
			r.SimulatedCycles,
			r.MemoryOps,
			r.CyclesPerTranslation,
			r.TLBAccesses,
			r.TLBMisses,
			r.TLBEvictions,
			r.TLBHitRate,
			r.PTECacheHits,
			r.PTECacheMisses,
			r.BranchPredictions,
			r.BranchMispredictions,
		)
	}
}

// PrintJSON outputs benchmark results as an indented JSON array.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize results: %w", err)
	}

	_, err = fmt.Fprintln(h.config.Output, string(data))
	return err
}
