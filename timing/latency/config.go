package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds the latency and sizing parameters of one simulation run.
// All values are fixed once the run starts.
type TimingConfig struct {
	// TLBHitLatency is the latency of a translation that hits in the TLB.
	// Default: 1 cycle.
	TLBHitLatency uint64 `json:"tlb_hit_latency"`

	// PTECacheHitLatency is the latency of a page-table-entry fetch that
	// hits in the page-walk cache. Default: 4 cycles.
	PTECacheHitLatency uint64 `json:"pte_cache_hit_latency"`

	// MemoryLatency is the latency of a page-table-entry fetch that goes to
	// DRAM. Default: 100 cycles.
	MemoryLatency uint64 `json:"memory_latency"`

	// BranchLatency is the base latency of a branch. Default: 1 cycle.
	BranchLatency uint64 `json:"branch_latency"`

	// BranchMispredictPenalty is the additional cycles lost on a
	// misprediction. Default: 12 cycles.
	BranchMispredictPenalty uint64 `json:"branch_mispredict_penalty"`

	// TLBEntries is the number of TLB entries. Default: 16.
	TLBEntries int `json:"tlb_entries"`

	// MaxThreads is the number of hardware thread contexts. Default: 4.
	MaxThreads int `json:"max_threads"`

	// PTECacheSize is the page-walk cache size in bytes. Zero disables the
	// cache. Default: 4KB.
	PTECacheSize int `json:"pte_cache_size"`

	// PTECacheAssociativity is the page-walk cache associativity.
	// Default: 4.
	PTECacheAssociativity int `json:"pte_cache_associativity"`

	// BranchPredictor names the predictor kind: "nottaken", "taken",
	// "bimodal" or "gshare". Default: "gshare".
	BranchPredictor string `json:"branch_predictor"`

	// HistoryLength is log2 of the pattern history table size, and the
	// global history length for gshare. Default: 12.
	HistoryLength int `json:"history_length"`
}

// DefaultTimingConfig returns a TimingConfig with default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		TLBHitLatency:           1,
		PTECacheHitLatency:      4,
		MemoryLatency:           100,
		BranchLatency:           1,
		BranchMispredictPenalty: 12,
		TLBEntries:              16,
		MaxThreads:              4,
		PTECacheSize:            4 * 1024,
		PTECacheAssociativity:   4,
		BranchPredictor:         "gshare",
		HistoryLength:           12,
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Fields missing from the
// file keep their default values.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration describes a runnable simulation.
func (c *TimingConfig) Validate() error {
	if c.TLBHitLatency == 0 {
		return fmt.Errorf("tlb_hit_latency must be > 0")
	}
	if c.MemoryLatency == 0 {
		return fmt.Errorf("memory_latency must be > 0")
	}
	if c.BranchLatency == 0 {
		return fmt.Errorf("branch_latency must be > 0")
	}
	if c.TLBEntries <= 0 {
		return fmt.Errorf("tlb_entries must be > 0")
	}
	if c.MaxThreads <= 0 {
		return fmt.Errorf("max_threads must be > 0")
	}
	if c.PTECacheSize < 0 {
		return fmt.Errorf("pte_cache_size must be >= 0")
	}
	if c.PTECacheSize > 0 {
		if c.PTECacheHitLatency == 0 {
			return fmt.Errorf("pte_cache_hit_latency must be > 0")
		}
		if c.PTECacheAssociativity <= 0 {
			return fmt.Errorf("pte_cache_associativity must be > 0")
		}
		if c.PTECacheSize%(c.PTECacheAssociativity*PTECacheLineSize) != 0 {
			return fmt.Errorf(
				"pte_cache_size must be a multiple of associativity * %d",
				PTECacheLineSize)
		}
	}
	switch c.BranchPredictor {
	case "nottaken", "taken", "bimodal", "gshare":
	default:
		return fmt.Errorf("unknown branch_predictor %q", c.BranchPredictor)
	}
	if c.HistoryLength < 1 || c.HistoryLength > 30 {
		return fmt.Errorf("history_length must be in [1, 30]")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
