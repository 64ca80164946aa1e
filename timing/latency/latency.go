// Package latency provides the timing model for translations and branches.
//
// The latency values are configured via TimingConfig.
package latency

// PTECacheLineSize is the line size of the page-walk cache in bytes.
const PTECacheLineSize = 64

// Table turns access outcomes into cycle counts.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing
// configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// TranslationLatency returns the cycles taken by one address translation.
// A TLB miss pays for the page-table-entry fetch on top of the TLB lookup;
// the fetch is served by the page-walk cache when pteCacheHit is set and by
// memory otherwise.
func (t *Table) TranslationLatency(tlbHit, pteCacheHit bool) uint64 {
	latency := t.config.TLBHitLatency
	if tlbHit {
		return latency
	}

	if pteCacheHit {
		return latency + t.config.PTECacheHitLatency
	}

	return latency + t.config.MemoryLatency
}

// BranchLatency returns the cycles taken by a branch.
func (t *Table) BranchLatency(correct bool) uint64 {
	if correct {
		return t.config.BranchLatency
	}
	return t.config.BranchLatency + t.config.BranchMispredictPenalty
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
