package vmem

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
)

// Hook positions fired by the TLB. The hook Item is the affected Entry.
var (
	HookPosTLBHit     = &sim.HookPos{Name: "TLBHit"}
	HookPosTLBMiss    = &sim.HookPos{Name: "TLBMiss"}
	HookPosTLBInstall = &sim.HookPos{Name: "TLBInstall"}
	HookPosTLBEvict   = &sim.HookPos{Name: "TLBEvict"}
)

// Entry is one TLB slot.
type Entry struct {
	Valid    bool
	ThreadID int
	VPN      uint64
	PFN      uint64

	// LastAccess is the logical time of the last hit or install. It only
	// orders entries for replacement.
	LastAccess uint64
}

// Stats holds TLB counters.
type Stats struct {
	// Accesses is the number of Access calls.
	Accesses uint64
	// Misses is the number of Access calls that missed.
	Misses uint64
	// Evictions is the number of installs that replaced a valid entry.
	Evictions uint64
}

// Hits returns the number of accesses that hit.
func (s Stats) Hits() uint64 {
	return s.Accesses - s.Misses
}

// HitRate returns the hit rate as a fraction in [0, 1].
func (s Stats) HitRate() float64 {
	if s.Accesses == 0 {
		return 0
	}
	return float64(s.Hits()) / float64(s.Accesses)
}

// MissRate returns the miss rate as a fraction in [0, 1].
func (s Stats) MissRate() float64 {
	if s.Accesses == 0 {
		return 0
	}
	return float64(s.Misses) / float64(s.Accesses)
}

// TLB is a fully-associative translation cache shared by all thread
// contexts. Entries are tagged with the owning thread, so identical VPNs of
// different threads never alias.
//
// A TLB is not safe for concurrent use. Callers that drive it from several
// goroutines must serialize every call.
type TLB struct {
	sim.HookableBase

	name    string
	entries []Entry
	policy  ReplacementPolicy

	clock uint64
	stats Stats
}

// Option configures a TLB.
type Option func(*TLB)

// WithName sets the name reported to hooks.
func WithName(name string) Option {
	return func(t *TLB) {
		t.name = name
	}
}

// WithReplacementPolicy replaces the default LRU policy.
func WithReplacementPolicy(p ReplacementPolicy) Option {
	return func(t *TLB) {
		t.policy = p
	}
}

// NewTLB creates a TLB with the given number of entries. All entries start
// invalid.
func NewTLB(capacity int, opts ...Option) *TLB {
	if capacity < 1 {
		panic(fmt.Sprintf("vmem: TLB capacity must be positive, got %d",
			capacity))
	}

	t := &TLB{
		name:    "TLB",
		entries: make([]Entry, capacity),
		policy:  NewLRUPolicy(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Name returns the name of the TLB.
func (t *TLB) Name() string {
	return t.name
}

// Capacity returns the number of entries.
func (t *TLB) Capacity() int {
	return len(t.entries)
}

// Clock returns the current logical time.
func (t *TLB) Clock() uint64 {
	return t.clock
}

// Stats returns a copy of the TLB counters.
func (t *TLB) Stats() Stats {
	return t.stats
}

// Entries returns a snapshot of all slots.
func (t *TLB) Entries() []Entry {
	snapshot := make([]Entry, len(t.entries))
	copy(snapshot, t.entries)
	return snapshot
}

// NumValid returns the number of valid entries.
func (t *TLB) NumValid() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].Valid {
			n++
		}
	}
	return n
}

// Access looks up the translation of vpn for the thread. On a hit, the entry
// is marked as the most recently used. Every call advances the logical clock
// and counts as an access.
func (t *TLB) Access(threadID int, vpn uint64) (pfn uint64, hit bool) {
	t.clock++
	t.stats.Accesses++

	index, found := t.find(threadID, vpn)
	if !found {
		t.stats.Misses++
		t.invokeHook(HookPosTLBMiss, Entry{ThreadID: threadID, VPN: vpn})

		return 0, false
	}

	entry := &t.entries[index]
	entry.LastAccess = t.clock
	t.invokeHook(HookPosTLBHit, *entry)

	return entry.PFN, true
}

// Install inserts a translation. It must follow a missed Access for the same
// key; installing a key that is already resident panics. When the TLB is
// full, the replacement policy picks the slot to overwrite.
func (t *TLB) Install(threadID int, vpn, pfn uint64) {
	if _, found := t.find(threadID, vpn); found {
		panic(fmt.Sprintf("vmem: thread %d vpn 0x%x is already in the TLB",
			threadID, vpn))
	}

	index, free := t.policy.FreeSlot(t.entries)
	if !free {
		index = t.policy.SelectVictim(t.entries)
		t.stats.Evictions++
		t.invokeHook(HookPosTLBEvict, t.entries[index])
	}

	t.entries[index] = Entry{
		Valid:      true,
		ThreadID:   threadID,
		VPN:        vpn,
		PFN:        pfn,
		LastAccess: t.clock,
	}
	t.invokeHook(HookPosTLBInstall, t.entries[index])
}

// find scans slots in ascending order.
func (t *TLB) find(threadID int, vpn uint64) (int, bool) {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Valid && e.ThreadID == threadID && e.VPN == vpn {
			return i, true
		}
	}

	return 0, false
}

func (t *TLB) invokeHook(pos *sim.HookPos, entry Entry) {
	if t.NumHooks() == 0 {
		return
	}

	t.InvokeHook(sim.HookCtx{
		Domain: t,
		Pos:    pos,
		Item:   entry,
	})
}
