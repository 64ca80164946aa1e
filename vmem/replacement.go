package vmem

// ReplacementPolicy decides where an incoming translation goes. It only
// inspects entry metadata and never mutates the entries.
type ReplacementPolicy interface {
	// HasFreeSlot reports whether at least one entry is invalid.
	HasFreeSlot(entries []Entry) bool

	// FreeSlot returns the slot to fill when the TLB is not full.
	FreeSlot(entries []Entry) (index int, ok bool)

	// SelectVictim returns the slot to overwrite. It must only be called
	// when every entry is valid.
	SelectVictim(entries []Entry) int
}

// LRUPolicy evicts the entry with the oldest LastAccess stamp.
type LRUPolicy struct{}

// NewLRUPolicy creates an LRU replacement policy.
func NewLRUPolicy() *LRUPolicy {
	return &LRUPolicy{}
}

// HasFreeSlot reports whether any entry is invalid.
func (p *LRUPolicy) HasFreeSlot(entries []Entry) bool {
	_, ok := p.FreeSlot(entries)
	return ok
}

// FreeSlot returns the lowest-indexed invalid entry.
func (p *LRUPolicy) FreeSlot(entries []Entry) (int, bool) {
	for i := range entries {
		if !entries[i].Valid {
			return i, true
		}
	}

	return 0, false
}

// SelectVictim returns the least-recently-used slot. Ties go to the lowest
// index. Invalid entries carry no meaningful timestamp, so asking for a
// victim while a slot is still free is a caller bug.
func (p *LRUPolicy) SelectVictim(entries []Entry) int {
	if len(entries) == 0 {
		panic("vmem: victim selection on an empty entry set")
	}

	victim := 0
	for i := range entries {
		if !entries[i].Valid {
			panic("vmem: victim selection while the TLB has a free slot")
		}

		if entries[i].LastAccess < entries[victim].LastAccess {
			victim = i
		}
	}

	return victim
}
