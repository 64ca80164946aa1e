// Package bpred provides direction predictors for conditional branches.
package bpred

import "fmt"

// Type selects the prediction algorithm.
type Type int

// Predictor kinds.
const (
	NotTaken Type = iota
	Taken
	Bimodal
	GShare
)

var typeNames = map[Type]string{
	NotTaken: "nottaken",
	Taken:    "taken",
	Bimodal:  "bimodal",
	GShare:   "gshare",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType converts a predictor name into a Type.
func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown branch predictor %q", name)
}

const (
	// counterMax is the saturation value of the 2-bit counters.
	counterMax = 3
	// counterInit is weakly taken.
	counterInit = 2
)

// Config holds configuration for the branch predictor.
type Config struct {
	Type Type
	// HistoryLength is log2 of the pattern history table size and the
	// number of global history bits used by gshare.
	HistoryLength int
}

// DefaultConfig returns a gshare predictor with 12 bits of history.
func DefaultConfig() Config {
	return Config{
		Type:          GShare,
		HistoryLength: 12,
	}
}

// Stats holds statistics for the branch predictor.
type Stats struct {
	// Predictions is the total number of resolved branches.
	Predictions uint64
	// Correct is the number of correct predictions.
	Correct uint64
	// Mispredictions is the number of incorrect predictions.
	Mispredictions uint64
}

// Accuracy returns the prediction accuracy as a percentage.
func (s Stats) Accuracy() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Predictions) * 100
}

// MispredictionRate returns the misprediction rate as a percentage.
func (s Stats) MispredictionRate() float64 {
	if s.Predictions == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Predictions) * 100
}

// Predictor is a table of 2-bit saturating counters indexed by the PC
// (bimodal) or the PC hashed with the global history (gshare). The static
// kinds keep no state.
type Predictor struct {
	kind Type

	// Pattern History Table (PHT) - 2-bit saturating counters
	// States: 0=Strongly Not Taken, 1=Weakly Not Taken,
	//         2=Weakly Taken, 3=Strongly Taken
	pht []uint8
	ghr uint64

	numEntries uint64

	stats Stats
}

// New creates a new branch predictor with the given configuration.
func New(config Config) *Predictor {
	if _, ok := typeNames[config.Type]; !ok {
		panic(fmt.Sprintf("bpred: unknown predictor type %d", config.Type))
	}

	p := &Predictor{kind: config.Type}

	if config.Type == Bimodal || config.Type == GShare {
		if config.HistoryLength < 1 || config.HistoryLength > 30 {
			panic(fmt.Sprintf("bpred: history length %d out of range",
				config.HistoryLength))
		}

		p.numEntries = 1 << config.HistoryLength
		p.pht = make([]uint8, p.numEntries)
		p.resetTable()
	}

	return p
}

func (p *Predictor) resetTable() {
	for i := range p.pht {
		p.pht[i] = counterInit
	}
	p.ghr = 0
}

// Type returns the predictor kind.
func (p *Predictor) Type() Type {
	return p.kind
}

func (p *Predictor) index(pc uint64) uint64 {
	if p.kind == GShare {
		return (pc ^ p.ghr) % p.numEntries
	}
	return pc % p.numEntries
}

// Predict returns the predicted direction for the branch at pc.
func (p *Predictor) Predict(pc uint64) bool {
	switch p.kind {
	case NotTaken:
		return false
	case Taken:
		return true
	default:
		return p.pht[p.index(pc)] > counterMax/2
	}
}

// Update records the resolved direction of the branch at pc, given the
// direction that was predicted for it.
func (p *Predictor) Update(pc uint64, predicted, taken bool) {
	p.stats.Predictions++
	if predicted == taken {
		p.stats.Correct++
	} else {
		p.stats.Mispredictions++
	}

	if p.pht == nil {
		return
	}

	idx := p.index(pc)
	counter := p.pht[idx]
	if taken {
		if counter < counterMax {
			p.pht[idx] = counter + 1
		}
	} else {
		if counter > 0 {
			p.pht[idx] = counter - 1
		}
	}

	if p.kind == GShare {
		p.ghr <<= 1
		if taken {
			p.ghr |= 1
		}
		p.ghr &= p.numEntries - 1
	}
}

// Stats returns the branch predictor statistics.
func (p *Predictor) Stats() Stats {
	return p.stats
}

// Reset clears all predictor state and statistics.
func (p *Predictor) Reset() {
	p.resetTable()
	p.stats = Stats{}
}
