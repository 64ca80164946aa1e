// Package loader reads memory-reference traces.
//
// A trace is a text file with one record per line:
//
//	<thread> <kind> <address> [T|N]
//
// where kind is L (load), S (store), I (instruction fetch) or B (branch),
// and address is hexadecimal with an optional 0x prefix. Branch records carry
// the resolved direction as a fourth field. Blank lines and lines starting
// with '#' are ignored.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Kind identifies what a trace record does.
type Kind uint8

const (
	// KindLoad is a data read.
	KindLoad Kind = iota
	// KindStore is a data write.
	KindStore
	// KindFetch is an instruction fetch.
	KindFetch
	// KindBranch is a conditional branch at the given PC.
	KindBranch
)

func (k Kind) String() string {
	switch k {
	case KindLoad:
		return "L"
	case KindStore:
		return "S"
	case KindFetch:
		return "I"
	case KindBranch:
		return "B"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// IsMemory returns true if the record references memory and therefore needs
// an address translation.
func (k Kind) IsMemory() bool {
	return k != KindBranch
}

// Record is one trace entry.
type Record struct {
	// ThreadID is the hardware thread context issuing the reference.
	ThreadID int
	// Kind is the type of reference.
	Kind Kind
	// Addr is the virtual address, or the branch PC.
	Addr uint64
	// Taken is the resolved direction of a branch.
	Taken bool
}

func (r Record) String() string {
	s := fmt.Sprintf("%d %s 0x%x", r.ThreadID, r.Kind, r.Addr)
	if r.Kind == KindBranch {
		if r.Taken {
			return s + " T"
		}
		return s + " N"
	}
	return s
}

// Reader streams records from a trace.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next record. It returns io.EOF when the trace is
// exhausted.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++

		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		rec, err := parseRecord(text)
		if err != nil {
			return Record{}, fmt.Errorf("line %d: %w", r.line, err)
		}

		return rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("failed to read trace: %w", err)
	}

	return Record{}, io.EOF
}

// Parse reads every record from r.
func Parse(r io.Reader) ([]Record, error) {
	reader := NewReader(r)
	records := []Record{}

	for {
		rec, err := reader.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}

		records = append(records, rec)
	}
}

// Load reads every record from the trace file at path.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Parse(f)
}

func parseRecord(text string) (Record, error) {
	fields := strings.Fields(text)
	if len(fields) < 3 || len(fields) > 4 {
		return Record{}, fmt.Errorf("expected 3 or 4 fields, got %d", len(fields))
	}

	tid, err := strconv.Atoi(fields[0])
	if err != nil || tid < 0 {
		return Record{}, fmt.Errorf("invalid thread id %q", fields[0])
	}

	kind, err := parseKind(fields[1])
	if err != nil {
		return Record{}, err
	}

	addrText := strings.TrimPrefix(strings.ToLower(fields[2]), "0x")
	addr, err := strconv.ParseUint(addrText, 16, 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid address %q", fields[2])
	}

	rec := Record{ThreadID: tid, Kind: kind, Addr: addr}

	if kind != KindBranch {
		if len(fields) == 4 {
			return Record{}, fmt.Errorf("unexpected outcome on a %s record", kind)
		}
		return rec, nil
	}

	if len(fields) != 4 {
		return Record{}, fmt.Errorf("branch record needs an outcome")
	}

	switch strings.ToUpper(fields[3]) {
	case "T":
		rec.Taken = true
	case "N":
		rec.Taken = false
	default:
		return Record{}, fmt.Errorf("invalid branch outcome %q", fields[3])
	}

	return rec, nil
}

func parseKind(s string) (Kind, error) {
	switch strings.ToUpper(s) {
	case "L":
		return KindLoad, nil
	case "S":
		return KindStore, nil
	case "I":
		return KindFetch, nil
	case "B":
		return KindBranch, nil
	default:
		return 0, fmt.Errorf("invalid record kind %q", s)
	}
}
