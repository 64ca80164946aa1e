package vmem

import (
	"fmt"
	"io"

	"github.com/sarchlab/akita/v4/sim"
)

// A TLBTracer writes one CSV line for every TLB event it observes:
//
//	clock,name,event,thread,vpn,pfn
type TLBTracer struct {
	writer io.Writer
}

// NewTLBTracer creates a TLBTracer that writes to w.
func NewTLBTracer(w io.Writer) *TLBTracer {
	return &TLBTracer{writer: w}
}

// Func prints the trace line.
func (t *TLBTracer) Func(ctx sim.HookCtx) {
	tlb, ok := ctx.Domain.(*TLB)
	if !ok {
		return
	}

	entry, ok := ctx.Item.(Entry)
	if !ok {
		return
	}

	_, err := fmt.Fprintf(t.writer, "%d,%s,%s,%d,0x%x,0x%x\n",
		tlb.Clock(),
		tlb.Name(),
		ctx.Pos.Name,
		entry.ThreadID,
		entry.VPN,
		entry.PFN)
	if err != nil {
		panic(err)
	}
}
