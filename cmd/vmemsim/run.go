package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/vmemsim/loader"
	"github.com/sarchlab/vmemsim/timing/core"
	"github.com/sarchlab/vmemsim/vmem"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <trace>",
		Short: "Replay a trace and print statistics.",
		Args:  cobra.ExactArgs(1),
		RunE:  runTrace,
	}

	cmd.Flags().String("trace-tlb", "",
		"Write every TLB event as CSV to this file")
	cmd.Flags().BoolP("verbose", "v", false, "Verbose output")

	return cmd
}

func runTrace(cmd *cobra.Command, args []string) error {
	config, err := loadTimingConfig(cmd)
	if err != nil {
		return err
	}

	tracePath := args[0]
	records, err := loader.Load(tracePath)
	if err != nil {
		return err
	}

	for i, rec := range records {
		if rec.ThreadID >= config.MaxThreads {
			return fmt.Errorf("record %d (%s): thread id exceeds %d threads",
				i, rec, config.MaxThreads)
		}
	}

	c := core.NewCore(config)

	if path, _ := cmd.Flags().GetString("trace-tlb"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create TLB trace file: %w", err)
		}
		defer func() { _ = f.Close() }()

		c.TLB().AcceptHook(vmem.NewTLBTracer(f))
	}

	out := cmd.OutOrStdout()
	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		_, _ = fmt.Fprintf(out, "Loaded: %s\n", tracePath)
		_, _ = fmt.Fprintf(out, "Records: %d\n", len(records))
		_, _ = fmt.Fprintf(out, "TLB entries: %d\n", config.TLBEntries)
		_, _ = fmt.Fprintf(out, "Threads: %d\n", config.MaxThreads)
	}

	stats := c.Run(records)
	printStats(out, tracePath, stats)

	return nil
}

func printStats(out io.Writer, tracePath string, stats core.Stats) {
	_, _ = fmt.Fprintf(out, "\n")
	_, _ = fmt.Fprintf(out, "Trace: %s\n", tracePath)
	_, _ = fmt.Fprintf(out, "Total Cycles: %d\n", stats.Cycles)
	_, _ = fmt.Fprintf(out, "Memory Ops: %d\n", stats.MemoryOps)
	_, _ = fmt.Fprintf(out, "Cycles/Translation: %.2f\n", stats.CyclesPerTranslation())
	_, _ = fmt.Fprintf(out, "\n")
	_, _ = fmt.Fprintf(out, "TLB:\n")
	_, _ = fmt.Fprintf(out, "  Accesses:  %d\n", stats.TLB.Accesses)
	_, _ = fmt.Fprintf(out, "  Misses:    %d\n", stats.TLB.Misses)
	_, _ = fmt.Fprintf(out, "  Evictions: %d\n", stats.TLB.Evictions)
	_, _ = fmt.Fprintf(out, "  Hit Rate:  %5.1f%%\n", 100*stats.TLB.HitRate())
	for tid, n := range stats.ThreadTranslations {
		if n > 0 {
			_, _ = fmt.Fprintf(out, "  Thread %d:  %d translations\n", tid, n)
		}
	}

	if stats.PTECache.Reads > 0 {
		_, _ = fmt.Fprintf(out, "\n")
		_, _ = fmt.Fprintf(out, "Page-Walk Cache:\n")
		_, _ = fmt.Fprintf(out, "  Reads:    %d\n", stats.PTECache.Reads)
		_, _ = fmt.Fprintf(out, "  Hit Rate: %5.1f%%\n", 100*stats.PTECache.HitRate())
	}

	if stats.Branches > 0 {
		_, _ = fmt.Fprintf(out, "\n")
		_, _ = fmt.Fprintf(out, "Branch Predictor:\n")
		_, _ = fmt.Fprintf(out, "  Branches:       %d\n", stats.Branches)
		_, _ = fmt.Fprintf(out, "  Mispredictions: %d\n", stats.Branch.Mispredictions)
		_, _ = fmt.Fprintf(out, "  Accuracy:       %5.1f%%\n", stats.Branch.Accuracy())
	}
}
