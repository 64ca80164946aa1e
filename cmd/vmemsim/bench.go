package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/vmemsim/benchmarks"
)

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the synthetic translation benchmarks.",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}

	cmd.Flags().Bool("csv", false, "Output results in CSV format")
	cmd.Flags().Bool("json", false, "Output results in JSON format")
	cmd.Flags().Bool("core", false, "Run only the core benchmark set")
	cmd.MarkFlagsMutuallyExclusive("csv", "json")

	return cmd
}

func runBench(cmd *cobra.Command, _ []string) error {
	timing, err := loadTimingConfig(cmd)
	if err != nil {
		return err
	}

	config := benchmarks.DefaultConfig()
	config.Timing = timing
	config.Output = cmd.OutOrStdout()

	harness := benchmarks.NewHarness(config)
	if coreOnly, _ := cmd.Flags().GetBool("core"); coreOnly {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks(timing.MaxThreads))
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks(timing.MaxThreads))
	}

	results, err := harness.RunAll()
	if err != nil {
		return err
	}

	csvOutput, _ := cmd.Flags().GetBool("csv")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if !csvOutput && !jsonOutput {
		_, _ = fmt.Fprintln(config.Output, "vmemsim Translation Benchmark Harness")
		_, _ = fmt.Fprintln(config.Output, "=====================================")
		_, _ = fmt.Fprintf(config.Output, "TLB entries: %d\n", timing.TLBEntries)
		_, _ = fmt.Fprintf(config.Output, "Page-walk cache: %d bytes\n", timing.PTECacheSize)
		_, _ = fmt.Fprintln(config.Output, "")
	}

	switch {
	case csvOutput:
		harness.PrintCSV(results)
	case jsonOutput:
		return harness.PrintJSON(results)
	default:
		harness.PrintResults(results)
	}

	return nil
}
