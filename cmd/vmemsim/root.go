package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/vmemsim/timing/latency"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vmemsim",
		Short: "vmemsim simulates the address-translation fast path of a multi-threaded core.",
		Long: `vmemsim replays memory-reference traces through a shared, ` +
			`per-thread-tagged TLB with LRU replacement and reports hit rates, ` +
			`page-walk behaviour and branch prediction accuracy.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "",
		"Path to timing configuration JSON file")
	rootCmd.PersistentFlags().Int("tlb-entries", 0,
		"Number of TLB entries (overrides the config file)")
	rootCmd.PersistentFlags().Int("threads", 0,
		"Number of thread contexts (overrides the config file)")
	rootCmd.PersistentFlags().String("bpred", "",
		"Branch predictor: nottaken, taken, bimodal or gshare")
	rootCmd.PersistentFlags().Int("hist-len", 0,
		"Branch history length in bits")

	rootCmd.AddCommand(newRunCmd(), newBenchCmd(), newConfigCmd())

	return rootCmd
}

// Execute runs the root command and exits on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadTimingConfig builds the timing configuration from the config file and
// the override flags.
func loadTimingConfig(cmd *cobra.Command) (*latency.TimingConfig, error) {
	flags := cmd.Flags()

	config := latency.DefaultTimingConfig()
	if path, _ := flags.GetString("config"); path != "" {
		var err error
		config, err = latency.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	if n, _ := flags.GetInt("tlb-entries"); flags.Changed("tlb-entries") {
		config.TLBEntries = n
	}
	if n, _ := flags.GetInt("threads"); flags.Changed("threads") {
		config.MaxThreads = n
	}
	if name, _ := flags.GetString("bpred"); flags.Changed("bpred") {
		config.BranchPredictor = name
	}
	if n, _ := flags.GetInt("hist-len"); flags.Changed("hist-len") {
		config.HistoryLength = n
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timing config: %w", err)
	}

	return config, nil
}
