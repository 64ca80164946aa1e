package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print or save the effective timing configuration.",
		Args:  cobra.NoArgs,
		RunE:  runConfig,
	}

	cmd.Flags().String("out", "", "Write the configuration to this file")

	return cmd
}

func runConfig(cmd *cobra.Command, _ []string) error {
	config, err := loadTimingConfig(cmd)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("out"); path != "" {
		return config.SaveConfig(path)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
