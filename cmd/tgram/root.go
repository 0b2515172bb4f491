// Copyright (c) 2025 tgram-dev

package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tgram",
	Short: "tgram runs a Telegram bot from a YAML config",
	Long: `tgram is the reference runner for the tgram bot library. It loads a
YAML config, wires up a long-polling or webhook fetcher, registers a small
set of demonstration handlers and runs until interrupted.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}
