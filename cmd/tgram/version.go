// Copyright (c) 2025 tgram-dev

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X main.Version=...".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tgram version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tgram %s\n", Version)
	},
}
