// Package main implements priorityctl, an offline companion to the priority
// service for checking duration strings and rule sets.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "priorityctl",
	Short:         "Inspect ISO-8601 durations and score tasks against priority rules",
	SilenceUsage:  true,
	SilenceErrors: false,
}
