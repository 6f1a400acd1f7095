package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fastygo/priority/pkg/isoduration"
)

var durationCmd = &cobra.Command{
	Use:   "duration <text>...",
	Short: "Parse ISO-8601 durations such as P7DT12H or PT30M",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDuration,
}

func init() {
	rootCmd.AddCommand(durationCmd)
}

func runDuration(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	failed := 0
	for _, arg := range args {
		d, err := isoduration.Parse(arg)
		if err != nil {
			failed++
			fmt.Fprintf(w, "%s\terror: %v\n", arg, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d min\n", arg, isoduration.Format(d), d, int(d.Minutes()))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d durations are malformed", failed, len(args))
	}
	return nil
}
