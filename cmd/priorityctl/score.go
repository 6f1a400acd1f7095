package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/priority/domain/priority"
)

var scoreJSON bool

var scoreCmd = &cobra.Command{
	Use:   "score <fixture.toml>",
	Short: "Score the tasks of a TOML fixture against its rules",
	Args:  cobra.ExactArgs(1),
	RunE:  runScore,
}

func init() {
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "print the breakdowns as JSON")
	rootCmd.AddCommand(scoreCmd)
}

type scoredTask struct {
	Title     string             `json:"title"`
	Breakdown priority.Breakdown `json:"breakdown"`
}

func runScore(cmd *cobra.Command, args []string) error {
	f, err := loadFixture(args[0])
	if err != nil {
		return err
	}
	results, err := scoreFixture(f)
	if err != nil {
		return err
	}
	if scoreJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	return printScores(cmd.OutOrStdout(), results)
}

// scoreFixture explains every task, highest score first.
func scoreFixture(f *fixture) ([]scoredTask, error) {
	now := time.Now().UTC()
	var opts []priority.EvaluatorOption
	if f.Now != nil {
		fixed := f.Now.UTC()
		now = fixed
		opts = append(opts, priority.WithClock(func() time.Time { return fixed }))
	}

	owner, err := f.owner()
	if err != nil {
		return nil, err
	}
	tasks, err := f.tasks(now)
	if err != nil {
		return nil, err
	}

	calculator := priority.NewCalculator(priority.NewEvaluator(opts...), zap.NewNop())
	results := make([]scoredTask, 0, len(tasks))
	for i := range tasks {
		breakdown, err := calculator.Explain(&tasks[i], owner)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", tasks[i].Title, err)
		}
		results = append(results, scoredTask{Title: tasks[i].Title, Breakdown: breakdown})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Breakdown.Score > results[j].Breakdown.Score
	})
	return results, nil
}

func printScores(out io.Writer, results []scoredTask) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tTASK\tMATCHED RULES")
	for _, r := range results {
		var matched []string
		for _, rule := range r.Breakdown.Rules {
			if rule.Matched {
				matched = append(matched, fmt.Sprintf("%s (%+d)", rule.Name, rule.Boost))
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", r.Breakdown.Score, r.Title, strings.Join(matched, ", "))
	}
	return w.Flush()
}
