package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/scbrown/cargo-sleek/internal/usage"
	"github.com/spf13/cobra"
)

var timeTrackerCmd = &cobra.Command{
	Use:   "time-tracker",
	Short: "Show the average run time of each command",
	Long: `Time-tracker lists the mean duration of every forwarded command that has
finished at least once, slowest first.`,
	Example: `  cargo-sleek time-tracker
  cargo-sleek time-tracker --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		avgs := usage.NewTracker(s).Averages(context.Background())
		if jsonOutput {
			if avgs == nil {
				avgs = []usage.Average{}
			}
			return writeJSON(os.Stdout, avgs)
		}
		writeAverages(os.Stdout, avgs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(timeTrackerCmd)
}

func writeAverages(w io.Writer, avgs []usage.Average) {
	if len(avgs) == 0 {
		fmt.Fprintln(w, "No timing data recorded yet.")
		return
	}
	printHeading(w, "Execution time tracker")
	tbl := NewTable(w, "COMMAND", "RUNS", "AVG_TIME")
	for _, a := range avgs {
		tbl.Row(a.Name, strconv.Itoa(a.Samples), a.Mean.Round(time.Millisecond).String())
	}
	tbl.Flush()
}
