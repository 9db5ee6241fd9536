package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/scbrown/cargo-sleek/internal/usage"
	"github.com/spf13/cobra"
)

var historyLimit int

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show when each command was last run",
	Long: `Log lists every recorded command, most used first, with the times it
was run, newest first.`,
	Example: `  cargo-sleek log
  cargo-sleek log --limit 0
  cargo-sleek log --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		entries := usage.NewTracker(s).History(context.Background(), historyLimit)
		if jsonOutput {
			return writeJSON(os.Stdout, entries)
		}
		writeHistory(os.Stdout, entries)
		return nil
	},
}

func init() {
	logCmd.Flags().IntVar(&historyLimit, "limit", 5, "times to show per command (0 shows all)")
	rootCmd.AddCommand(logCmd)
}

func writeHistory(w io.Writer, entries []usage.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No usage data recorded yet.")
		return
	}
	printHeading(w, "Cargo command log")
	for _, e := range entries {
		fmt.Fprintf(w, "%s (%d)\n", good(e.Name), e.Count)
		for _, ts := range e.Times {
			fmt.Fprintf(w, "  %s\n", ts.Local().Format(time.DateTime))
		}
	}
}
