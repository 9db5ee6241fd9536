package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/scbrown/cargo-sleek/internal/model"
	"github.com/scbrown/cargo-sleek/internal/usage"
	"github.com/spf13/cobra"
)

var statsTop int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the most used cargo commands",
	Long: `Display every recorded command ranked by how often it ran, with the time
it last ran. Commands with the same count are listed alphabetically.

Counts include runs that failed: a command is recorded before cargo starts.`,
	Example: `  cargo-sleek stats
  cargo-sleek stats --top 5
  cargo-sleek stats --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		records := usage.NewTracker(s).Ranked(context.Background())
		if statsTop > 0 && len(records) > statsTop {
			records = records[:statsTop]
		}

		if jsonOutput {
			return writeStatsJSON(os.Stdout, records)
		}
		writeStatsTable(os.Stdout, records, time.Now())
		return nil
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsTop, "top", 0, "show only the N most used commands (0 shows all)")
	rootCmd.AddCommand(statsCmd)
}

type statsRow struct {
	Rank     int        `json:"rank"`
	Command  string     `json:"command"`
	Count    int        `json:"count"`
	LastUsed *time.Time `json:"last_used,omitempty"`
}

// writeStatsJSON writes ranked records as a JSON array to w.
func writeStatsJSON(w io.Writer, records []model.UsageRecord) error {
	rows := make([]statsRow, 0, len(records))
	for i, r := range records {
		row := statsRow{Rank: i + 1, Command: r.Name, Count: r.Count}
		if lu := r.LastUsedAt(); !lu.IsZero() {
			row.LastUsed = &lu
		}
		rows = append(rows, row)
	}
	return writeJSON(w, rows)
}

// writeStatsTable writes ranked records as an aligned table to w, or a short
// notice when there are none.
func writeStatsTable(w io.Writer, records []model.UsageRecord, now time.Time) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No usage data recorded yet.")
		return
	}

	printHeading(w, "Most used cargo commands")
	tbl := NewTable(w, "RANK", "COMMAND", "COUNT", "LAST_USED")
	maxCmd := tbl.Width() / 2
	for i, r := range records {
		lastUsed := "-"
		if lu := r.LastUsedAt(); !lu.IsZero() {
			lastUsed = humanize.RelTime(lu, now, "ago", "from now")
		}
		tbl.Row(
			strconv.Itoa(i+1),
			good(truncate(r.Name, maxCmd)),
			strconv.Itoa(r.Count),
			lastUsed,
		)
	}
	tbl.Flush()
}
