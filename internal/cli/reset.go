package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/scbrown/cargo-sleek/internal/usage"
	"github.com/spf13/cobra"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all recorded usage statistics",
	Long: `Reset clears every usage record. Nothing is deleted unless --force is
given; without it the command only explains what it would do.`,
	Example: `  cargo-sleek reset
  cargo-sleek reset --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		done, err := usage.NewTracker(s).Reset(context.Background(), resetForce)
		if err != nil {
			return err
		}
		if !done {
			fmt.Fprintf(os.Stdout, "%s This deletes all statistics in %s.\n", warnText("warning:"), s.Path())
			fmt.Fprintln(os.Stdout, "Run again with --force to confirm.")
			return nil
		}
		fmt.Fprintln(os.Stdout, good("Statistics reset."))
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "confirm deleting all statistics")
	rootCmd.AddCommand(resetCmd)
}
