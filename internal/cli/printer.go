package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Color helpers. fatih/color disables itself when stdout is not a terminal
// or NO_COLOR is set.
var (
	heading  = color.New(color.Bold, color.FgCyan).SprintFunc()
	good     = color.New(color.FgGreen).SprintFunc()
	warnText = color.New(color.FgYellow).SprintFunc()
	badText  = color.New(color.FgRed).SprintFunc()
)

// printHeading writes a bold section title.
func printHeading(w io.Writer, title string) {
	fmt.Fprintln(w, heading(title))
}

// printError writes err to w in the form used for fatal messages.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", badText("error:"), err)
}

// writeJSON writes v as indented JSON to w.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
