// Command btreedb is the operation-surface CLI over the B+ tree core: LOAD
// builds a table (and optionally an index) from a file of lines, SELECT
// runs an indexed or full-scan query against one, and script replays a
// batch file of LOAD/SELECT lines. None of the three subcommands contain
// SQL grammar beyond the two fixed keyword shapes script itself parses;
// every other flag is already structured before it reaches internal/query
// or internal/load.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"btreedb/internal/obslog"
)

var verbose bool

func main() {
	root := &cobra.Command{
		Use:           "btreedb",
		Short:         "disk-resident B+ tree index and indexed SELECT",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug diagnostics")

	root.AddCommand(newLoadCmd())
	root.AddCommand(newSelectCmd())
	root.AddCommand(newScriptCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func log() zerolog.Logger {
	return obslog.New(os.Stderr, verbose)
}
