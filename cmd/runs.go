package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tunnell/straxen/rundb"
)

// NewRunsCommand returns the subcommand for inspecting the local run
// database: all run IDs with no argument, one run document with an argument.
func NewRunsCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var dbPath string
	runsCommand := &cobra.Command{
		Use:   "runs [RUN_ID]",
		Short: "runs - inspect the local run database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := rundb.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			if len(args) == 0 {
				ids, err := db.List()
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(stdout, id)
				}
				return nil
			}
			md, err := db.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "run %s: %s to %s (%.1f sec)",
				md.RunID, md.Start, md.End, md.Duration().Seconds())
			if md.Mode != "" {
				fmt.Fprintf(stdout, " mode %s", md.Mode)
			}
			fmt.Fprintln(stdout)
			return nil
		},
	}
	runsCommand.Flags().StringVar(&dbPath, "rundb", "./strax_data/runs.db", "Path to the local run database.")
	return runsCommand
}

func init() {
	subcommandFns["runs"] = NewRunsCommand
}
