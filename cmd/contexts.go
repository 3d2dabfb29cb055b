package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tunnell/straxen/strax"
)

// NewContextsCommand returns the subcommand listing the registered
// processing contexts.
func NewContextsCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "contexts",
		Short: "contexts - list the registered processing contexts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range strax.Known() {
				fmt.Fprintln(stdout, name)
			}
			return nil
		},
	}
}

func init() {
	subcommandFns["contexts"] = NewContextsCommand
}
