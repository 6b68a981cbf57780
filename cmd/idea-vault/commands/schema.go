package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/strrl/idea-vault/internal/remote"
)

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the SQL that sets up the ideas table and its policies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), remote.Schema)
			return nil
		},
	}
}
