package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/strrl/idea-vault/internal/db"
)

func newExportCommand(opts *options) *cobra.Command {
	var formatName string

	cmd := &cobra.Command{
		Use:   "export <path>",
		Short: "Write your ideas to a parquet, csv or json file",
		Long: `Export the signed-in account's ideas, newest first, through an embedded DuckDB.
The format comes from --format, else from the file extension, else parquet.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			format := db.FormatForPath(path)
			if formatName != "" {
				parsed, err := db.ParseFormat(formatName)
				if err != nil {
					return err
				}
				format = parsed
			}

			client, cleanup, err := opts.setup()
			if err != nil {
				return err
			}
			defer cleanup()

			_, ideas, err := fetchOwnIdeas(cmd, client)
			if err != nil {
				return err
			}

			conn, err := db.GetDB()
			if err != nil {
				return err
			}
			if err := db.ExportIdeas(cmd.Context(), conn, ideas, path, format); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d ideas to %s (%s)\n", len(ideas), path, format)
			return nil
		},
	}

	cmd.Flags().StringVar(&formatName, "format", "", "Output format: parquet, csv or json")
	return cmd
}
