package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/strrl/idea-vault/internal/remote"
	"github.com/strrl/idea-vault/internal/tui"
	"github.com/strrl/idea-vault/pkg/models"
)

func newShowCommand(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List your saved ideas without the TUI",
		Long: `List the signed-in account's ideas, newest first, in a non-interactive format.
Requires a session saved by a previous sign-in.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cleanup, err := opts.setup()
			if err != nil {
				return err
			}
			defer cleanup()
			return runShow(cmd, client, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the ideas as JSON")
	return cmd
}

// fetchOwnIdeas returns the signed-in session and its ideas
func fetchOwnIdeas(cmd *cobra.Command, client *remote.Client) (*models.Session, []models.Idea, error) {
	session, err := client.GetSession(cmd.Context())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read session: %w", err)
	}
	if session == nil {
		return nil, nil, errNotSignedIn
	}

	ideas, err := client.ListIdeas(cmd.Context())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch ideas: %w", err)
	}
	return session, ideas, nil
}

func runShow(cmd *cobra.Command, client *remote.Client, asJSON bool) error {
	session, ideas, err := fetchOwnIdeas(cmd, client)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		data, err := json.MarshalIndent(ideas, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode ideas: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	printIdeas(out, session.Email, ideas, time.Local)
	return nil
}

func printIdeas(out io.Writer, email string, ideas []models.Idea, loc *time.Location) {
	if len(ideas) == 0 {
		fmt.Fprintf(out, "No ideas saved yet for %s\n", email)
		return
	}

	fmt.Fprintf(out, "Ideas for %s:\n", email)
	fmt.Fprintln(out, "===================================")
	for i, idea := range ideas {
		fmt.Fprintf(out, "%d. %s\n", i+1, tui.FormatDate(idea.CreatedAt, loc))
		for _, line := range strings.Split(idea.Content, "\n") {
			fmt.Fprintf(out, "   %s\n", line)
		}
		fmt.Fprintln(out)
	}
}
