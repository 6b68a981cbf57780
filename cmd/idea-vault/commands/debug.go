package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/strrl/idea-vault/internal/remote"
)

// newDebugCommand prints what the session cache holds, without tokens
func newDebugCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "debug-session",
		Short: "Show the cached session's account and expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logs, err := opts.loadConfig()
			if err != nil {
				return err
			}
			defer logs.Close()

			out := cmd.OutOrStdout()
			store := remote.NewSessionStore(cfg.SessionFile)
			fmt.Fprintf(out, "Session file: %s\n", store.Path())
			fmt.Fprintln(out, "==========================================")

			session, err := store.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to read session file: %w", err)
			}
			if session == nil {
				fmt.Fprintln(out, "No cached session")
				return nil
			}

			fmt.Fprintf(out, "Account: %s\n", session.UserID)
			fmt.Fprintf(out, "Email:   %s\n", session.Email)
			if session.ExpiresAt.IsZero() {
				fmt.Fprintln(out, "Expires: never")
				return nil
			}
			state := "valid"
			if session.Expired(time.Now()) {
				state = "expired, will refresh on next use"
			}
			fmt.Fprintf(out, "Expires: %s (%s)\n", session.ExpiresAt.Local().Format(time.RFC3339), state)
			return nil
		},
	}
}
