package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/strrl/idea-vault/internal/config"
	"github.com/strrl/idea-vault/internal/logging"
	"github.com/strrl/idea-vault/internal/remote"
	"github.com/strrl/idea-vault/internal/tui"
)

var errNotSignedIn = errors.New("not signed in: run idea-vault to sign in first")

type options struct {
	configFile string
	debug      bool
	// openClient builds the remote handle from the resolved configuration
	openClient func(cfg config.Config) (*remote.Client, error)
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	return newRootCommand(&options{
		openClient: func(cfg config.Config) (*remote.Client, error) {
			return remote.New(cfg)
		},
	})
}

func newRootCommand(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "idea-vault",
		Short: "Capture and review your ideas from the terminal",
		Long: `idea-vault is a TUI client for a personal idea vault.
Sign in or create an account, write down ideas and browse them newest first.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (default is $XDG_CONFIG_HOME/idea-vault/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Write debug-level logs")
	rootCmd.AddCommand(newShowCommand(opts))
	rootCmd.AddCommand(newExportCommand(opts))
	rootCmd.AddCommand(newDebugCommand(opts))
	rootCmd.AddCommand(newSchemaCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig resolves configuration and starts file logging
func (o *options) loadConfig() (config.Config, io.Closer, error) {
	cfg, err := config.Load(viper.New(), o.configFile)
	if err != nil {
		return config.Config{}, nil, err
	}

	logs, err := logging.Setup(cfg.LogFile, cfg.LogLevel, o.debug)
	if err != nil {
		return config.Config{}, nil, err
	}

	log.Debug().
		Str("configFile", cfg.ConfigFile).
		Str("supabaseUrl", cfg.SupabaseURL).
		Str("sessionFile", cfg.SessionFile).
		Msg("Configuration loaded")
	return cfg, logs, nil
}

// setup loads configuration and builds the remote handle. The returned
// cleanup closes both.
func (o *options) setup() (*remote.Client, func(), error) {
	cfg, logs, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	client, err := o.openClient(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to configure backend client")
		_ = logs.Close()
		return nil, nil, fmt.Errorf("failed to configure backend: %w", err)
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close backend client")
		}
		_ = logs.Close()
	}
	return client, cleanup, nil
}

func runTUI(cmd *cobra.Command, opts *options) error {
	client, cleanup, err := opts.setup()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := client.WatchSessionFile(); err != nil {
		log.Warn().Err(err).Msg("Session changes from other processes will not be noticed")
	}

	log.Info().Msg("Starting TUI")
	if err := tui.Run(cmd.Context(), client); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
