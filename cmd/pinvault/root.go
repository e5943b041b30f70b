package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/pinvault/internal/client"
	"github.com/TheMichaelB/pinvault/internal/config"
	"github.com/TheMichaelB/pinvault/internal/events"
)

var (
	// Global flags
	cfgFile    string
	jsonOutput bool
	verbose    bool
	ephemeral  bool
	password   string

	// Global instances
	cfg       *config.Config
	logger    *events.Logger
	apiClient *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "pinvault",
	Short: "Password-protected file encryption",
	Long: `pinvault encrypts files with a random data key that is itself
wrapped under a key derived from your password.

Run "pinvault setup" once, then encrypt and decrypt files. Changing the
password re-wraps the data key, so existing encrypted files stay readable.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initApp,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeApp()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default searches ./pinvault.yaml and ~/.config/pinvault/)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false,
		"keep the key envelope in memory for this run only")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "",
		"vault password (will prompt if not provided)")
}

func initApp(cmd *cobra.Command, args []string) error {
	// Config commands work without a valid environment
	if cmd.Parent() != nil && cmd.Parent().Name() == "config" {
		return nil
	}

	var err error
	cfg, err = config.NewLoader(cfgFile).Load()
	if err != nil {
		return reportError("Configuration error", err)
	}

	if verbose {
		cfg.Log.Level = "debug"
	}
	if jsonOutput {
		cfg.Log.Color = false
	}

	logger, err = events.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	events.SetDefault(logger)

	if ephemeral {
		apiClient, err = client.NewEphemeral(cfg, logger)
	} else {
		apiClient, err = client.New(cfg, logger)
	}
	if err != nil {
		return reportError("Failed to initialize", err)
	}

	return nil
}

func closeApp() {
	releaseContext()
	if apiClient != nil {
		if err := apiClient.Close(); err != nil && logger != nil {
			logger.WithError(err).Warn("Failed to close state store")
		}
		apiClient = nil
	}
	if logger != nil {
		_ = logger.Close()
		logger = nil
	}
}
