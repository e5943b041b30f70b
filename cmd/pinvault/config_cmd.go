package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/pinvault/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write an example config file",
	Example: `  pinvault config init
  pinvault config init ./pinvault.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return reportError("Config init failed", err)
		}
		path = filepath.Join(home, ".config", "pinvault", "pinvault.json")
	}

	if _, err := os.Stat(path); err == nil {
		printWarning("Overwriting %s", path)
	}

	if err := config.SaveExample(path); err != nil {
		return reportError("Config init failed", err)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true, "path": path})
		return nil
	}
	printSuccess("Wrote %s", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	loaded, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return reportError("Config show failed", err)
	}
	printJSON(loaded)
	return nil
}
