package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Destroy the vault key",
	Long: `Wipe deletes the wrapped key, the recovery envelope and any cached
session. Every file encrypted under this vault becomes permanently
unreadable.`,
	Args: cobra.NoArgs,
	RunE: runWipe,
}

var wipeForce bool

func init() {
	rootCmd.AddCommand(wipeCmd)

	wipeCmd.Flags().BoolVarP(&wipeForce, "force", "f", false,
		"Skip the confirmation prompt")
}

func runWipe(cmd *cobra.Command, args []string) error {
	if !wipeForce {
		if jsonOutput {
			return reportError("Wipe failed", errors.New("--force is required with --json"))
		}

		printWarning("This permanently destroys the vault key. Encrypted files cannot be recovered.")
		fmt.Fprint(os.Stderr, `Type "wipe" to confirm: `)
		answer, _ := stdin.ReadString('\n')
		if strings.TrimSpace(answer) != "wipe" {
			printInfo("Aborted")
			return nil
		}
	}

	if err := apiClient.Vault.Wipe(commandContext()); err != nil {
		return reportError("Wipe failed", err)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true})
		return nil
	}

	printSuccess("Vault wiped")
	return nil
}
