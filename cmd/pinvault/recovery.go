package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var recoveryCmd = &cobra.Command{
	Use:   "recovery",
	Short: "Manage the recovery phrase",
}

var recoveryEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Create a recovery phrase for the vault key",
	Long: `Enable prints a 24-word recovery phrase that can reset the password
if it is forgotten. The phrase is shown once and never stored. Running
enable again replaces the previous phrase.`,
	Args: cobra.NoArgs,
	RunE: runRecoveryEnable,
}

var recoveryRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Set a new password using the recovery phrase",
	Example: `  pinvault recovery restore
  pinvault recovery restore --phrase "word1 word2 ... word24"`,
	Args: cobra.NoArgs,
	RunE: runRecoveryRestore,
}

var (
	recoveryPhrase      string
	recoveryNewPassword string
)

func init() {
	rootCmd.AddCommand(recoveryCmd)
	recoveryCmd.AddCommand(recoveryEnableCmd)
	recoveryCmd.AddCommand(recoveryRestoreCmd)

	recoveryRestoreCmd.Flags().StringVar(&recoveryPhrase, "phrase", "",
		"Recovery phrase (will prompt if not provided)")
	recoveryRestoreCmd.Flags().StringVar(&recoveryNewPassword, "new-password", "",
		"New password (will prompt if not provided)")
}

func runRecoveryEnable(cmd *cobra.Command, args []string) error {
	if err := unlockVault(); err != nil {
		return reportError("Recovery setup failed", err)
	}
	defer apiClient.Vault.Logout()

	phrase, err := apiClient.Vault.EnableRecovery(commandContext())
	if err != nil {
		return reportError("Recovery setup failed", err)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"phrase":  phrase,
		})
		return nil
	}

	printSuccess("Recovery phrase created")
	printWarning("Write these words down and keep them offline. They are not shown again.")
	words := strings.Fields(phrase)
	for i := 0; i < len(words); i += 6 {
		end := i + 6
		if end > len(words) {
			end = len(words)
		}
		line := make([]string, 0, 6)
		for j := i; j < end; j++ {
			line = append(line, fmt.Sprintf("%2d. %-10s", j+1, words[j]))
		}
		fmt.Fprintln(os.Stdout, "  "+strings.Join(line, " "))
	}
	return nil
}

func runRecoveryRestore(cmd *cobra.Command, args []string) error {
	ctx := commandContext()

	phrase := recoveryPhrase
	if phrase == "" {
		var err error
		phrase, err = promptPassword("Recovery phrase: ")
		if err != nil {
			return reportError("Recovery failed", fmt.Errorf("read phrase: %w", err))
		}
	}

	newPw, err := readNewPassword("New password: ", recoveryNewPassword)
	if err != nil {
		return reportError("Recovery failed", err)
	}

	err = withSpinner("Restoring access...", configuredKDFSlow(), func() error {
		return apiClient.Vault.Recover(ctx, phrase, newPw)
	})
	apiClient.Vault.Logout()
	if err != nil {
		return reportError("Recovery failed", err)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{"success": true})
		return nil
	}

	printSuccess("Password reset, existing files remain readable")
	return nil
}
