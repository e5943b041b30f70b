package main

import (
	"github.com/spf13/cobra"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the vault password",
	Long: `Passwd re-wraps the vault key under a new password. Files encrypted
before the change remain readable.`,
	Args: cobra.NoArgs,
	RunE: runPasswd,
}

var passwdNew string

func init() {
	rootCmd.AddCommand(passwdCmd)

	passwdCmd.Flags().StringVar(&passwdNew, "new-password", "",
		"New password (will prompt if not provided)")
}

func runPasswd(cmd *cobra.Command, args []string) error {
	ctx := commandContext()

	env, err := apiClient.Vault.Envelope()
	if err != nil {
		return reportError("Password change failed", err)
	}

	oldPw, err := readPassword("Current password: ")
	if err != nil {
		return reportError("Password change failed", err)
	}

	newPw, err := readNewPassword("New password: ", passwdNew)
	if err != nil {
		return reportError("Password change failed", err)
	}

	slow := env.KDF.Slow() || configuredKDFSlow()
	err = withSpinner("Re-wrapping key...", slow, func() error {
		return apiClient.Vault.ChangePassword(ctx, oldPw, newPw)
	})
	apiClient.Vault.Logout()
	if err != nil {
		return reportError("Password change failed", err)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"key_id":  env.KeyID,
		})
		return nil
	}

	printSuccess("Password changed")
	return nil
}
