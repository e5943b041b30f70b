package main

import (
	"github.com/spf13/cobra"

	"github.com/TheMichaelB/pinvault/internal/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the vault is set up",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	status, err := apiClient.Vault.Status()
	if err != nil {
		return reportError("Status failed", err)
	}

	info := map[string]interface{}{
		"state":   status.String(),
		"backend": cfg.Storage.Backend,
	}
	if ephemeral {
		info["backend"] = "memory"
	}

	if status != models.StatusUninitialized {
		env, err := apiClient.Vault.Envelope()
		if err != nil {
			return reportError("Status failed", err)
		}
		recovery, err := apiClient.Vault.RecoveryEnabled()
		if err != nil {
			return reportError("Status failed", err)
		}

		info["key_id"] = env.KeyID
		info["kdf"] = env.KDF.Algorithm
		info["created_at"] = env.CreatedAt
		info["recovery"] = recovery
	}

	if jsonOutput {
		printJSON(info)
		return nil
	}

	if status == models.StatusUninitialized {
		printInfo("Vault is not set up")
		printInfo("Run \"pinvault setup\" to create one")
		return nil
	}

	printInfo("State:    %s", info["state"])
	printInfo("Key ID:   %s", info["key_id"])
	printInfo("KDF:      %s", info["kdf"])
	printInfo("Backend:  %s", info["backend"])
	printInfo("Recovery: %v", info["recovery"])
	return nil
}
