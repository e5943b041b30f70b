package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/pinvault/internal/models"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the vault key and protect it with a password",
	Long: `Setup generates a random data key and wraps it under a key derived
from your password.

Running setup again replaces the key. Files encrypted under the old key
can no longer be decrypted, so --force is required when a vault exists.`,
	Example: `  pinvault setup
  pinvault setup --force`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

var setupForce bool

func init() {
	rootCmd.AddCommand(setupCmd)

	setupCmd.Flags().BoolVarP(&setupForce, "force", "f", false,
		"Replace an existing vault key")
}

func runSetup(cmd *cobra.Command, args []string) error {
	ctx := commandContext()

	exists, err := apiClient.Vault.HasEnvelope()
	if err != nil {
		return reportError("Setup failed", err)
	}
	if exists && !setupForce {
		return reportError("Setup failed",
			errors.New("vault already set up, use --force to replace the key (existing files become unreadable)"))
	}

	pw, err := readNewPassword("New password: ", password)
	if err != nil {
		return reportError("Setup failed", err)
	}

	// Fail fast before the confirmation spinner
	if err := apiClient.Vault.CheckPassword(pw); err != nil {
		return reportError("Setup failed", err)
	}

	var env *models.KeyEnvelope
	err = withSpinner("Deriving key...", configuredKDFSlow(), func() error {
		var err error
		env, err = apiClient.Vault.Setup(ctx, pw)
		return err
	})
	if err != nil {
		return reportError("Setup failed", err)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success":  true,
			"key_id":   env.KeyID,
			"kdf":      env.KDF.Algorithm,
			"replaced": exists,
		})
		return nil
	}

	printSuccess("Vault ready (key %s)", env.KeyID)
	if ephemeral {
		printWarning("Ephemeral mode: the key is discarded when this command exits")
	} else {
		printInfo("Run \"pinvault recovery enable\" to create a recovery phrase")
	}
	return nil
}
