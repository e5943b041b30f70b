package main

import (
	"context"

	"github.com/spf13/cobra"
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt <src> [dst]",
	Short: "Encrypt a file",
	Long: `Encrypt reads a file, encrypts it under the vault key and writes the
result to dst (default: src + ".enc") with owner-only permissions.`,
	Example: `  pinvault encrypt notes.md
  pinvault encrypt report.pdf backups/report.pdf.enc`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runEncrypt,
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt <src> [dst]",
	Short: "Decrypt a file",
	Long: `Decrypt reads a file produced by encrypt and writes the plaintext to
dst (default: src without ".enc").`,
	Example: `  pinvault decrypt notes.md.enc
  pinvault decrypt backups/report.pdf.enc report.pdf`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDecrypt,
}

var transformOverwrite bool

func init() {
	rootCmd.AddCommand(encryptCmd)
	rootCmd.AddCommand(decryptCmd)

	for _, c := range []*cobra.Command{encryptCmd, decryptCmd} {
		c.Flags().BoolVar(&transformOverwrite, "overwrite", false,
			"Replace the destination if it exists")
	}
}

func runEncrypt(cmd *cobra.Command, args []string) error {
	return runTransform(args, "Encrypt", "Encrypted", apiClient.EncryptPath)
}

func runDecrypt(cmd *cobra.Command, args []string) error {
	return runTransform(args, "Decrypt", "Decrypted", apiClient.DecryptPath)
}

type transformFunc func(ctx context.Context, src, dst string) (string, error)

func runTransform(args []string, action, verb string, fn transformFunc) error {
	src, dst := args[0], ""
	if len(args) > 1 {
		dst = args[1]
	}

	if transformOverwrite {
		apiClient.SetOverwrite(true)
	}

	if err := unlockVault(); err != nil {
		return reportError(action+" failed", err)
	}
	defer apiClient.Vault.Logout()

	out, err := fn(commandContext(), src, dst)
	if err != nil {
		return reportError(action+" failed", err)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"src":     src,
			"dst":     out,
		})
		return nil
	}

	printSuccess("%s %s -> %s", verb, src, out)
	return nil
}
