package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/TheMichaelB/pinvault/internal/crypto"
	"github.com/TheMichaelB/pinvault/internal/models"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
)

// stdin is shared so piped input can feed several prompts.
var stdin = bufio.NewReader(os.Stdin)

// errReported is set once an error has been shown to the user.
var errReported bool

func printSuccess(format string, args ...interface{}) {
	successColor.Fprint(os.Stdout, "✓ ")
	fmt.Fprintf(os.Stdout, format+"\n", args...)
}

func printError(format string, args ...interface{}) {
	if jsonOutput {
		return
	}
	errorColor.Fprint(os.Stderr, "✗ ")
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func printWarning(format string, args ...interface{}) {
	warningColor.Fprint(os.Stderr, "⚠ ")
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func printInfo(format string, args ...interface{}) {
	infoColor.Fprint(os.Stdout, "→ ")
	fmt.Fprintf(os.Stdout, format+"\n", args...)
}

func printJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(v)
}

// reportError prints err in the selected output mode and returns it.
func reportError(action string, err error) error {
	errReported = true
	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": false,
			"code":    models.ErrorCode(err),
			"error":   err.Error(),
		})
	} else {
		printError("%s: %s", action, describeError(err))
	}
	return err
}

// describeError maps vault errors to short user-facing messages.
func describeError(err error) string {
	var policy *models.PolicyError
	switch {
	case errors.As(err, &policy):
		return policy.Error()
	case errors.Is(err, models.ErrInvalidPassword):
		return "incorrect password"
	case errors.Is(err, models.ErrNotInitialized):
		return `vault is not set up, run "pinvault setup" first`
	case errors.Is(err, models.ErrTamperedOrWrongKey):
		return "file was modified or encrypted under a different key"
	case errors.Is(err, models.ErrTooManyAttempts):
		return "too many attempts, wait and try again"
	case errors.Is(err, models.ErrInvalidRecoveryPhrase):
		return "recovery phrase does not match this vault"
	case errors.Is(err, models.ErrRecoveryNotEnabled):
		return `recovery is not enabled, run "pinvault recovery enable" while you still know the password`
	default:
		return err.Error()
	}
}

// promptPassword reads a password without echo, or a line from stdin when
// it is not a terminal.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := stdin.ReadString('\n')
		fmt.Fprintln(os.Stderr)
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	// Read password without echo
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr) // New line after password

	if err != nil {
		return "", err
	}

	return string(secret), nil
}

// readPassword returns the --password flag or prompts for one.
func readPassword(prompt string) (string, error) {
	if password != "" {
		return password, nil
	}
	pw, err := promptPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}

// readNewPassword prompts twice and requires both entries to match.
func readNewPassword(prompt string, fromFlag string) (string, error) {
	if fromFlag != "" {
		return fromFlag, nil
	}

	first, err := promptPassword(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	second, err := promptPassword("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}

// withSpinner runs fn behind a spinner when slow is set and output is a
// terminal.
func withSpinner(message string, slow bool, fn func() error) error {
	if !slow || jsonOutput || !term.IsTerminal(int(os.Stderr.Fd())) {
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	s.Start()
	defer s.Stop()

	return fn()
}

// configuredKDFSlow reports whether newly sealed envelopes use a slow KDF.
func configuredKDFSlow() bool {
	params, err := crypto.DefaultKDFParams(cfg.Vault.KDF)
	return err == nil && params.Slow()
}

// unlockVault unlocks the vault with the flag or prompted password.
func unlockVault() error {
	env, err := apiClient.Vault.Envelope()
	if err != nil {
		return err
	}

	pw, err := readPassword("Password: ")
	if err != nil {
		return err
	}

	return withSpinner("Deriving key...", env.KDF.Slow(), func() error {
		return apiClient.Vault.Unlock(commandContext(), pw)
	})
}
