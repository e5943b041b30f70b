package crypto

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/hkdf"
)

// KDFRecovery marks envelopes wrapped under a recovery phrase.
const KDFRecovery = "bip39-hkdf-sha256"

const recoveryInfo = "pinvault-recovery-v1"

// ErrInvalidPhrase is returned for a mnemonic that fails BIP-39 validation.
var ErrInvalidPhrase = errors.New("invalid recovery phrase")

// NewRecoveryPhrase returns a 24-word BIP-39 mnemonic.
func NewRecoveryPhrase() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	defer Zero(entropy)

	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("build mnemonic: %w", err)
	}
	return phrase, nil
}

// NormalizePhrase trims and collapses whitespace and lowercases the words.
func NormalizePhrase(phrase string) string {
	return strings.ToLower(strings.Join(strings.Fields(phrase), " "))
}

// DeriveRecoveryKey derives a key-encryption key from a recovery phrase.
func DeriveRecoveryKey(phrase string, salt []byte) ([]byte, error) {
	if len(salt) < SaltSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSalt, len(salt))
	}

	phrase = NormalizePhrase(phrase)
	if !bip39.IsMnemonicValid(phrase) {
		return nil, ErrInvalidPhrase
	}

	seed := bip39.NewSeed(phrase, "")
	defer Zero(seed)

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, seed, salt, []byte(recoveryInfo)), key); err != nil {
		return nil, fmt.Errorf("hkdf expand: %w", err)
	}
	return key, nil
}
