package vault

import (
	"context"
	"errors"

	"github.com/TheMichaelB/pinvault/internal/crypto"
	"github.com/TheMichaelB/pinvault/internal/models"
)

// EncryptFile seals plaintext under the session key.
// Output layout: IV(12) || ciphertext || tag(16).
func (v *Vault) EncryptFile(ctx context.Context, plaintext []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	var blob []byte
	err := v.cache.Use(func(key []byte) error {
		var err error
		blob, err = v.crypto.EncryptData(plaintext, key)
		return err
	})
	if err != nil {
		return nil, v.fail("encrypt", err)
	}

	v.logger.WithField("size", len(plaintext)).Debug("Encrypted payload")
	return blob, nil
}

// DecryptFile opens a blob produced by EncryptFile. Truncated or modified
// blobs, and blobs sealed under another key, fail with
// models.ErrTamperedOrWrongKey.
func (v *Vault) DecryptFile(ctx context.Context, blob []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	var plaintext []byte
	err := v.cache.Use(func(key []byte) error {
		if len(blob) < crypto.NonceSize+crypto.TagSize {
			return models.ErrTamperedOrWrongKey
		}

		var err error
		plaintext, err = v.crypto.DecryptData(blob, key)
		if errors.Is(err, crypto.ErrDecryptionFailed) || errors.Is(err, crypto.ErrInvalidCiphertext) {
			return models.ErrTamperedOrWrongKey
		}
		return err
	})
	if err != nil {
		if errors.Is(err, models.ErrTamperedOrWrongKey) {
			v.logger.WithField("size", len(blob)).Warn("Blob failed authentication")
		}
		return nil, v.fail("decrypt", err)
	}

	v.logger.WithField("size", len(plaintext)).Debug("Decrypted payload")
	return plaintext, nil
}
