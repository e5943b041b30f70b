package vault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TheMichaelB/pinvault/internal/crypto"
	"github.com/TheMichaelB/pinvault/internal/models"
	"github.com/TheMichaelB/pinvault/internal/state"
)

// EnableRecovery wraps the session key under a new recovery phrase and
// returns the phrase. The phrase is not stored anywhere; losing it and
// the password loses the data. Calling again replaces the previous phrase.
func (v *Vault) EnableRecovery(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	env, err := v.loadEnvelope()
	if err != nil {
		return "", v.fail("enable recovery", err)
	}

	if !v.cache.Active() {
		return "", v.fail("enable recovery", models.ErrNoActiveSession)
	}

	phrase, err := crypto.NewRecoveryPhrase()
	if err != nil {
		return "", v.fail("enable recovery", err)
	}

	salt, err := v.crypto.GenerateSalt()
	if err != nil {
		return "", v.fail("enable recovery", err)
	}

	rk, err := crypto.DeriveRecoveryKey(phrase, salt)
	if err != nil {
		return "", v.fail("enable recovery", err)
	}
	defer crypto.Zero(rk)

	recovery := &models.KeyEnvelope{
		Version:   crypto.EnvelopeVersion,
		KeyID:     env.KeyID,
		KDF:       crypto.KDFParams{Algorithm: crypto.KDFRecovery},
		Salt:      salt,
		CreatedAt: time.Now().UTC(),
	}

	err = v.cache.Use(func(dek []byte) error {
		var werr error
		recovery.Nonce, recovery.WrappedDEK, werr = v.crypto.WrapKey(dek, rk, recovery.AssociatedData())
		return werr
	})
	if err != nil {
		return "", v.fail("enable recovery", err)
	}

	if err := v.writeEnvelope(models.RecordRecoveryEnvelope, recovery); err != nil {
		return "", v.fail("enable recovery", err)
	}

	v.logger.WithField("key_id", recovery.KeyID).Info("Recovery phrase issued")
	return phrase, nil
}

// RecoveryEnabled reports whether a recovery envelope is stored.
func (v *Vault) RecoveryEnabled() (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	_, err := v.store.Get(models.RecordRecoveryEnvelope)
	if errors.Is(err, state.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, v.fail("recovery status", &storeError{op: "read recovery envelope", err: err})
	}
	return true, nil
}

// Recover unwraps the data key with a recovery phrase, re-wraps it under
// newPassword and unlocks the vault. Existing blobs stay decryptable and
// the recovery phrase remains valid.
func (v *Vault) Recover(ctx context.Context, phrase, newPassword string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := v.CheckPassword(newPassword); err != nil {
		return v.fail("recover", err)
	}

	params, err := v.kdfParams()
	if err != nil {
		return v.fail("recover", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.allow(); err != nil {
		v.logger.Warn("Recovery throttled")
		return v.fail("recover", err)
	}

	recovery, err := v.readEnvelope(models.RecordRecoveryEnvelope)
	if errors.Is(err, state.ErrNotFound) {
		return v.fail("recover", models.ErrRecoveryNotEnabled)
	}
	if err != nil {
		return v.fail("recover", err)
	}

	rk, err := crypto.DeriveRecoveryKey(phrase, recovery.Salt)
	if errors.Is(err, crypto.ErrInvalidPhrase) {
		return v.fail("recover", models.ErrInvalidRecoveryPhrase)
	}
	if err != nil {
		return v.fail("recover", fmt.Errorf("derive recovery key: %w", err))
	}
	defer crypto.Zero(rk)

	dek, err := v.unwrap(recovery, rk, models.ErrInvalidRecoveryPhrase)
	if err != nil {
		v.logger.WithField("key_id", recovery.KeyID).Warn("Recovery failed")
		return v.fail("recover", err)
	}
	defer crypto.Zero(dek)

	env, err := v.seal(newPassword, dek, recovery.KeyID, params)
	if err != nil {
		return v.fail("recover", err)
	}

	if err := v.persistEnvelope(env); err != nil {
		return v.fail("recover", err)
	}

	if err := v.cache.Put(dek); err != nil {
		return v.fail("recover", err)
	}

	v.logger.WithFields(map[string]interface{}{
		"key_id": env.KeyID,
		"kdf":    env.KDF.Algorithm,
		"state":  models.StatusUnlocked.String(),
	}).Info("Vault recovered")

	return nil
}
