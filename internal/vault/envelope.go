package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/TheMichaelB/pinvault/internal/crypto"
	"github.com/TheMichaelB/pinvault/internal/models"
	"github.com/TheMichaelB/pinvault/internal/state"
)

var presentFlag = []byte("1")

// Setup creates a new data key and wraps it under password. Any existing
// envelope and recovery envelope are replaced, so blobs encrypted before
// Setup can no longer be decrypted. The vault is unlocked afterwards.
func (v *Vault) Setup(ctx context.Context, password string) (*models.KeyEnvelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Policy first so a rejected password leaves no trace
	if err := v.CheckPassword(password); err != nil {
		return nil, v.fail("setup", err)
	}

	params, err := v.kdfParams()
	if err != nil {
		return nil, v.fail("setup", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	dek, err := v.crypto.GenerateKey()
	if err != nil {
		return nil, v.fail("setup", err)
	}
	defer crypto.Zero(dek)

	env, err := v.seal(password, dek, uuid.NewString(), params)
	if err != nil {
		return nil, v.fail("setup", err)
	}

	// A recovery envelope wraps the old key, so it must be gone before the
	// new envelope lands.
	if err := v.store.Delete(models.RecordRecoveryEnvelope); err != nil {
		return nil, v.fail("setup", &storeError{op: "delete recovery envelope", err: err})
	}

	if err := v.persistEnvelope(env); err != nil {
		return nil, v.fail("setup", err)
	}

	if err := v.cache.Put(dek); err != nil {
		return nil, v.fail("setup", err)
	}

	v.logger.WithFields(map[string]interface{}{
		"key_id": env.KeyID,
		"kdf":    env.KDF.Algorithm,
		"state":  models.StatusUnlocked.String(),
	}).Info("Vault initialized")

	return env, nil
}

// Unlock derives the key-encryption key from password, unwraps the data
// key and caches it. A failed attempt leaves the session unchanged.
func (v *Vault) Unlock(ctx context.Context, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.allow(); err != nil {
		v.logger.Warn("Unlock throttled")
		return v.fail("unlock", err)
	}

	env, err := v.loadEnvelope()
	if err != nil {
		return v.fail("unlock", err)
	}

	dek, err := v.open(password, env)
	if err != nil {
		v.logger.WithField("key_id", env.KeyID).Warn("Unlock failed")
		return v.fail("unlock", err)
	}
	defer crypto.Zero(dek)

	if err := v.cache.Put(dek); err != nil {
		return v.fail("unlock", err)
	}

	v.logger.WithFields(map[string]interface{}{
		"key_id": env.KeyID,
		"kdf":    env.KDF.Algorithm,
		"state":  models.StatusUnlocked.String(),
	}).Info("Vault unlocked")

	return nil
}

// HasEnvelope reports whether Setup has completed. It reads only the
// presence flag and derives no key.
func (v *Vault) HasEnvelope() (bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	present, err := v.hasEnvelope()
	if err != nil {
		return false, v.fail("has envelope", err)
	}
	return present, nil
}

// Envelope returns the stored envelope without unwrapping it.
func (v *Vault) Envelope() (*models.KeyEnvelope, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	env, err := v.loadEnvelope()
	if err != nil {
		return nil, v.fail("envelope", err)
	}
	return env, nil
}

// ChangePassword re-wraps the existing data key under newPassword.
// Blobs encrypted before the change stay decryptable.
func (v *Vault) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := v.CheckPassword(newPassword); err != nil {
		return v.fail("change password", err)
	}

	params, err := v.kdfParams()
	if err != nil {
		return v.fail("change password", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.allow(); err != nil {
		return v.fail("change password", err)
	}

	env, err := v.loadEnvelope()
	if err != nil {
		return v.fail("change password", err)
	}

	dek, err := v.open(oldPassword, env)
	if err != nil {
		return v.fail("change password", err)
	}
	defer crypto.Zero(dek)

	next, err := v.seal(newPassword, dek, env.KeyID, params)
	if err != nil {
		return v.fail("change password", err)
	}

	if err := v.persistEnvelope(next); err != nil {
		return v.fail("change password", err)
	}

	if err := v.cache.Put(dek); err != nil {
		return v.fail("change password", err)
	}

	v.logger.WithFields(map[string]interface{}{
		"key_id": next.KeyID,
		"kdf":    next.KDF.Algorithm,
	}).Info("Password changed")

	return nil
}

// CheckPassword applies the password policy. Length is counted in runes
// after NFKC normalization.
func (v *Vault) CheckPassword(password string) error {
	n := utf8.RuneCountInString(crypto.NormalizePassword(password))
	if n < v.policy.MinPasswordLength {
		return &models.PolicyError{MinLength: v.policy.MinPasswordLength, Length: n}
	}
	return nil
}

// Helper methods

// kdfParams returns the derivation parameters for new envelopes.
func (v *Vault) kdfParams() (crypto.KDFParams, error) {
	params, err := crypto.DefaultKDFParams(v.policy.KDF)
	if err != nil {
		return crypto.KDFParams{}, err
	}
	if params.Algorithm == crypto.KDFPBKDF2 && v.policy.PBKDF2Iterations > 0 {
		params.Iterations = v.policy.PBKDF2Iterations
	}
	return params, nil
}

// seal wraps dek under a key derived from password with a fresh salt.
func (v *Vault) seal(password string, dek []byte, keyID string, params crypto.KDFParams) (*models.KeyEnvelope, error) {
	salt, err := v.crypto.GenerateSalt()
	if err != nil {
		return nil, err
	}

	kek, err := v.crypto.DeriveKey(password, salt, params)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	defer crypto.Zero(kek)

	env := &models.KeyEnvelope{
		Version:   crypto.EnvelopeVersion,
		KeyID:     keyID,
		KDF:       params,
		Salt:      salt,
		CreatedAt: time.Now().UTC(),
	}

	env.Nonce, env.WrappedDEK, err = v.crypto.WrapKey(dek, kek, env.AssociatedData())
	if err != nil {
		return nil, fmt.Errorf("wrap key: %w", err)
	}

	return env, nil
}

// open unwraps the data key with the parameters recorded in env.
func (v *Vault) open(password string, env *models.KeyEnvelope) ([]byte, error) {
	kek, err := v.crypto.DeriveKey(password, env.Salt, env.KDF)
	if err != nil {
		if errors.Is(err, crypto.ErrUnsupportedKDF) || errors.Is(err, crypto.ErrInvalidSalt) ||
			errors.Is(err, crypto.ErrInvalidKDFParams) {
			return nil, fmt.Errorf("%w: %v", models.ErrEnvelopeCorrupt, err)
		}
		return nil, fmt.Errorf("derive key: %w", err)
	}
	defer crypto.Zero(kek)

	return v.unwrap(env, kek, models.ErrInvalidPassword)
}

// unwrap opens env with kek, reporting authentication failure as authErr.
func (v *Vault) unwrap(env *models.KeyEnvelope, kek []byte, authErr error) ([]byte, error) {
	dek, err := v.crypto.UnwrapKey(env.Nonce, env.WrappedDEK, kek, env.AssociatedData())
	switch {
	case err == nil:
		return dek, nil
	case errors.Is(err, crypto.ErrDecryptionFailed):
		return nil, authErr
	case errors.Is(err, crypto.ErrInvalidCiphertext), errors.Is(err, crypto.ErrInvalidKey):
		return nil, fmt.Errorf("%w: %v", models.ErrEnvelopeCorrupt, err)
	default:
		return nil, err
	}
}

func (v *Vault) hasEnvelope() (bool, error) {
	_, err := v.store.Get(models.RecordEnvelopePresent)
	if errors.Is(err, state.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &storeError{op: "read envelope flag", err: err}
	}
	return true, nil
}

// loadEnvelope reads and validates the password envelope.
func (v *Vault) loadEnvelope() (*models.KeyEnvelope, error) {
	present, err := v.hasEnvelope()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, models.ErrNotInitialized
	}

	env, err := v.readEnvelope(models.RecordEnvelope)
	if errors.Is(err, state.ErrNotFound) {
		return nil, fmt.Errorf("%w: flag set but record missing", models.ErrEnvelopeCorrupt)
	}
	return env, err
}

// readEnvelope decodes a stored envelope record. A missing record is
// reported as state.ErrNotFound.
func (v *Vault) readEnvelope(name string) (*models.KeyEnvelope, error) {
	data, err := v.store.Get(name)
	if errors.Is(err, state.ErrNotFound) {
		return nil, err
	}
	if errors.Is(err, state.ErrStateCorrupt) {
		return nil, fmt.Errorf("%w: %v", models.ErrEnvelopeCorrupt, err)
	}
	if err != nil {
		return nil, &storeError{op: "read " + name, err: err}
	}

	var env models.KeyEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", models.ErrEnvelopeCorrupt, name, err)
	}

	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrEnvelopeCorrupt, name, err)
	}

	return &env, nil
}

// persistEnvelope writes the envelope, then the presence flag.
func (v *Vault) persistEnvelope(env *models.KeyEnvelope) error {
	if err := v.writeEnvelope(models.RecordEnvelope, env); err != nil {
		return err
	}

	if err := v.store.Put(models.RecordEnvelopePresent, presentFlag); err != nil {
		return &storeError{op: "write envelope flag", err: err}
	}

	return nil
}

func (v *Vault) writeEnvelope(name string, env *models.KeyEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	if err := v.store.Put(name, data); err != nil {
		return &storeError{op: "write " + name, err: err}
	}
	return nil
}
