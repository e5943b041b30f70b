// Package vault implements password-based envelope encryption: a random
// data key wrapped under a password-derived key, a session that holds the
// unwrapped data key, and whole-file encryption under that key.
package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/TheMichaelB/pinvault/internal/config"
	"github.com/TheMichaelB/pinvault/internal/crypto"
	"github.com/TheMichaelB/pinvault/internal/events"
	"github.com/TheMichaelB/pinvault/internal/models"
	"github.com/TheMichaelB/pinvault/internal/session"
	"github.com/TheMichaelB/pinvault/internal/state"
)

// Vault owns the envelope store and the session cache.
// Mutating operations are serialized; file encryption runs concurrently.
type Vault struct {
	store   state.Store
	cache   *session.Cache
	crypto  crypto.Provider
	policy  config.VaultConfig
	limiter *rate.Limiter
	logger  *events.Logger

	mu sync.RWMutex
}

// New creates a vault. A nil cache gets a fresh one.
func New(store state.Store, cache *session.Cache, provider crypto.Provider, cfg config.VaultConfig, logger *events.Logger) *Vault {
	if cache == nil {
		cache = session.NewCache()
	}
	if logger == nil {
		logger = events.Discard()
	}

	v := &Vault{
		store:  store,
		cache:  cache,
		crypto: provider,
		policy: cfg,
		logger: logger.WithField("component", "vault"),
	}

	if cfg.UnlockRate > 0 {
		burst := cfg.UnlockBurst
		if burst < 1 {
			burst = 1
		}
		v.limiter = rate.NewLimiter(rate.Limit(cfg.UnlockRate), burst)
	}

	return v
}

// Status reports the lifecycle state.
func (v *Vault) Status() (models.Status, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.cache.Active() {
		return models.StatusUnlocked, nil
	}

	present, err := v.hasEnvelope()
	if err != nil {
		return models.StatusUninitialized, v.fail("status", err)
	}
	if present {
		return models.StatusLocked, nil
	}
	return models.StatusUninitialized, nil
}

// IsUnlocked reports whether a session key is cached.
func (v *Vault) IsUnlocked() bool {
	return v.cache.Active()
}

// Logout drops the session key. The envelope is untouched.
func (v *Vault) Logout() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cache.Clear()
	v.logger.WithField("state", models.StatusLocked.String()).Info("Session closed")
}

// Wipe destroys the envelope, the recovery envelope and the session key.
// Every blob encrypted under this vault becomes unrecoverable.
func (v *Vault) Wipe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.cache.Clear()

	if err := v.store.Reset(); err != nil {
		return v.fail("wipe", err)
	}

	v.logger.WithField("state", models.StatusUninitialized.String()).Warn("Vault wiped")
	return nil
}

// allow consumes one unlock attempt from the limiter.
func (v *Vault) allow() error {
	if v.limiter != nil && !v.limiter.Allow() {
		return models.ErrTooManyAttempts
	}
	return nil
}

// fail wraps err as a VaultError for op. Errors already carrying a code
// pass through with the new op.
func (v *Vault) fail(op string, err error) error {
	ve := models.NewVaultError(op, err)
	if ve.Code == models.ErrCodeInternal && isStorageError(err) {
		ve.Code = models.ErrCodeStorage
	}
	return ve
}

func isStorageError(err error) bool {
	return errors.Is(err, state.ErrStateCorrupt) || errors.Is(err, state.ErrInvalidName) ||
		errors.As(err, new(*storeError))
}

// storeError marks failures reported by the state store.
type storeError struct {
	op  string
	err error
}

func (e *storeError) Error() string {
	return fmt.Sprintf("%s: %v", e.op, e.err)
}

func (e *storeError) Unwrap() error {
	return e.err
}
