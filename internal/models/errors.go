package models

import (
	"errors"
	"fmt"
)

// Error codes for structured error handling.
const (
	ErrCodeWeakPassword    = "WEAK_PASSWORD"
	ErrCodeInvalidPassword = "INVALID_PASSWORD"
	ErrCodeNoSession       = "NO_SESSION"
	ErrCodeTampered        = "TAMPERED"
	ErrCodeNotInitialized  = "NOT_INITIALIZED"
	ErrCodeEnvelopeCorrupt = "ENVELOPE_CORRUPT"
	ErrCodeRateLimit       = "RATE_LIMIT"
	ErrCodeRecovery        = "RECOVERY_ERROR"
	ErrCodeStorage         = "STORAGE_ERROR"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// Sentinel errors
var (
	ErrWeakPassword          = errors.New("password does not meet policy")
	ErrInvalidPassword       = errors.New("invalid password")
	ErrNoActiveSession       = errors.New("no active session")
	ErrTamperedOrWrongKey    = errors.New("data tampered or encrypted with a different key")
	ErrNotInitialized        = errors.New("vault not initialized")
	ErrEnvelopeCorrupt       = errors.New("key envelope corrupt")
	ErrTooManyAttempts       = errors.New("too many attempts")
	ErrInvalidRecoveryPhrase = errors.New("invalid recovery phrase")
	ErrRecoveryNotEnabled    = errors.New("recovery not enabled")
)

var sentinelCodes = []struct {
	err  error
	code string
}{
	{ErrWeakPassword, ErrCodeWeakPassword},
	{ErrInvalidPassword, ErrCodeInvalidPassword},
	{ErrNoActiveSession, ErrCodeNoSession},
	{ErrTamperedOrWrongKey, ErrCodeTampered},
	{ErrNotInitialized, ErrCodeNotInitialized},
	{ErrEnvelopeCorrupt, ErrCodeEnvelopeCorrupt},
	{ErrTooManyAttempts, ErrCodeRateLimit},
	{ErrInvalidRecoveryPhrase, ErrCodeRecovery},
	{ErrRecoveryNotEnabled, ErrCodeRecovery},
}

// VaultError is returned by vault operations.
type VaultError struct {
	Code string
	Op   string
	Err  error
}

func (e *VaultError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Code, e.Err)
}

func (e *VaultError) Unwrap() error {
	return e.Err
}

// NewVaultError wraps err for op, picking the code from the sentinel it wraps.
// An existing VaultError keeps its code and cause under the new op.
func NewVaultError(op string, err error) *VaultError {
	var ve *VaultError
	if errors.As(err, &ve) {
		return &VaultError{Code: ve.Code, Op: op, Err: ve.Err}
	}
	return &VaultError{Code: ErrorCode(err), Op: op, Err: err}
}

// ErrorCode returns the code for err, or ErrCodeInternal.
func ErrorCode(err error) string {
	var ve *VaultError
	if errors.As(err, &ve) && ve.Code != "" {
		return ve.Code
	}
	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.err) {
			return sc.code
		}
	}
	return ErrCodeInternal
}

// PolicyError describes a rejected password.
type PolicyError struct {
	MinLength int
	Length    int
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("password must be at least %d characters, got %d", e.MinLength, e.Length)
}

func (e *PolicyError) Unwrap() error {
	return ErrWeakPassword
}
