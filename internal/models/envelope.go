package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/TheMichaelB/pinvault/internal/crypto"
)

// Durable record names.
const (
	RecordEnvelope         = "envelope"
	RecordEnvelopePresent  = "envelope_present"
	RecordRecoveryEnvelope = "recovery_envelope"
)

// KeyEnvelope is the persisted, password-wrapped data key.
// Byte fields encode as base64 in JSON.
type KeyEnvelope struct {
	Version    int              `json:"version"`
	KeyID      string           `json:"key_id"`
	KDF        crypto.KDFParams `json:"kdf"`
	Salt       []byte           `json:"salt"`
	Nonce      []byte           `json:"nonce"`
	WrappedDEK []byte           `json:"wrapped_dek"`
	CreatedAt  time.Time        `json:"created_at"`
}

// AssociatedData binds the wrapped key to this envelope's key ID.
func (e *KeyEnvelope) AssociatedData() []byte {
	return []byte("pinvault-envelope-v1:" + e.KeyID)
}

// Validate checks structure and field sizes.
func (e *KeyEnvelope) Validate() error {
	if e.Version != crypto.EnvelopeVersion {
		return fmt.Errorf("unsupported envelope version %d", e.Version)
	}

	if strings.TrimSpace(e.KeyID) == "" {
		return fmt.Errorf("key ID is required")
	}

	if e.KDF.Algorithm == "" {
		return fmt.Errorf("kdf algorithm is required")
	}

	if e.KDF.Algorithm != crypto.KDFRecovery {
		if err := e.KDF.Validate(); err != nil {
			return err
		}
	}

	if len(e.Salt) != crypto.SaltSize {
		return fmt.Errorf("salt must be %d bytes, got %d", crypto.SaltSize, len(e.Salt))
	}

	if len(e.Nonce) != crypto.NonceSize {
		return fmt.Errorf("nonce must be %d bytes, got %d", crypto.NonceSize, len(e.Nonce))
	}

	if len(e.WrappedDEK) != crypto.WrappedKeySize {
		return fmt.Errorf("wrapped key must be %d bytes, got %d", crypto.WrappedKeySize, len(e.WrappedDEK))
	}

	if e.CreatedAt.IsZero() {
		return fmt.Errorf("created at timestamp is required")
	}

	return nil
}
