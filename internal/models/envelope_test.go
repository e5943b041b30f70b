package models_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/pinvault/internal/crypto"
	"github.com/TheMichaelB/pinvault/internal/models"
)

func validEnvelope() *models.KeyEnvelope {
	return &models.KeyEnvelope{
		Version:    crypto.EnvelopeVersion,
		KeyID:      "4f1c2d7e-0000-4000-8000-000000000001",
		KDF:        crypto.KDFParams{Algorithm: crypto.KDFSHA256},
		Salt:       bytes.Repeat([]byte{1}, crypto.SaltSize),
		Nonce:      bytes.Repeat([]byte{2}, crypto.NonceSize),
		WrappedDEK: bytes.Repeat([]byte{3}, crypto.WrappedKeySize),
		CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestKeyEnvelopeValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*models.KeyEnvelope)
		wantErr string
	}{
		{"valid", func(e *models.KeyEnvelope) {}, ""},
		{"wrong version", func(e *models.KeyEnvelope) { e.Version = 2 }, "unsupported envelope version"},
		{"missing key id", func(e *models.KeyEnvelope) { e.KeyID = " " }, "key ID is required"},
		{"missing kdf", func(e *models.KeyEnvelope) { e.KDF.Algorithm = "" }, "kdf algorithm"},
		{"short salt", func(e *models.KeyEnvelope) { e.Salt = e.Salt[:8] }, "salt must be 16 bytes"},
		{"short nonce", func(e *models.KeyEnvelope) { e.Nonce = nil }, "nonce must be 12 bytes"},
		{"truncated key", func(e *models.KeyEnvelope) { e.WrappedDEK = e.WrappedDEK[:32] }, "wrapped key must be 48 bytes"},
		{"zero time", func(e *models.KeyEnvelope) { e.CreatedAt = time.Time{} }, "created at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := validEnvelope()
			tt.modify(env)

			err := env.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestKeyEnvelopeJSON(t *testing.T) {
	env := validEnvelope()

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kdf":{"algorithm":"sha256"}`)
	assert.NotContains(t, string(data), "password")

	var decoded models.KeyEnvelope
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, env.Salt, decoded.Salt)
	assert.Equal(t, env.WrappedDEK, decoded.WrappedDEK)
	assert.NoError(t, decoded.Validate())
}

func TestKeyEnvelopeAssociatedData(t *testing.T) {
	env := validEnvelope()
	assert.Equal(t, "pinvault-envelope-v1:"+env.KeyID, string(env.AssociatedData()))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "uninitialized", models.StatusUninitialized.String())
	assert.Equal(t, "locked", models.StatusLocked.String())
	assert.Equal(t, "unlocked", models.StatusUnlocked.String())
	assert.Equal(t, "unknown", models.Status(9).String())

	data, err := json.Marshal(map[string]models.Status{"state": models.StatusLocked})
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"locked"}`, string(data))
}
