package crypto_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/pinvault/internal/crypto"
)

func TestNewRecoveryPhrase(t *testing.T) {
	phrase, err := crypto.NewRecoveryPhrase()
	require.NoError(t, err)
	assert.Len(t, strings.Fields(phrase), 24)

	other, err := crypto.NewRecoveryPhrase()
	require.NoError(t, err)
	assert.NotEqual(t, phrase, other)
}

func TestDeriveRecoveryKey(t *testing.T) {
	salt := testSalt(t)

	phrase, err := crypto.NewRecoveryPhrase()
	require.NoError(t, err)

	key, err := crypto.DeriveRecoveryKey(phrase, salt)
	require.NoError(t, err)
	assert.Len(t, key, crypto.KeySize)

	t.Run("deterministic", func(t *testing.T) {
		again, err := crypto.DeriveRecoveryKey(phrase, salt)
		require.NoError(t, err)
		assert.Equal(t, key, again)
	})

	t.Run("tolerates spacing and case", func(t *testing.T) {
		messy := "  " + strings.ToUpper(strings.ReplaceAll(phrase, " ", "   ")) + "\n"
		again, err := crypto.DeriveRecoveryKey(messy, salt)
		require.NoError(t, err)
		assert.Equal(t, key, again)
	})

	t.Run("invalid phrase", func(t *testing.T) {
		_, err := crypto.DeriveRecoveryKey("not a real mnemonic at all", salt)
		assert.ErrorIs(t, err, crypto.ErrInvalidPhrase)
	})

	t.Run("short salt", func(t *testing.T) {
		_, err := crypto.DeriveRecoveryKey(phrase, []byte("x"))
		assert.ErrorIs(t, err, crypto.ErrInvalidSalt)
	})
}
