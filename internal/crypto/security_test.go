package crypto_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/pinvault/internal/crypto"
)

func TestSecurityRequirements(t *testing.T) {
	provider := crypto.NewProvider()

	t.Run("pbkdf2 uses sufficient iterations", func(t *testing.T) {
		assert.GreaterOrEqual(t, crypto.DefaultIterations, 100000)
	})

	t.Run("key size is 256 bits", func(t *testing.T) {
		assert.Equal(t, 32, crypto.KeySize)
	})

	t.Run("nonce is the GCM standard size", func(t *testing.T) {
		assert.Equal(t, 12, crypto.NonceSize)
	})

	t.Run("salt and nonce are distinct values", func(t *testing.T) {
		salt, err := provider.GenerateSalt()
		require.NoError(t, err)

		key, err := provider.GenerateKey()
		require.NoError(t, err)

		nonce, _, err := provider.WrapKey(key, key, nil)
		require.NoError(t, err)

		assert.NotEqual(t, salt[:crypto.NonceSize], nonce)
	})

	t.Run("nonce is random for each encryption", func(t *testing.T) {
		key := make([]byte, crypto.KeySize)
		_, err := rand.Read(key)
		require.NoError(t, err)

		plaintext := []byte("test message")

		cipher1, err := provider.EncryptData(plaintext, key)
		require.NoError(t, err)

		cipher2, err := provider.EncryptData(plaintext, key)
		require.NoError(t, err)

		assert.NotEqual(t, cipher1[:crypto.NonceSize], cipher2[:crypto.NonceSize])
		assert.NotEqual(t, cipher1, cipher2)

		plain1, err := provider.DecryptData(cipher1, key)
		require.NoError(t, err)

		plain2, err := provider.DecryptData(cipher2, key)
		require.NoError(t, err)

		assert.Equal(t, plaintext, plain1)
		assert.Equal(t, plaintext, plain2)
	})

	t.Run("authentication tag prevents tampering", func(t *testing.T) {
		key := make([]byte, crypto.KeySize)
		_, err := rand.Read(key)
		require.NoError(t, err)

		ciphertext, err := provider.EncryptData([]byte("sensitive data"), key)
		require.NoError(t, err)

		for i := range ciphertext {
			tampered := append([]byte(nil), ciphertext...)
			tampered[i] ^= 0x01

			_, err = provider.DecryptData(tampered, key)
			assert.ErrorIs(t, err, crypto.ErrDecryptionFailed, "byte %d", i)
		}
	})
}

func TestAESGCMSecurity(t *testing.T) {
	provider := crypto.NewProvider()

	t.Run("encrypt same plaintext produces different ciphertext", func(t *testing.T) {
		key := make([]byte, crypto.KeySize)
		_, err := rand.Read(key)
		require.NoError(t, err)

		plaintext := []byte("same message")

		results := make([][]byte, 10)
		for i := 0; i < 10; i++ {
			ciphertext, err := provider.EncryptData(plaintext, key)
			require.NoError(t, err)
			results[i] = ciphertext
		}

		for i := 0; i < len(results); i++ {
			for j := i + 1; j < len(results); j++ {
				assert.NotEqual(t, results[i], results[j],
					"Ciphertext %d and %d should be different", i, j)
			}
		}
	})

	t.Run("wrong key fails decryption", func(t *testing.T) {
		key1 := make([]byte, crypto.KeySize)
		key2 := make([]byte, crypto.KeySize)
		_, err := rand.Read(key1)
		require.NoError(t, err)
		_, err = rand.Read(key2)
		require.NoError(t, err)

		ciphertext, err := provider.EncryptData([]byte("secret message"), key1)
		require.NoError(t, err)

		_, err = provider.DecryptData(ciphertext, key2)
		assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
	})

	t.Run("key validation", func(t *testing.T) {
		tests := []struct {
			name    string
			keySize int
			wantErr bool
		}{
			{"correct size", crypto.KeySize, false},
			{"too short", crypto.KeySize - 1, true},
			{"too long", crypto.KeySize + 1, true},
			{"zero size", 0, true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				key := make([]byte, tt.keySize)
				_, err := provider.EncryptData([]byte("data"), key)
				if tt.wantErr {
					assert.ErrorIs(t, err, crypto.ErrInvalidKey)
				} else {
					assert.NoError(t, err)
				}
			})
		}
	})
}
