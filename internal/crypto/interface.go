package crypto

// Provider defines the interface for cryptographic operations.
type Provider interface {
	// GenerateKey returns a fresh random 256-bit key.
	GenerateKey() ([]byte, error)

	// GenerateSalt returns a fresh random salt.
	GenerateSalt() ([]byte, error)

	// DeriveKey derives a key-encryption key from a password and salt.
	DeriveKey(password string, salt []byte, params KDFParams) ([]byte, error)

	// EncryptData encrypts plaintext using AES-GCM.
	EncryptData(plaintext, key []byte) ([]byte, error)

	// DecryptData decrypts ciphertext using AES-GCM.
	DecryptData(ciphertext, key []byte) ([]byte, error)

	// WrapKey seals a key under another key.
	WrapKey(dek, kek, aad []byte) (nonce, wrapped []byte, err error)

	// UnwrapKey opens a key sealed by WrapKey.
	UnwrapKey(nonce, wrapped, kek, aad []byte) ([]byte, error)
}
