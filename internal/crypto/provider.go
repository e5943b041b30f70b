package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

const (
	// EnvelopeVersion identifies the key envelope format.
	EnvelopeVersion = 1

	// Key sizes
	KeySize   = 32 // AES-256
	NonceSize = 12 // GCM standard, also the blob IV length
	TagSize   = 16 // GCM tag
	SaltSize  = 16

	// WrappedKeySize is the length of a DEK sealed under a KEK.
	WrappedKeySize = KeySize + TagSize
)

// Errors
var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
	ErrInvalidKey        = errors.New("invalid key size")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrInvalidSalt       = errors.New("invalid salt")
	ErrUnsupportedKDF    = errors.New("unsupported key derivation function")
	ErrInvalidKDFParams  = errors.New("key derivation parameters out of range")
)

// CryptoProvider handles all cryptographic operations.
type CryptoProvider struct {
	random io.Reader
}

// NewProvider creates a crypto provider backed by crypto/rand.
func NewProvider() Provider {
	return &CryptoProvider{random: rand.Reader}
}

// NewProviderWithRand creates a provider that draws salts, keys and nonces
// from r. r must be a cryptographically secure source outside of tests.
func NewProviderWithRand(r io.Reader) Provider {
	return &CryptoProvider{random: r}
}

// GenerateKey returns a fresh random data-encryption key.
func (p *CryptoProvider) GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(p.random, key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}

// GenerateSalt returns a fresh random salt for key derivation.
func (p *CryptoProvider) GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(p.random, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives a key-encryption key from a password.
func (p *CryptoProvider) DeriveKey(password string, salt []byte, params KDFParams) ([]byte, error) {
	return DeriveKey(password, salt, params)
}

// WrapKey seals a data-encryption key under a key-encryption key with a
// fresh nonce. The nonce is returned separately for storage in the envelope.
func (p *CryptoProvider) WrapKey(dek, kek, aad []byte) (nonce, wrapped []byte, err error) {
	if len(dek) != KeySize {
		return nil, nil, ErrInvalidKey
	}

	aead, err := newGCM(kek)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, NonceSize)
	if _, err := io.ReadFull(p.random, nonce); err != nil {
		return nil, nil, fmt.Errorf("generate nonce: %w", err)
	}

	return nonce, aead.Seal(nil, nonce, dek, aad), nil
}

// UnwrapKey opens a wrapped data-encryption key.
func (p *CryptoProvider) UnwrapKey(nonce, wrapped, kek, aad []byte) ([]byte, error) {
	if len(nonce) != NonceSize || len(wrapped) != WrappedKeySize {
		return nil, ErrInvalidCiphertext
	}

	aead, err := newGCM(kek)
	if err != nil {
		return nil, err
	}

	dek, err := aead.Open(nil, nonce, wrapped, aad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	return dek, nil
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
