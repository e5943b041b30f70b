package crypto_test

import (
	"crypto/rand"
	"testing"

	"github.com/TheMichaelB/pinvault/internal/crypto"
)

func benchmarkKDF(b *testing.B, params crypto.KDFParams) {
	salt := make([]byte, crypto.SaltSize)
	if _, err := rand.Read(salt); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := crypto.DeriveKey("password123", salt, params); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDeriveKeyDigest(b *testing.B) {
	benchmarkKDF(b, crypto.KDFParams{Algorithm: crypto.KDFSHA256})
}

func BenchmarkDeriveKeyPBKDF2(b *testing.B) {
	benchmarkKDF(b, crypto.KDFParams{Algorithm: crypto.KDFPBKDF2})
}

func BenchmarkDeriveKeyArgon2(b *testing.B) {
	benchmarkKDF(b, crypto.KDFParams{Algorithm: crypto.KDFArgon2})
}

func BenchmarkEncryptData(b *testing.B) {
	provider := crypto.NewProvider()
	key := make([]byte, crypto.KeySize)
	if _, err := rand.Read(key); err != nil {
		b.Fatal(err)
	}

	plaintext := make([]byte, 1024*1024) // 1MB
	if _, err := rand.Read(plaintext); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.SetBytes(int64(len(plaintext)))

	for i := 0; i < b.N; i++ {
		if _, err := provider.EncryptData(plaintext, key); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecryptData(b *testing.B) {
	provider := crypto.NewProvider()
	key := make([]byte, crypto.KeySize)
	if _, err := rand.Read(key); err != nil {
		b.Fatal(err)
	}

	plaintext := make([]byte, 1024*1024)
	if _, err := rand.Read(plaintext); err != nil {
		b.Fatal(err)
	}

	ciphertext, err := provider.EncryptData(plaintext, key)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.SetBytes(int64(len(plaintext)))

	for i := 0; i < b.N; i++ {
		if _, err := provider.DecryptData(ciphertext, key); err != nil {
			b.Fatal(err)
		}
	}
}
