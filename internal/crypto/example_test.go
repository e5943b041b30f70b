package crypto_test

import (
	"bytes"
	"fmt"

	"github.com/TheMichaelB/pinvault/internal/crypto"
)

func ExampleDeriveKey() {
	salt := bytes.Repeat([]byte{0x01}, crypto.SaltSize)

	key, err := crypto.DeriveKey("correct-horse-battery", salt, crypto.KDFParams{Algorithm: crypto.KDFSHA256})
	if err != nil {
		panic(err)
	}

	fmt.Printf("Key length: %d bytes\n", len(key))
	// Output: Key length: 32 bytes
}

func ExampleProvider_EncryptData() {
	provider := crypto.NewProvider()

	key := make([]byte, crypto.KeySize)
	for i := range key {
		key[i] = byte(i % 256)
	}

	plaintext := []byte("Secret message")
	ciphertext, err := provider.EncryptData(plaintext, key)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Encrypted length: %d bytes\n", len(ciphertext))
	fmt.Printf("Format includes nonce (%d) + data + tag (%d)\n",
		crypto.NonceSize, crypto.TagSize)
	// Output: Encrypted length: 42 bytes
	// Format includes nonce (12) + data + tag (16)
}

func ExampleProvider_WrapKey() {
	provider := crypto.NewProvider()

	dek, _ := provider.GenerateKey()
	kek, _ := provider.GenerateKey()

	nonce, wrapped, err := provider.WrapKey(dek, kek, nil)
	if err != nil {
		panic(err)
	}

	unwrapped, err := provider.UnwrapKey(nonce, wrapped, kek, nil)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Wrapped: %d bytes, round trip ok: %v\n", len(wrapped), bytes.Equal(dek, unwrapped))
	// Output: Wrapped: 48 bytes, round trip ok: true
}
