package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/TheMichaelB/pinvault/internal/crypto"
	"github.com/TheMichaelB/pinvault/internal/events"
	"github.com/TheMichaelB/pinvault/internal/state"
	"github.com/TheMichaelB/pinvault/internal/vault"
	"github.com/TheMichaelB/pinvault/test/testutil"
)

func unlockedVault(b *testing.B) *vault.Vault {
	b.Helper()

	v := vault.New(state.NewMemoryStore(), nil, crypto.NewProvider(), testutil.FastVaultConfig(), events.Discard())
	if _, err := v.Setup(context.Background(), testutil.TestPassword); err != nil {
		b.Fatal(err)
	}
	b.Cleanup(v.Logout)
	return v
}

func BenchmarkEncryptFile(b *testing.B) {
	v := unlockedVault(b)
	ctx := context.Background()

	for _, size := range blobSizes {
		b.Run(fmt.Sprintf("%dKB", size/1024), func(b *testing.B) {
			data := testutil.RandomBytes(b, size)

			b.ResetTimer()
			b.ReportAllocs()
			b.SetBytes(int64(size))

			for i := 0; i < b.N; i++ {
				if _, err := v.EncryptFile(ctx, data); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkDecryptFile(b *testing.B) {
	v := unlockedVault(b)
	ctx := context.Background()

	for _, size := range blobSizes {
		b.Run(fmt.Sprintf("%dKB", size/1024), func(b *testing.B) {
			blob, err := v.EncryptFile(ctx, testutil.RandomBytes(b, size))
			if err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			b.ReportAllocs()
			b.SetBytes(int64(size))

			for i := 0; i < b.N; i++ {
				if _, err := v.DecryptFile(ctx, blob); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkEncryptFileParallel(b *testing.B) {
	v := unlockedVault(b)
	ctx := context.Background()
	data := testutil.RandomBytes(b, 102400)

	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := v.EncryptFile(ctx, data); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkUnlock(b *testing.B) {
	for _, alg := range []string{crypto.KDFSHA256, crypto.KDFPBKDF2} {
		b.Run(alg, func(b *testing.B) {
			cfg := testutil.FastVaultConfig()
			cfg.KDF = alg

			v := vault.New(state.NewMemoryStore(), nil, crypto.NewProvider(), cfg, events.Discard())
			ctx := context.Background()
			if _, err := v.Setup(ctx, testutil.TestPassword); err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				v.Logout()
				if err := v.Unlock(ctx, testutil.TestPassword); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
