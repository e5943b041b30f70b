package testutil

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/pinvault/internal/config"
	"github.com/TheMichaelB/pinvault/internal/events"
)

// Passwords used across tests.
const (
	TestPassword  = "correct-horse-battery"
	OtherPassword = "tr0ub4dor&3-staple"
	WeakPassword  = "short12" // 7 characters
)

// NewTestLogger creates a logger for testing.
func NewTestLogger() *events.Logger {
	var buf bytes.Buffer
	return events.NewTestLogger(events.DebugLevel, "json", &buf)
}

// FastVaultConfig uses the digest KDF and disables unlock throttling.
func FastVaultConfig() config.VaultConfig {
	return config.VaultConfig{
		MinPasswordLength: 8,
		KDF:               "sha256",
		PBKDF2Iterations:  100000,
		UnlockRate:        0,
		UnlockBurst:       0,
	}
}

// RandomBytes returns n random bytes.
func RandomBytes(t testing.TB, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

// SampleFiles provides test file content.
var SampleFiles = map[string]string{
	"notes/welcome.md": `# Welcome

This file is encrypted before upload.
`,
	"daily/2024-01-15.md": `# Daily Note - 2024-01-15

- [x] Pin encrypted backup
- [ ] Rotate password
`,
	"empty.txt": "",
}

// SampleBinaryFiles provides test binary content.
var SampleBinaryFiles = map[string][]byte{
	"attachments/example.png": {
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // PNG header
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52, // IHDR chunk
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, // 1x1 pixel
		0x08, 0x02, 0x00, 0x00, 0x00, 0x90, 0x77, 0x53,
		0x49, 0x45, 0x4E, 0x44, 0xAE, 0x42, 0x60, 0x82,
	},
	"attachments/document.pdf": {
		0x25, 0x50, 0x44, 0x46, 0x2D, 0x31, 0x2E, 0x34, // %PDF-1.4
		0x0A, 0x25, 0xE2, 0xE3, 0xCF, 0xD3, 0x0A, // Binary comment
		0x64, 0x6F, 0x62, 0x6A, 0x0A, // dobj.
	},
}
