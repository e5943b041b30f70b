package vault_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/pinvault/internal/crypto"
	"github.com/TheMichaelB/pinvault/internal/models"
	"github.com/TheMichaelB/pinvault/test/testutil"
)

func TestRecoveryRestoresAccess(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVault(t)

	_, err := v.Setup(ctx, testutil.TestPassword)
	require.NoError(t, err)

	blob, err := v.EncryptFile(ctx, []byte("irreplaceable"))
	require.NoError(t, err)

	enabled, err := v.RecoveryEnabled()
	require.NoError(t, err)
	assert.False(t, enabled)

	phrase, err := v.EnableRecovery(ctx)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(phrase), 24)

	enabled, err = v.RecoveryEnabled()
	require.NoError(t, err)
	assert.True(t, enabled)

	// Password forgotten
	v.Logout()

	// Phrase input is normalized
	messy := "  " + strings.ToUpper(strings.Join(strings.Fields(phrase), "   ")) + "\n"
	require.NoError(t, v.Recover(ctx, messy, testutil.OtherPassword))
	assert.True(t, v.IsUnlocked())

	got, err := v.DecryptFile(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, []byte("irreplaceable"), got)

	v.Logout()
	assert.ErrorIs(t, v.Unlock(ctx, testutil.TestPassword), models.ErrInvalidPassword)
	require.NoError(t, v.Unlock(ctx, testutil.OtherPassword))

	// The phrase keeps working after use
	v.Logout()
	require.NoError(t, v.Recover(ctx, phrase, "third-password-123"))
}

func TestRecoverErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("not enabled", func(t *testing.T) {
		v, _ := newTestVault(t)
		_, err := v.Setup(ctx, testutil.TestPassword)
		require.NoError(t, err)

		phrase, err := crypto.NewRecoveryPhrase()
		require.NoError(t, err)

		err = v.Recover(ctx, phrase, testutil.OtherPassword)
		assert.ErrorIs(t, err, models.ErrRecoveryNotEnabled)
		assert.Equal(t, models.ErrCodeRecovery, models.ErrorCode(err))
	})

	v, _ := newTestVault(t)
	_, err := v.Setup(ctx, testutil.TestPassword)
	require.NoError(t, err)
	_, err = v.EnableRecovery(ctx)
	require.NoError(t, err)
	v.Logout()

	t.Run("invalid mnemonic", func(t *testing.T) {
		bad := strings.TrimSpace(strings.Repeat("abandon ", 24))
		err := v.Recover(ctx, bad, testutil.OtherPassword)
		assert.ErrorIs(t, err, models.ErrInvalidRecoveryPhrase)
		assert.False(t, v.IsUnlocked())
	})

	t.Run("valid but different phrase", func(t *testing.T) {
		other, err := crypto.NewRecoveryPhrase()
		require.NoError(t, err)

		err = v.Recover(ctx, other, testutil.OtherPassword)
		assert.ErrorIs(t, err, models.ErrInvalidRecoveryPhrase)
		assert.False(t, v.IsUnlocked())
	})

	t.Run("weak new password", func(t *testing.T) {
		err := v.Recover(ctx, "irrelevant", testutil.WeakPassword)
		assert.ErrorIs(t, err, models.ErrWeakPassword)
	})

	// Failed recoveries leave the password envelope intact
	require.NoError(t, v.Unlock(ctx, testutil.TestPassword))
}

func TestEnableRecoveryRequiresSession(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVault(t)

	_, err := v.EnableRecovery(ctx)
	assert.ErrorIs(t, err, models.ErrNotInitialized)

	_, err = v.Setup(ctx, testutil.TestPassword)
	require.NoError(t, err)
	v.Logout()

	_, err = v.EnableRecovery(ctx)
	assert.ErrorIs(t, err, models.ErrNoActiveSession)
}

func TestEnableRecoveryReplacesPhrase(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVault(t)

	_, err := v.Setup(ctx, testutil.TestPassword)
	require.NoError(t, err)

	first, err := v.EnableRecovery(ctx)
	require.NoError(t, err)
	second, err := v.EnableRecovery(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	v.Logout()
	assert.ErrorIs(t, v.Recover(ctx, first, testutil.OtherPassword), models.ErrInvalidRecoveryPhrase)
	assert.NoError(t, v.Recover(ctx, second, testutil.OtherPassword))
}

func TestSetupRemovesRecovery(t *testing.T) {
	ctx := context.Background()
	v, _ := newTestVault(t)

	_, err := v.Setup(ctx, testutil.TestPassword)
	require.NoError(t, err)
	phrase, err := v.EnableRecovery(ctx)
	require.NoError(t, err)

	_, err = v.Setup(ctx, testutil.OtherPassword)
	require.NoError(t, err)

	enabled, err := v.RecoveryEnabled()
	require.NoError(t, err)
	assert.False(t, enabled)

	v.Logout()
	assert.ErrorIs(t, v.Recover(ctx, phrase, "another-password"), models.ErrRecoveryNotEnabled)
}

func TestSetupKeepsOldEnvelopeWhenRecoveryDeleteFails(t *testing.T) {
	store := testutil.NewMockStore()
	store.On("Delete", models.RecordRecoveryEnvelope).Return(errors.New("read-only filesystem"))

	v := newVaultWithConfig(store, testutil.FastVaultConfig())

	_, err := v.Setup(context.Background(), testutil.TestPassword)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeStorage, models.ErrorCode(err))
	assert.False(t, v.IsUnlocked())

	store.AssertExpectations(t)
	store.AssertNotCalled(t, "Put", models.RecordEnvelope, mock.Anything)
	store.AssertNotCalled(t, "Put", models.RecordEnvelopePresent, mock.Anything)
}
