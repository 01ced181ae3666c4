package drift_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/credentials"
	"signet/internal/domain"
	"signet/internal/services/drift"
	"signet/internal/store"
)

func TestFingerprint(t *testing.T) {
	fp := drift.Fingerprint("key")
	assert.Len(t, fp, 64)
	assert.NotEqual(t, "key", fp)
	assert.Equal(t, fp, drift.Fingerprint("key"))
	assert.NotEqual(t, fp, drift.Fingerprint("other"))
}

func TestCredentialsMatchPreferences(t *testing.T) {
	t.Run("first run", func(t *testing.T) {
		creds := credentials.New(store.NewMemStore(), "key-a", domain.Sandbox)
		match, err := drift.New(creds).CredentialsMatchPreferences()
		require.NoError(t, err)
		assert.True(t, match)
	})

	t.Run("matching fingerprint and environment", func(t *testing.T) {
		creds := credentials.New(store.NewMemStore(), "key-a", domain.Sandbox)
		require.NoError(t, creds.SetInstallation(domain.Installation{Token: "inst"}))
		require.NoError(t, creds.RecordFingerprint())

		match, err := drift.New(creds).CredentialsMatchPreferences()
		require.NoError(t, err)
		assert.True(t, match)
	})

	t.Run("api key changed", func(t *testing.T) {
		kv := store.NewMemStore()
		old := credentials.New(kv, "key-a", domain.Sandbox)
		require.NoError(t, old.SetInstallation(domain.Installation{Token: "inst"}))
		require.NoError(t, old.RecordFingerprint())

		current := credentials.New(kv, "key-b", domain.Sandbox)
		match, err := drift.New(current).CredentialsMatchPreferences()
		require.NoError(t, err)
		assert.False(t, match)
	})

	t.Run("environment changed", func(t *testing.T) {
		kv := store.NewMemStore()
		old := credentials.New(kv, "key-a", domain.Sandbox)
		require.NoError(t, old.SetInstallation(domain.Installation{Token: "inst"}))
		require.NoError(t, old.RecordFingerprint())

		current := credentials.New(kv, "key-a", domain.Production)
		match, err := drift.New(current).CredentialsMatchPreferences()
		require.NoError(t, err)
		assert.False(t, match)
	})

	// Pre-upgrade state: installation exists but no fingerprint was ever
	// recorded. Legacy secrets cannot be verified, so they are not trusted.
	t.Run("installation without fingerprint", func(t *testing.T) {
		creds := credentials.New(store.NewMemStore(), "key-a", domain.Sandbox)
		require.NoError(t, creds.SetInstallation(domain.Installation{Token: "inst"}))
		require.NoError(t, creds.SetDeviceID("dev-1"))

		match, err := drift.New(creds).CredentialsMatchPreferences()
		require.NoError(t, err)
		assert.False(t, match)
	})
}
