package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/domain"
	"signet/internal/store"
)

// backends returns every SecretStore implementation over fresh state.
func backends(t *testing.T) map[string]domain.SecretStore {
	t.Helper()
	bolt, err := store.OpenBolt(filepath.Join(t.TempDir(), "credentials.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bolt.Close() })

	return map[string]domain.SecretStore{
		"file":   store.NewFileStore(t.TempDir(), "correct horse battery staple"),
		"bolt":   bolt,
		"memory": store.NewMemStore(),
	}
}

func TestBackendParity(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get(domain.KeySessionToken)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set(domain.KeySessionToken, "tok-1"))
			v, ok, err := s.Get(domain.KeySessionToken)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "tok-1", v)

			// Overwrite.
			require.NoError(t, s.Set(domain.KeySessionToken, "tok-2"))
			v, _, err = s.Get(domain.KeySessionToken)
			require.NoError(t, err)
			assert.Equal(t, "tok-2", v)

			// Delete is idempotent.
			require.NoError(t, s.Delete(domain.KeySessionToken))
			require.NoError(t, s.Delete(domain.KeySessionToken))
			_, ok, err = s.Get(domain.KeySessionToken)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	s1 := store.NewFileStore(dir, "pass")
	require.NoError(t, s1.Set(domain.KeyDeviceID, "dev-9"))

	s2 := store.NewFileStore(dir, "pass")
	v, ok, err := s2.Get(domain.KeyDeviceID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "dev-9", v)
}

func TestFileStoreWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	s1 := store.NewFileStore(dir, "right")
	require.NoError(t, s1.Set(domain.KeyDeviceID, "dev-9"))

	s2 := store.NewFileStore(dir, "wrong")
	_, _, err := s2.Get(domain.KeyDeviceID)
	var storageErr *domain.StorageError
	assert.ErrorAs(t, err, &storageErr)
}
