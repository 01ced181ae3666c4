package keypair_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"signet/internal/credentials"
	"signet/internal/domain"
	"signet/internal/services/keypair"
	"signet/internal/store"
)

func TestEnsureKeyPairGeneratesOnce(t *testing.T) {
	creds := credentials.New(store.NewMemStore(), "key", domain.Sandbox)
	svc := keypair.New(creds, nil)

	first, err := svc.EnsureKeyPair()
	require.NoError(t, err)
	require.NotNil(t, first.Private)

	// A second call returns the persisted pair, not a fresh one.
	second, err := svc.EnsureKeyPair()
	require.NoError(t, err)
	require.True(t, first.Private.Equal(second.Private))
	require.True(t, first.Public.Equal(second.Public))

	// The stored halves parse back to the same pair.
	stored, ok, err := creds.KeyPair()
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, first.Private.Equal(stored.Private))
}
