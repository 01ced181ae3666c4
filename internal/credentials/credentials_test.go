package credentials_test

import (
	"crypto/rsa"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/credentials"
	"signet/internal/crypto"
	"signet/internal/domain"
	"signet/internal/store"
)

var (
	keyOnce sync.Once
	key     *rsa.PrivateKey
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		var err error
		key, err = crypto.GenerateKeyPair()
		if err != nil {
			t.Fatalf("GenerateKeyPair: %v", err)
		}
	})
	return key
}

func newStore(t *testing.T) *credentials.Store {
	t.Helper()
	return credentials.New(store.NewMemStore(), "api-key-1", domain.Sandbox)
}

func TestSessionPairStoredTogether(t *testing.T) {
	s := newStore(t)

	_, ok, err := s.Session()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetSession(domain.Session{Token: "tok", UserID: "user-1"}))
	sess, ok, err := s.Session()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok", sess.Token)
	assert.Equal(t, "user-1", sess.UserID)

	require.NoError(t, s.ClearSession())
	_, ok, err = s.Session()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionAbsentWhenHalfMissing(t *testing.T) {
	kv := store.NewMemStore()
	s := credentials.New(kv, "api-key-1", domain.Sandbox)
	require.NoError(t, s.SetSession(domain.Session{Token: "tok", UserID: "user-1"}))

	// A crash between the paired deletes must read as "no session".
	require.NoError(t, kv.Delete(domain.KeySessionToken))
	_, ok, err := s.Session()
	require.NoError(t, err)
	assert.False(t, ok)

	configured, err := s.IsConfigured()
	require.NoError(t, err)
	assert.False(t, configured)
}

func TestKeyPairRoundTrip(t *testing.T) {
	s := newStore(t)
	priv := testKey(t)

	_, ok, err := s.KeyPair()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetKeyPair(domain.KeyPair{Private: priv, Public: &priv.PublicKey}))
	kp, ok, err := s.KeyPair()
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, priv.Equal(kp.Private))
	assert.True(t, priv.PublicKey.Equal(kp.Public))
}

func TestPredicates(t *testing.T) {
	s := newStore(t)

	configured, err := s.IsConfigured()
	require.NoError(t, err)
	assert.False(t, configured)
	setup, err := s.HasCompletedSetup()
	require.NoError(t, err)
	assert.False(t, setup)

	require.NoError(t, s.SetInstallation(domain.Installation{Token: "inst", ServerPublicKey: "pem"}))
	setup, err = s.HasCompletedSetup()
	require.NoError(t, err)
	assert.False(t, setup, "installation alone is not a completed setup")

	require.NoError(t, s.SetDeviceID("dev-1"))
	setup, err = s.HasCompletedSetup()
	require.NoError(t, err)
	assert.True(t, setup)

	// Setup complete but no session: configured stays false.
	configured, err = s.IsConfigured()
	require.NoError(t, err)
	assert.False(t, configured)

	require.NoError(t, s.SetSession(domain.Session{Token: "tok", UserID: "u"}))
	configured, err = s.IsConfigured()
	require.NoError(t, err)
	assert.True(t, configured)
}

func TestIsConfiguredRequiresAPIKey(t *testing.T) {
	s := credentials.New(store.NewMemStore(), "", domain.Sandbox)
	require.NoError(t, s.SetSession(domain.Session{Token: "tok", UserID: "u"}))

	configured, err := s.IsConfigured()
	require.NoError(t, err)
	assert.False(t, configured)
}

func TestClearAll(t *testing.T) {
	s := newStore(t)
	priv := testKey(t)

	require.NoError(t, s.SetKeyPair(domain.KeyPair{Private: priv, Public: &priv.PublicKey}))
	require.NoError(t, s.SetInstallation(domain.Installation{Token: "inst", ServerPublicKey: "pem"}))
	require.NoError(t, s.SetDeviceID("dev-1"))
	require.NoError(t, s.SetSession(domain.Session{Token: "tok", UserID: "u"}))
	require.NoError(t, s.RecordFingerprint())

	require.NoError(t, s.ClearAll())

	configured, err := s.IsConfigured()
	require.NoError(t, err)
	assert.False(t, configured)
	setup, err := s.HasCompletedSetup()
	require.NoError(t, err)
	assert.False(t, setup)
	_, ok, err := s.Fingerprint()
	require.NoError(t, err)
	assert.False(t, ok)

	// Idempotent.
	require.NoError(t, s.ClearAll())
}

func TestSnapshotMergesAPIKey(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.SetInstallation(domain.Installation{Token: "inst", ServerPublicKey: "pem"}))
	require.NoError(t, s.RecordFingerprint())

	c, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "api-key-1", c.APIKey)
	assert.Equal(t, "inst", c.InstallationToken)
	assert.Equal(t, "pem", c.ServerPublicKey)
	assert.Equal(t, domain.Sandbox, c.Environment)
	assert.Empty(t, c.SessionToken)
	assert.NotEqual(t, "api-key-1", c.APIKeyFingerprint)
	assert.Len(t, c.APIKeyFingerprint, 64)
}
