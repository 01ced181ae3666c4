package bootstrap_test

import (
	"context"
	"crypto/rsa"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/credentials"
	"signet/internal/crypto"
	"signet/internal/domain"
	"signet/internal/services/bootstrap"
	"signet/internal/store"
)

var (
	keyOnce sync.Once
	key     *rsa.PrivateKey
)

func testKeyPair(t *testing.T) domain.KeyPair {
	t.Helper()
	keyOnce.Do(func() {
		var err error
		key, err = crypto.GenerateKeyPair()
		if err != nil {
			t.Fatalf("GenerateKeyPair: %v", err)
		}
	})
	return domain.KeyPair{Private: key, Public: &key.PublicKey}
}

type fakeAPI struct {
	installs  int
	registers int
	lastPub   string
}

func (f *fakeAPI) CreateInstallation(ctx context.Context, apiKey, clientPublicKeyPEM string) (domain.Installation, error) {
	f.installs++
	f.lastPub = clientPublicKeyPEM
	return domain.Installation{Token: "inst-1", ServerPublicKey: "SERVER-PEM"}, nil
}

func (f *fakeAPI) RegisterDevice(ctx context.Context, installationToken, apiKey, clientPublicKeyPEM, description string) (string, error) {
	f.registers++
	return "dev-1", nil
}

func (f *fakeAPI) CreateSession(ctx context.Context, installationToken string, body []byte, signature string) (domain.Session, error) {
	return domain.Session{}, nil
}

func (f *fakeAPI) Do(ctx context.Context, req domain.BusinessRequest) (*domain.BusinessResponse, error) {
	return nil, nil
}

var _ domain.APIClient = (*fakeAPI)(nil)

func TestEnsureInstallationPersistsAndSkips(t *testing.T) {
	creds := credentials.New(store.NewMemStore(), "key-1", domain.Sandbox)
	api := &fakeAPI{}
	svc := bootstrap.New(creds, api, nil)
	kp := testKeyPair(t)

	inst, err := svc.EnsureInstallation(context.Background(), kp)
	require.NoError(t, err)
	assert.Equal(t, "inst-1", inst.Token)
	assert.Equal(t, "SERVER-PEM", inst.ServerPublicKey)
	assert.Contains(t, api.lastPub, "PUBLIC KEY")

	// The install binds the configuration fingerprint to the credentials.
	fp, ok, err := creds.Fingerprint()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, fp, 64)
	env, ok, err := creds.StoredEnvironment()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.Sandbox, env)

	// Already installed: no further network traffic.
	again, err := svc.EnsureInstallation(context.Background(), kp)
	require.NoError(t, err)
	assert.Equal(t, inst, again)
	assert.Equal(t, 1, api.installs)
}

func TestEnsureInstallationRequiresAPIKey(t *testing.T) {
	creds := credentials.New(store.NewMemStore(), "", domain.Sandbox)
	svc := bootstrap.New(creds, &fakeAPI{}, nil)

	_, err := svc.EnsureInstallation(context.Background(), testKeyPair(t))
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestEnsureDevicePersistsAndSkips(t *testing.T) {
	creds := credentials.New(store.NewMemStore(), "key-1", domain.Sandbox)
	api := &fakeAPI{}
	svc := bootstrap.New(creds, api, nil)
	kp := testKeyPair(t)

	inst := domain.Installation{Token: "inst-1", ServerPublicKey: "SERVER-PEM"}
	id, err := svc.EnsureDevice(context.Background(), inst, kp)
	require.NoError(t, err)
	assert.Equal(t, "dev-1", id)

	stored, ok, err := creds.DeviceID()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "dev-1", stored)

	_, err = svc.EnsureDevice(context.Background(), inst, kp)
	require.NoError(t, err)
	assert.Equal(t, 1, api.registers)
}
