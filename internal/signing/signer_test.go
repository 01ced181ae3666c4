package signing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/crypto"
	"signet/internal/domain"
	"signet/internal/signing"
)

func TestSignAndVerify(t *testing.T) {
	priv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	s := signing.New()

	body := []byte(`{"amount":"10.00","currency":"EUR"}`)
	sig, err := s.Sign(body, priv)
	require.NoError(t, err)
	require.NotEmpty(t, sig)

	require.NoError(t, s.Verify(body, sig, &priv.PublicKey))
}

func TestVerifyMismatchIsIntegrityError(t *testing.T) {
	priv, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	s := signing.New()

	sig, err := s.Sign([]byte("original"), priv)
	require.NoError(t, err)

	err = s.Verify([]byte("tampered"), sig, &priv.PublicKey)
	var integrity *domain.IntegrityError
	assert.ErrorAs(t, err, &integrity)

	err = s.Verify([]byte("original"), "%%% not base64 %%%", &priv.PublicKey)
	assert.ErrorAs(t, err, &integrity)
}
