package domain

import (
	"context"
	"crypto/rsa"
)

// SecretStore is durable key/value storage for the credential fields. A
// missing key is reported through the bool, not an error. Implementations
// are not transactionally atomic across keys; readers must treat any subset
// of missing keys as "not configured".
type SecretStore interface {
	Get(key Key) (string, bool, error)
	Set(key Key, value string) error
	Delete(key Key) error
	Close() error
}

// APIClient is how we talk to the remote service's auth endpoints and, once
// authenticated, to its business endpoints.
type APIClient interface {
	// CreateInstallation exchanges the API key and the client public key for
	// an installation token and the server's public key.
	CreateInstallation(ctx context.Context, apiKey, clientPublicKeyPEM string) (Installation, error)

	// RegisterDevice binds the client public key to an installation and
	// returns the device id.
	RegisterDevice(ctx context.Context, installationToken, apiKey, clientPublicKeyPEM, description string) (string, error)

	// CreateSession exchanges a signed payload for a session token and user
	// id. The signature covers body and was produced with the client's
	// private key.
	CreateSession(ctx context.Context, installationToken string, body []byte, signature string) (Session, error)

	// Do performs a signed business request. An expired session surfaces as
	// an error matching ErrAuthExpired.
	Do(ctx context.Context, req BusinessRequest) (*BusinessResponse, error)
}

// RequestSigner signs outgoing request bodies and verifies server response
// signatures.
type RequestSigner interface {
	Sign(body []byte, priv *rsa.PrivateKey) (string, error)
	Verify(body []byte, signatureB64 string, pub *rsa.PublicKey) error
}

// Operation is a fallible business call executed under an active session.
type Operation func(ctx context.Context, sess *SessionContext) error
