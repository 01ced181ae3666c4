package domain

import (
	"crypto/rsa"
	"fmt"
)

// Environment selects which remote deployment the stored credentials belong to.
type Environment string

const (
	Sandbox    Environment = "sandbox"
	Production Environment = "production"
)

// ParseEnvironment validates a raw environment string.
func ParseEnvironment(s string) (Environment, error) {
	switch Environment(s) {
	case Sandbox, Production:
		return Environment(s), nil
	}
	return "", fmt.Errorf("unknown environment %q (want %q or %q)", s, Sandbox, Production)
}

// Key names one of the logical credential fields held by the secret store.
type Key string

const (
	KeyInstallationToken Key = "installation_token"
	KeyServerPublicKey   Key = "server_public_key"
	KeyDeviceID          Key = "device_id"
	KeySessionToken      Key = "session_token"
	KeyUserID            Key = "user_id"
	KeyRSAPublicKey      Key = "rsa_public_key"
	KeyRSAPrivateKey     Key = "rsa_private_key"
	KeyAPIKeyFingerprint Key = "api_key_fingerprint"
	KeyEnvironment       Key = "environment"
)

// KeyPair carries the client's RSA material. The private half stays inside
// this process: it is persisted PEM-encoded by the credential store and used
// for signing, never transmitted or logged.
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// Installation is the result of the one-time installation handshake.
type Installation struct {
	Token           string
	ServerPublicKey string // PEM
}

// Session is a short-lived credential pair. Token and UserID are always
// stored and removed together.
type Session struct {
	Token  string
	UserID string
}

// Credentials is a point-in-time view of everything the subsystem knows.
// APIKey comes from configuration and is never persisted; all other fields
// come from the secret store and are empty when absent.
type Credentials struct {
	APIKey            string
	InstallationToken string
	ServerPublicKey   string
	DeviceID          string
	SessionToken      string
	UserID            string
	RSAPublicKey      string
	RSAPrivateKey     string
	APIKeyFingerprint string
	Environment       Environment
}

// State tracks progress through the bootstrap handshake.
type State string

const (
	StateUnconfigured      State = "UNCONFIGURED"
	StateInstalling        State = "INSTALLING"
	StateInstalled         State = "INSTALLED"
	StateRegistering       State = "REGISTERING"
	StateDeviceRegistered  State = "DEVICE_REGISTERED"
	StateSessionCreating   State = "SESSION_CREATING"
	StateSessionActive     State = "SESSION_ACTIVE"
	StateSessionRefreshing State = "SESSION_REFRESHING"
	StateAuthRevoked       State = "AUTH_REVOKED"
)

// SessionContext is the opaque handle returned to callers once a session is
// active. It exposes the session identity plus a signing capability; the
// private key itself never leaves the session manager.
type SessionContext struct {
	Token  string
	UserID string

	signFn func(body []byte) (string, error)
}

// NewSessionContext builds a session context around a signing closure.
func NewSessionContext(token, userID string, sign func(body []byte) (string, error)) *SessionContext {
	return &SessionContext{Token: token, UserID: userID, signFn: sign}
}

// Sign produces the signature header value for an outgoing request body.
func (s *SessionContext) Sign(body []byte) (string, error) {
	return s.signFn(body)
}

// BusinessRequest is an arbitrary call against the remote API, made through
// the signed envelope.
type BusinessRequest struct {
	Method       string
	Path         string
	Body         []byte
	SessionToken string
	Signature    string
}

// BusinessResponse carries the raw outcome of a business request. The server
// signature, when present, covers Body.
type BusinessResponse struct {
	StatusCode      int
	Body            []byte
	ServerSignature string
}
