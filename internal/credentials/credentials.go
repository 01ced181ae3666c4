// Package credentials is the typed layer over the secret store: one method
// per logical field, paired writes where the data model requires them, and
// the ordered ClearAll that keeps a crashed clear indistinguishable from
// "not configured".
package credentials

import (
	"signet/internal/crypto"
	"signet/internal/domain"
)

// Store owns the nine logical credential fields. The API key and environment
// come from configuration and are merged into views, never persisted.
type Store struct {
	kv     domain.SecretStore
	apiKey string
	env    domain.Environment
}

// New wraps a secret store with the configured API key and environment.
func New(kv domain.SecretStore, apiKey string, env domain.Environment) *Store {
	return &Store{kv: kv, apiKey: apiKey, env: env}
}

// APIKey returns the configured (never stored) API key.
func (s *Store) APIKey() string { return s.apiKey }

// ConfiguredEnvironment returns the environment from configuration.
func (s *Store) ConfiguredEnvironment() domain.Environment { return s.env }

// InstallationToken returns the stored installation token, if any.
func (s *Store) InstallationToken() (string, bool, error) {
	return s.kv.Get(domain.KeyInstallationToken)
}

// ServerPublicKey returns the stored server public key PEM, if any.
func (s *Store) ServerPublicKey() (string, bool, error) {
	return s.kv.Get(domain.KeyServerPublicKey)
}

// SetInstallation persists the result of the installation handshake.
func (s *Store) SetInstallation(inst domain.Installation) error {
	if err := s.kv.Set(domain.KeyInstallationToken, inst.Token); err != nil {
		return err
	}
	return s.kv.Set(domain.KeyServerPublicKey, inst.ServerPublicKey)
}

// DeviceID returns the stored device id, if any.
func (s *Store) DeviceID() (string, bool, error) {
	return s.kv.Get(domain.KeyDeviceID)
}

// SetDeviceID persists the device id returned by registration.
func (s *Store) SetDeviceID(id string) error {
	return s.kv.Set(domain.KeyDeviceID, id)
}

// Session returns the stored session pair. Token and user id are only
// reported together; if either half is missing the session is absent.
func (s *Store) Session() (domain.Session, bool, error) {
	token, ok, err := s.kv.Get(domain.KeySessionToken)
	if err != nil || !ok {
		return domain.Session{}, false, err
	}
	userID, ok, err := s.kv.Get(domain.KeyUserID)
	if err != nil || !ok {
		return domain.Session{}, false, err
	}
	return domain.Session{Token: token, UserID: userID}, true, nil
}

// SetSession persists a session token and user id as a pair.
func (s *Store) SetSession(sess domain.Session) error {
	if err := s.kv.Set(domain.KeySessionToken, sess.Token); err != nil {
		return err
	}
	return s.kv.Set(domain.KeyUserID, sess.UserID)
}

// ClearSession removes the session pair. The token goes first so a partial
// clear can never leave a usable token behind.
func (s *Store) ClearSession() error {
	if err := s.kv.Delete(domain.KeySessionToken); err != nil {
		return err
	}
	return s.kv.Delete(domain.KeyUserID)
}

// KeyPair returns the stored RSA pair, parsed from PEM.
func (s *Store) KeyPair() (domain.KeyPair, bool, error) {
	privPEM, ok, err := s.kv.Get(domain.KeyRSAPrivateKey)
	if err != nil || !ok {
		return domain.KeyPair{}, false, err
	}
	pubPEM, ok, err := s.kv.Get(domain.KeyRSAPublicKey)
	if err != nil || !ok {
		return domain.KeyPair{}, false, err
	}
	priv, err := crypto.ParsePrivatePEM(privPEM)
	if err != nil {
		return domain.KeyPair{}, false, &domain.StorageError{Op: "parse", Key: domain.KeyRSAPrivateKey, Err: err}
	}
	pub, err := crypto.ParsePublicPEM(pubPEM)
	if err != nil {
		return domain.KeyPair{}, false, &domain.StorageError{Op: "parse", Key: domain.KeyRSAPublicKey, Err: err}
	}
	return domain.KeyPair{Private: priv, Public: pub}, true, nil
}

// SetKeyPair persists both halves of the RSA pair. The private half is
// write-once for the lifetime of the surrounding credentials: regenerating
// it would orphan the server-side device registration.
func (s *Store) SetKeyPair(kp domain.KeyPair) error {
	privPEM, err := crypto.MarshalPrivatePEM(kp.Private)
	if err != nil {
		return &domain.StorageError{Op: "marshal", Key: domain.KeyRSAPrivateKey, Err: err}
	}
	pubPEM, err := crypto.MarshalPublicPEM(kp.Public)
	if err != nil {
		return &domain.StorageError{Op: "marshal", Key: domain.KeyRSAPublicKey, Err: err}
	}
	if err := s.kv.Set(domain.KeyRSAPrivateKey, privPEM); err != nil {
		return err
	}
	return s.kv.Set(domain.KeyRSAPublicKey, pubPEM)
}

// PublicKeyPEM returns the stored public key PEM without parsing.
func (s *Store) PublicKeyPEM() (string, bool, error) {
	return s.kv.Get(domain.KeyRSAPublicKey)
}

// Fingerprint returns the stored API key fingerprint, if any.
func (s *Store) Fingerprint() (string, bool, error) {
	return s.kv.Get(domain.KeyAPIKeyFingerprint)
}

// StoredEnvironment returns the environment the stored credentials were
// created under.
func (s *Store) StoredEnvironment() (domain.Environment, bool, error) {
	v, ok, err := s.kv.Get(domain.KeyEnvironment)
	return domain.Environment(v), ok, err
}

// RecordFingerprint binds the current configuration to the stored
// credentials: the one-way digest of the API key plus the environment tag.
func (s *Store) RecordFingerprint() error {
	if err := s.kv.Set(domain.KeyAPIKeyFingerprint, crypto.Fingerprint([]byte(s.apiKey))); err != nil {
		return err
	}
	return s.kv.Set(domain.KeyEnvironment, string(s.env))
}

// Snapshot merges the configured API key with everything currently stored.
// Absent fields stay empty.
func (s *Store) Snapshot() (domain.Credentials, error) {
	c := domain.Credentials{APIKey: s.apiKey}
	for _, f := range []struct {
		key domain.Key
		dst *string
	}{
		{domain.KeyInstallationToken, &c.InstallationToken},
		{domain.KeyServerPublicKey, &c.ServerPublicKey},
		{domain.KeyDeviceID, &c.DeviceID},
		{domain.KeySessionToken, &c.SessionToken},
		{domain.KeyUserID, &c.UserID},
		{domain.KeyRSAPublicKey, &c.RSAPublicKey},
		{domain.KeyRSAPrivateKey, &c.RSAPrivateKey},
		{domain.KeyAPIKeyFingerprint, &c.APIKeyFingerprint},
	} {
		v, ok, err := s.kv.Get(f.key)
		if err != nil {
			return domain.Credentials{}, err
		}
		if ok {
			*f.dst = v
		}
	}
	env, ok, err := s.kv.Get(domain.KeyEnvironment)
	if err != nil {
		return domain.Credentials{}, err
	}
	if ok {
		c.Environment = domain.Environment(env)
	}
	return c, nil
}

// clearOrder removes the most dangerous fields first: any crash prefix of
// this sequence leaves the store looking unconfigured, never half
// authenticated.
var clearOrder = []domain.Key{
	domain.KeySessionToken,
	domain.KeyUserID,
	domain.KeyDeviceID,
	domain.KeyInstallationToken,
	domain.KeyServerPublicKey,
	domain.KeyRSAPrivateKey,
	domain.KeyRSAPublicKey,
	domain.KeyAPIKeyFingerprint,
	domain.KeyEnvironment,
}

// ClearAll removes every stored field. Idempotent.
func (s *Store) ClearAll() error {
	for _, k := range clearOrder {
		if err := s.kv.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// IsConfigured reports whether the API key is set and a session pair exists.
func (s *Store) IsConfigured() (bool, error) {
	if s.apiKey == "" {
		return false, nil
	}
	_, ok, err := s.Session()
	return ok, err
}

// HasCompletedSetup reports whether installation and device registration are
// done, independent of whether a session is currently active.
func (s *Store) HasCompletedSetup() (bool, error) {
	_, ok, err := s.InstallationToken()
	if err != nil || !ok {
		return false, err
	}
	_, ok, err = s.DeviceID()
	return ok, err
}
