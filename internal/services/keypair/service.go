// Package keypair owns the client's long-term RSA material.
package keypair

import (
	"go.uber.org/zap"

	"signet/internal/credentials"
	"signet/internal/crypto"
	"signet/internal/domain"
)

// Service generates and persists the client key pair exactly once.
//
// The private half never leaves the process: it is stored PEM-encoded by the
// credential store and handed to the signer, but never logged or transmitted.
// While credentials exist the pair is never regenerated; a fresh pair would
// silently orphan the server-side device registration.
type Service struct {
	creds *credentials.Store
	log   *zap.Logger
}

// New returns a key pair service backed by the given credential store.
func New(creds *credentials.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{creds: creds, log: log}
}

// EnsureKeyPair returns the stored pair, generating and persisting one first
// if none exists.
func (s *Service) EnsureKeyPair() (domain.KeyPair, error) {
	kp, ok, err := s.creds.KeyPair()
	if err != nil {
		return domain.KeyPair{}, err
	}
	if ok {
		return kp, nil
	}

	priv, err := crypto.GenerateKeyPair()
	if err != nil {
		return domain.KeyPair{}, err
	}
	kp = domain.KeyPair{Private: priv, Public: &priv.PublicKey}
	if err := s.creds.SetKeyPair(kp); err != nil {
		return domain.KeyPair{}, err
	}
	s.log.Info("generated client key pair", zap.Int("bits", crypto.KeyBits))
	return kp, nil
}
