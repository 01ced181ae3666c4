// Package bootstrap drives the one-time handshakes against the remote
// service: installation, then device registration under that installation.
package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"signet/internal/credentials"
	"signet/internal/crypto"
	"signet/internal/domain"
)

// Service performs installation and device registration, persisting each
// result as it lands. Both steps are skipped when their output is already
// stored; a fresh installation (after a clear) always registers again, since
// registration state does not survive the installation it was created under.
type Service struct {
	creds *credentials.Store
	api   domain.APIClient
	log   *zap.Logger
}

// New returns a bootstrap service.
func New(creds *credentials.Store, api domain.APIClient, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{creds: creds, api: api, log: log}
}

// EnsureInstallation returns the stored installation or performs the
// handshake. A successful install also records the configuration
// fingerprint, binding the stored credentials to the API key and environment
// they were created with.
func (s *Service) EnsureInstallation(ctx context.Context, kp domain.KeyPair) (domain.Installation, error) {
	token, ok, err := s.creds.InstallationToken()
	if err != nil {
		return domain.Installation{}, err
	}
	if ok {
		serverKey, _, err := s.creds.ServerPublicKey()
		if err != nil {
			return domain.Installation{}, err
		}
		return domain.Installation{Token: token, ServerPublicKey: serverKey}, nil
	}

	apiKey := s.creds.APIKey()
	if apiKey == "" {
		return domain.Installation{}, &domain.ConfigurationError{Reason: "api key not set"}
	}
	pubPEM, err := crypto.MarshalPublicPEM(kp.Public)
	if err != nil {
		return domain.Installation{}, err
	}

	inst, err := s.api.CreateInstallation(ctx, apiKey, pubPEM)
	if err != nil {
		return domain.Installation{}, err
	}
	if err := s.creds.SetInstallation(inst); err != nil {
		return domain.Installation{}, err
	}
	if err := s.creds.RecordFingerprint(); err != nil {
		return domain.Installation{}, err
	}
	s.log.Info("installation complete",
		zap.String("environment", string(s.creds.ConfiguredEnvironment())))
	return inst, nil
}

// EnsureDevice returns the stored device id or registers this device under
// the installation.
func (s *Service) EnsureDevice(ctx context.Context, inst domain.Installation, kp domain.KeyPair) (string, error) {
	id, ok, err := s.creds.DeviceID()
	if err != nil {
		return "", err
	}
	if ok {
		return id, nil
	}

	pubPEM, err := crypto.MarshalPublicPEM(kp.Public)
	if err != nil {
		return "", err
	}
	id, err = s.api.RegisterDevice(ctx, inst.Token, s.creds.APIKey(), pubPEM, deviceDescription())
	if err != nil {
		return "", err
	}
	if err := s.creds.SetDeviceID(id); err != nil {
		return "", err
	}
	s.log.Info("device registered", zap.String("device_id", id))
	return id, nil
}

// deviceDescription labels the registration on the server side.
func deviceDescription() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown-host"
	}
	return fmt.Sprintf("signet/%s/%s", host, uuid.NewString()[:8])
}
