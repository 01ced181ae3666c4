package app

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"signet/internal/api"
	"signet/internal/credentials"
	"signet/internal/domain"
	"signet/internal/services/bootstrap"
	"signet/internal/services/drift"
	"signet/internal/services/keypair"
	"signet/internal/services/session"
	"signet/internal/signing"
	"signet/internal/store"
)

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	kv, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	baseURL, err := cfg.BaseURLOrDefault()
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	creds := credentials.New(kv, cfg.APIKey, cfg.Environment)
	client := api.New(baseURL, cfg.HTTP, log.Named("api"))
	signer := signing.New()
	detector := drift.New(creds)

	manager := session.NewManager(session.Config{
		Credentials:     creds,
		API:             client,
		Keys:            keypair.New(creds, log.Named("keypair")),
		Bootstrap:       bootstrap.New(creds, client, log.Named("bootstrap")),
		Drift:           detector,
		Signer:          signer,
		VerifyResponses: cfg.VerifyResponses,
		Logger:          log.Named("session"),
	})

	return &App{
		Sessions: manager,
		Drift:    detector,
		Creds:    creds,
		kv:       kv,
		log:      log,
	}, nil
}

func openStore(cfg Config) (domain.SecretStore, error) {
	switch cfg.Store {
	case StoreMemory:
		return store.NewMemStore(), nil
	case StoreBolt:
		if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
			return nil, err
		}
		return store.OpenBolt(filepath.Join(cfg.Home, "credentials.db"))
	default:
		if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
			return nil, err
		}
		return store.NewFileStore(cfg.Home, cfg.Passphrase), nil
	}
}
