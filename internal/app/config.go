package app

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"signet/internal/domain"
)

// Store backend selectors.
const (
	StoreFile   = "file"
	StoreBolt   = "bolt"
	StoreMemory = "memory"
)

// Config holds the runtime wiring options for building the app. APIKey and
// Environment are the configuration input of the subsystem; everything else
// selects infrastructure.
type Config struct {
	APIKey      string
	Environment domain.Environment

	Home    string // credential directory, e.g. $XDG_DATA_HOME/signet
	BaseURL string // optional; defaults per environment

	Store      string // file, bolt, or memory
	Passphrase string // required for the file store

	VerifyResponses bool

	HTTP   *http.Client // optional; defaults to http.DefaultClient
	Logger *zap.Logger  // optional; defaults to a no-op logger
}

// Validate checks the boundary invariants before any wiring happens.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return &domain.ConfigurationError{Reason: "api key is required"}
	}
	if _, err := domain.ParseEnvironment(string(c.Environment)); err != nil {
		return &domain.ConfigurationError{Reason: "invalid environment", Err: err}
	}
	switch c.Store {
	case StoreFile:
		if c.Passphrase == "" {
			return &domain.ConfigurationError{Reason: "passphrase is required for the file store"}
		}
	case StoreBolt, StoreMemory:
	default:
		return &domain.ConfigurationError{Reason: "unknown store backend " + c.Store}
	}
	if c.Store != StoreMemory && c.Home == "" {
		return &domain.ConfigurationError{Reason: "home directory is required"}
	}
	return nil
}

// BaseURLOrDefault resolves the remote endpoint for the environment.
func (c *Config) BaseURLOrDefault() (string, error) {
	if c.BaseURL != "" {
		return c.BaseURL, nil
	}
	switch c.Environment {
	case domain.Sandbox:
		return "https://api.sandbox.signet.example", nil
	case domain.Production:
		return "https://api.signet.example", nil
	}
	return "", errors.New("no base URL for environment " + string(c.Environment))
}
