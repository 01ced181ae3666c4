// Package app wires the credential store, services, and API client into one
// value owned by the application root, and exposes the public contract
// callers program against. There is no ambient session: callers hold the App
// and pass it where it is needed.
package app

import (
	"context"

	"go.uber.org/zap"

	"signet/internal/credentials"
	"signet/internal/domain"
	"signet/internal/services/drift"
	"signet/internal/services/session"
)

// App is the assembled subsystem.
type App struct {
	Sessions *session.Manager
	Drift    *drift.Detector
	Creds    *credentials.Store

	kv  domain.SecretStore
	log *zap.Logger
}

// EnsureSession lazily drives key pair, installation, device registration,
// and session creation, skipping completed steps.
func (a *App) EnsureSession(ctx context.Context) (*domain.SessionContext, error) {
	return a.Sessions.EnsureSession(ctx)
}

// WithSessionRefresh runs op with a single reactive refresh on expiry.
func (a *App) WithSessionRefresh(ctx context.Context, op domain.Operation) error {
	return a.Sessions.WithSessionRefresh(ctx, op)
}

// Call performs a signed business request.
func (a *App) Call(ctx context.Context, method, path string, body []byte) (*domain.BusinessResponse, error) {
	return a.Sessions.Call(ctx, method, path, body)
}

// ClearAll destroys every stored credential and unlocks a revoked manager.
func (a *App) ClearAll() error {
	if err := a.Creds.ClearAll(); err != nil {
		return err
	}
	a.Sessions.Reset()
	a.log.Info("credentials cleared")
	return nil
}

// IsConfigured reports whether apiKey, sessionToken, and userId are all
// present.
func (a *App) IsConfigured() (bool, error) { return a.Creds.IsConfigured() }

// HasCompletedSetup reports whether installation and device registration are
// done, regardless of session state.
func (a *App) HasCompletedSetup() (bool, error) { return a.Creds.HasCompletedSetup() }

// CredentialsMatchPreferences reports whether stored credentials still
// correspond to the configured API key and environment.
func (a *App) CredentialsMatchPreferences() (bool, error) {
	return a.Drift.CredentialsMatchPreferences()
}

// Close releases the underlying store.
func (a *App) Close() error { return a.kv.Close() }
