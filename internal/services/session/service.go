// Package session drives the credential state machine end to end: it walks
// the missing bootstrap steps in dependency order, creates and reactively
// refreshes sessions, and exposes the single-retry combinator business
// callers wrap their requests in.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"signet/internal/credentials"
	"signet/internal/crypto"
	"signet/internal/domain"
	"signet/internal/services/bootstrap"
	"signet/internal/services/drift"
	"signet/internal/services/keypair"
	"signet/internal/util/memzero"
)

// Manager owns session establishment and refresh for one credential store.
//
// Concurrent callers collapse into a single in-flight bootstrap or refresh:
// the remote service may reject, or silently waste, duplicate installations
// and device registrations, so at most one of each sequence runs at a time
// and other waiters observe its result. Expiry is discovered reactively
// through the transport's 401-equivalent signal; there are no timers.
type Manager struct {
	creds           *credentials.Store
	api             domain.APIClient
	keys            *keypair.Service
	boot            *bootstrap.Service
	drift           *drift.Detector
	signer          domain.RequestSigner
	verifyResponses bool
	log             *zap.Logger

	flight singleflight.Group

	mu      sync.Mutex
	state   domain.State
	revoked bool
}

// Config wires a Manager.
type Config struct {
	Credentials     *credentials.Store
	API             domain.APIClient
	Keys            *keypair.Service
	Bootstrap       *bootstrap.Service
	Drift           *drift.Detector
	Signer          domain.RequestSigner
	VerifyResponses bool
	Logger          *zap.Logger
}

// NewManager returns a Manager over the given collaborators.
func NewManager(cfg Config) *Manager {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		creds:           cfg.Credentials,
		api:             cfg.API,
		keys:            cfg.Keys,
		boot:            cfg.Bootstrap,
		drift:           cfg.Drift,
		signer:          cfg.Signer,
		verifyResponses: cfg.VerifyResponses,
		log:             log,
		state:           domain.StateUnconfigured,
	}
}

// State reports the current position in the bootstrap state machine.
func (m *Manager) State() domain.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// EnsureSession returns an active session context, performing only the
// bootstrap steps not already satisfied. Repeated calls before any
// invalidation cost no further network round trips. Once a refresh has
// failed the manager stays revoked until Reset (via clearing all
// credentials).
func (m *Manager) EnsureSession(ctx context.Context) (*domain.SessionContext, error) {
	if m.isRevoked() {
		return nil, fmt.Errorf("ensure session: %w", domain.ErrAuthRevoked)
	}
	// Collapse concurrent callers into one flight. The flight runs detached
	// from any single caller's context so one cancellation cannot abort a
	// bootstrap other waiters depend on.
	v, err, _ := m.flight.Do("ensure", func() (any, error) {
		return m.ensure(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.SessionContext), nil
}

func (m *Manager) ensure(ctx context.Context) (*domain.SessionContext, error) {
	match, err := m.drift.CredentialsMatchPreferences()
	if err != nil {
		return nil, err
	}
	if !match {
		m.log.Warn("stored credentials no longer match configuration, clearing")
		if err := m.creds.ClearAll(); err != nil {
			return nil, err
		}
		m.setState(domain.StateUnconfigured)
	}

	kp, err := m.keys.EnsureKeyPair()
	if err != nil {
		return nil, err
	}

	if sess, ok, err := m.creds.Session(); err != nil {
		return nil, err
	} else if ok {
		m.setState(domain.StateSessionActive)
		return m.sessionContext(sess, kp), nil
	}

	m.setState(domain.StateInstalling)
	inst, err := m.boot.EnsureInstallation(ctx, kp)
	if err != nil {
		m.setState(domain.StateUnconfigured)
		return nil, err
	}
	m.setState(domain.StateInstalled)

	m.setState(domain.StateRegistering)
	if _, err := m.boot.EnsureDevice(ctx, inst, kp); err != nil {
		m.setState(domain.StateInstalled)
		return nil, err
	}
	m.setState(domain.StateDeviceRegistered)

	m.setState(domain.StateSessionCreating)
	sc, err := m.createShared(ctx, "")
	if err != nil {
		m.setState(domain.StateDeviceRegistered)
		return nil, err
	}
	m.setState(domain.StateSessionActive)
	return sc, nil
}

type sessionRequest struct {
	Secret string `json:"secret"`
}

// CreateSession exchanges a signed payload for a fresh session pair using
// the stored key pair and installation token. It may be called standalone
// (first login) or as part of a refresh, and shares the same in-flight
// creation as every other path.
func (m *Manager) CreateSession(ctx context.Context) (domain.Session, error) {
	if _, err := m.createShared(ctx, ""); err != nil {
		return domain.Session{}, err
	}
	sess, ok, err := m.creds.Session()
	if err != nil {
		return domain.Session{}, err
	}
	if !ok {
		return domain.Session{}, &domain.SessionError{Err: errors.New("session was not persisted")}
	}
	return sess, nil
}

// createShared is the single gate every session creation goes through:
// establishment, reactive refresh, and standalone CreateSession all collapse
// under one flight, so at most one remote session-create is in flight per
// manager and late callers observe its result instead of issuing their own.
//
// stale names a token known to be expired; a stored session with any other
// token is returned as-is (someone else already refreshed). Pass "" to
// accept whatever is stored. The flight is detached from the triggering
// caller's context.
func (m *Manager) createShared(ctx context.Context, stale string) (*domain.SessionContext, error) {
	v, err, shared := m.flight.Do("create", func() (any, error) {
		dctx := context.WithoutCancel(ctx)

		kp, ok, err := m.creds.KeyPair()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &domain.SessionError{Err: errors.New("no client key pair stored")}
		}
		if sess, ok, err := m.creds.Session(); err != nil {
			return nil, err
		} else if ok && sess.Token != stale {
			return m.sessionContext(sess, kp), nil
		} else if ok {
			if err := m.creds.ClearSession(); err != nil {
				return nil, err
			}
		}
		token, ok, err := m.creds.InstallationToken()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &domain.SessionError{Err: errors.New("no installation token stored")}
		}
		sess, err := m.createSession(dctx, kp, token)
		if err != nil {
			return nil, err
		}
		return m.sessionContext(sess, kp), nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		m.log.Debug("joined in-flight session creation")
	}
	return v.(*domain.SessionContext), nil
}

func (m *Manager) createSession(ctx context.Context, kp domain.KeyPair, installationToken string) (domain.Session, error) {
	payload, err := json.Marshal(sessionRequest{Secret: m.creds.APIKey()})
	if err != nil {
		return domain.Session{}, err
	}
	defer memzero.Zero(payload)

	sig, err := m.signer.Sign(payload, kp.Private)
	if err != nil {
		return domain.Session{}, &domain.SessionError{Err: err}
	}
	sess, err := m.api.CreateSession(ctx, installationToken, payload, sig)
	if err != nil {
		return domain.Session{}, err
	}
	if err := m.creds.SetSession(sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// WithSessionRefresh runs op under an active session. If op reports expiry,
// the session is recreated once and op retried once; a second expiry, or a
// failed recreation, latches the manager revoked. The two-attempt bound is
// enforced by the loop counter, never by recursion.
func (m *Manager) WithSessionRefresh(ctx context.Context, op domain.Operation) error {
	sess, err := m.EnsureSession(ctx)
	if err != nil {
		return err
	}

	const maxAttempts = 2
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = op(ctx, sess)
		if err == nil || !errors.Is(err, domain.ErrAuthExpired) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		sess, err = m.refresh(ctx, sess.Token)
		if err != nil {
			m.revoke(err)
			return fmt.Errorf("session refresh failed: %w", domain.ErrAuthRevoked)
		}
	}

	m.revoke(err)
	return fmt.Errorf("session expired again after refresh: %w", domain.ErrAuthRevoked)
}

// refresh recreates the session after an expiry signal. Concurrent
// refreshes, and any establishment racing them, collapse into the one
// in-flight creation inside createShared.
func (m *Manager) refresh(ctx context.Context, stale string) (*domain.SessionContext, error) {
	m.setState(domain.StateSessionRefreshing)
	sc, err := m.createShared(ctx, stale)
	if err != nil {
		return nil, err
	}
	m.setState(domain.StateSessionActive)
	return sc, nil
}

// Call performs one signed business request under the refresh combinator and
// verifies the server's response signature when enabled. A verification
// mismatch affects only that response; the session stays valid.
func (m *Manager) Call(ctx context.Context, method, path string, body []byte) (*domain.BusinessResponse, error) {
	var out *domain.BusinessResponse
	err := m.WithSessionRefresh(ctx, func(ctx context.Context, sess *domain.SessionContext) error {
		sig, err := sess.Sign(body)
		if err != nil {
			return err
		}
		resp, err := m.api.Do(ctx, domain.BusinessRequest{
			Method:       method,
			Path:         path,
			Body:         body,
			SessionToken: sess.Token,
			Signature:    sig,
		})
		if err != nil {
			return err
		}
		out = resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	if m.verifyResponses && out.ServerSignature != "" {
		if err := m.verifyResponse(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (m *Manager) verifyResponse(resp *domain.BusinessResponse) error {
	pem, ok, err := m.creds.ServerPublicKey()
	if err != nil {
		return err
	}
	if !ok {
		return &domain.IntegrityError{Detail: "no server public key stored"}
	}
	pub, err := crypto.ParsePublicPEM(pem)
	if err != nil {
		return &domain.IntegrityError{Detail: "stored server public key unparseable"}
	}
	return m.signer.Verify(resp.Body, resp.ServerSignature, pub)
}

// Reset clears the revoked latch. Call only after the credential store has
// been cleared.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked = false
	m.state = domain.StateUnconfigured
}

func (m *Manager) sessionContext(sess domain.Session, kp domain.KeyPair) *domain.SessionContext {
	priv := kp.Private
	return domain.NewSessionContext(sess.Token, sess.UserID, func(body []byte) (string, error) {
		return m.signer.Sign(body, priv)
	})
}

func (m *Manager) setState(s domain.State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) isRevoked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.revoked
}

// revoke latches the terminal state and drops the now-useless session pair.
func (m *Manager) revoke(cause error) {
	m.mu.Lock()
	m.revoked = true
	m.state = domain.StateAuthRevoked
	m.mu.Unlock()
	if err := m.creds.ClearSession(); err != nil {
		m.log.Error("clearing session after revocation", zap.Error(err))
	}
	m.log.Warn("authorization revoked, full re-bootstrap required", zap.Error(cause))
}
