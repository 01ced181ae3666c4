package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is.
var (
	// ErrAuthExpired is the 401-equivalent signal from the transport layer.
	// It triggers exactly one reactive session refresh.
	ErrAuthExpired = errors.New("session expired")

	// ErrAuthRevoked is terminal: the refresh itself failed. The caller must
	// clear all credentials and re-bootstrap.
	ErrAuthRevoked = errors.New("authorization revoked")
)

// ConfigurationError means the API key is missing or was rejected by the
// remote service.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Reason, e.Err)
	}
	return "configuration: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// BootstrapError is a transport or protocol failure during installation or
// device registration.
type BootstrapError struct {
	Step string // "install" or "register"
	Err  error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrap %s: %v", e.Step, e.Err)
}

func (e *BootstrapError) Unwrap() error { return e.Err }

// SessionError means session creation failed.
type SessionError struct {
	Err error
}

func (e *SessionError) Error() string { return fmt.Sprintf("session create: %v", e.Err) }

func (e *SessionError) Unwrap() error { return e.Err }

// IntegrityError means a response signature did not verify. It is scoped to
// the single affected response and does not invalidate the session.
type IntegrityError struct {
	Detail string
}

func (e *IntegrityError) Error() string { return "response integrity: " + e.Detail }

// StorageError wraps a secret-store read or write failure.
type StorageError struct {
	Op  string
	Key Key
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("secret store %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
