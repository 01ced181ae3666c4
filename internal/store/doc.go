// Package store provides the durable backends for credential storage: an
// encrypted file store, a bbolt store, and an in-memory store for tests.
// All of them implement domain.SecretStore.
package store
