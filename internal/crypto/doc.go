// Package crypto wraps the RSA primitives used by the signing protocol:
// key generation, PEM round-trips, SHA-256 signatures, and fingerprints.
package crypto
