package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the full SHA-256 hex digest of data.
//
// Used for drift detection: the digest of the API key is stored instead of
// the key itself, so the comparison never touches the literal secret.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
