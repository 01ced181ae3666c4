// Package drift decides whether stored credentials still belong to the
// current configuration.
package drift

import (
	"signet/internal/credentials"
	"signet/internal/crypto"
)

// Detector compares the configured API key and environment against the
// fingerprint recorded when the stored credentials were created.
type Detector struct {
	creds *credentials.Store
}

// New returns a drift detector over the given credential store.
func New(creds *credentials.Store) *Detector {
	return &Detector{creds: creds}
}

// Fingerprint is the one-way digest stored in place of the API key.
func Fingerprint(apiKey string) string {
	return crypto.Fingerprint([]byte(apiKey))
}

// CredentialsMatchPreferences reports whether the stored credentials can be
// reused under the current configuration:
//
//   - nothing stored yet: true (first run)
//   - fingerprint and environment both match: true
//   - fingerprint or environment differ: false
//   - installation credentials exist but no fingerprint was ever recorded
//     (pre-upgrade state): false; legacy secrets cannot be verified, so we
//     force a clean re-authentication instead of trusting them.
func (d *Detector) CredentialsMatchPreferences() (bool, error) {
	storedFP, haveFP, err := d.creds.Fingerprint()
	if err != nil {
		return false, err
	}

	if !haveFP {
		_, haveInstallation, err := d.creds.InstallationToken()
		if err != nil {
			return false, err
		}
		return !haveInstallation, nil
	}

	if storedFP != Fingerprint(d.creds.APIKey()) {
		return false, nil
	}
	storedEnv, haveEnv, err := d.creds.StoredEnvironment()
	if err != nil {
		return false, err
	}
	return haveEnv && storedEnv == d.creds.ConfiguredEnvironment(), nil
}
