// Package signing produces and checks the detached signatures carried in the
// request envelope. The canonical form of a request is its exact body bytes;
// the signature is RSA PKCS#1 v1.5 over SHA-256 of those bytes, base64
// encoded for the header.
package signing

import (
	"crypto/rsa"
	"encoding/base64"

	"signet/internal/crypto"
	"signet/internal/domain"
)

// Signer implements domain.RequestSigner.
type Signer struct{}

// New returns a Signer.
func New() *Signer { return &Signer{} }

// Sign returns the base64 signature header value for body.
func (s *Signer) Sign(body []byte, priv *rsa.PrivateKey) (string, error) {
	sig, err := crypto.SignSHA256(priv, body)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify checks a server signature over a response body. A mismatch is an
// IntegrityError scoped to that single response.
func (s *Signer) Verify(body []byte, signatureB64 string, pub *rsa.PublicKey) error {
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return &domain.IntegrityError{Detail: "signature is not valid base64"}
	}
	if err := crypto.VerifySHA256(pub, body, sig); err != nil {
		return &domain.IntegrityError{Detail: "signature does not match response body"}
	}
	return nil
}

// Compile-time assertion that Signer implements domain.RequestSigner.
var _ domain.RequestSigner = (*Signer)(nil)
