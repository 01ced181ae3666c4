package crypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
)

// SignSHA256 signs SHA-256(body) with RSA PKCS#1 v1.5. The scheme is
// deterministic: equal bodies under the same key yield equal signatures.
func SignSHA256(priv *rsa.PrivateKey, body []byte) ([]byte, error) {
	sum := sha256.Sum256(body)
	return rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, sum[:])
}

// VerifySHA256 checks an RSA PKCS#1 v1.5 signature over SHA-256(body).
func VerifySHA256(pub *rsa.PublicKey, body, sig []byte) error {
	sum := sha256.Sum256(body)
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, sum[:], sig)
}
