package store

import (
	"crypto/rand"
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"signet/internal/util/memzero"
)

const (
	kekBytes   = 32
	saltBytes  = 16
	nonceBytes = chacha20poly1305.NonceSize
)

// deriveKEK derives a key-encryption key from a passphrase and salt using
// Argon2id.
func deriveKEK(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, 1<<16, 8, 1, kekBytes)
}

// seal encrypts plaintext under the passphrase. The blob layout is
// salt || nonce || ciphertext.
func seal(passphrase string, plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	kek := deriveKEK(passphrase, salt)
	defer memzero.Zero(kek)

	aead, err := chacha20poly1305.New(kek)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, nonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	blob := make([]byte, 0, saltBytes+nonceBytes+len(plaintext)+aead.Overhead())
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	return aead.Seal(blob, nonce, plaintext, nil), nil
}

// open decrypts a blob produced by seal.
func open(passphrase string, blob []byte) ([]byte, error) {
	if len(blob) < saltBytes+nonceBytes {
		return nil, errors.New("sealed blob too short")
	}
	salt := blob[:saltBytes]
	nonce := blob[saltBytes : saltBytes+nonceBytes]
	kek := deriveKEK(passphrase, salt)
	defer memzero.Zero(kek)

	aead, err := chacha20poly1305.New(kek)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce, blob[saltBytes+nonceBytes:], nil)
}
