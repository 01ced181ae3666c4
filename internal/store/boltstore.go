package store

import (
	"time"

	"go.etcd.io/bbolt"

	"signet/internal/domain"
)

var bucketCredentials = []byte("credentials")

// BoltStore keeps the credential fields in a bbolt database.
//
// Encryption at rest is the caller's responsibility; prefer the FileStore
// when the host has no filesystem-level encryption.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBolt opens (or creates) the database at path and ensures the
// credentials bucket exists.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, &domain.StorageError{Op: "open", Err: err}
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketCredentials)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, &domain.StorageError{Op: "open", Err: err}
	}
	return &BoltStore{db: db}, nil
}

// Get retrieves a single field.
func (s *BoltStore) Get(key domain.Key) (string, bool, error) {
	var v []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCredentials).Get([]byte(key))
		if b != nil {
			v = append([]byte(nil), b...)
		}
		return nil
	})
	if err != nil {
		return "", false, &domain.StorageError{Op: "get", Key: key, Err: err}
	}
	if v == nil {
		return "", false, nil
	}
	return string(v), true, nil
}

// Set writes a single field.
func (s *BoltStore) Set(key domain.Key, value string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCredentials).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return &domain.StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Delete removes a single field. Removing an absent field is not an error.
func (s *BoltStore) Delete(key domain.Key) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCredentials).Delete([]byte(key))
	})
	if err != nil {
		return &domain.StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Close releases the database file.
func (s *BoltStore) Close() error { return s.db.Close() }

// Compile-time assertion that BoltStore implements domain.SecretStore.
var _ domain.SecretStore = (*BoltStore)(nil)
