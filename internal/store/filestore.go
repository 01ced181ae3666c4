package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"signet/internal/domain"
	"signet/internal/util/memzero"
)

const credentialsFilename = "credentials.enc"

// FileStore keeps the credential fields in a single file, encrypted at rest
// with a key derived from the passphrase.
type FileStore struct {
	dir        string
	passphrase string
	mu         sync.Mutex
}

// NewFileStore returns a FileStore rooted at dir.
func NewFileStore(dir, passphrase string) *FileStore {
	return &FileStore{dir: dir, passphrase: passphrase}
}

// Get retrieves a single field.
func (s *FileStore) Get(key domain.Key) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return "", false, &domain.StorageError{Op: "get", Key: key, Err: err}
	}
	v, ok := m[key]
	return v, ok, nil
}

// Set writes a single field.
func (s *FileStore) Set(key domain.Key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return &domain.StorageError{Op: "set", Key: key, Err: err}
	}
	m[key] = value
	if err := s.save(m); err != nil {
		return &domain.StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

// Delete removes a single field. Removing an absent field is not an error.
func (s *FileStore) Delete(key domain.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return &domain.StorageError{Op: "delete", Key: key, Err: err}
	}
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	if err := s.save(m); err != nil {
		return &domain.StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error { return nil }

// load reads and decrypts the credential map; a missing file yields an empty
// map.
func (s *FileStore) load() (map[domain.Key]string, error) {
	m := make(map[domain.Key]string)
	blob, err := os.ReadFile(filepath.Join(s.dir, credentialsFilename))
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	raw, err := open(s.passphrase, blob)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(raw)
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// save encrypts and writes the credential map via a temp file then rename.
func (s *FileStore) save(m map[domain.Key]string) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	blob, err := seal(s.passphrase, raw)
	memzero.Zero(raw)
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, credentialsFilename)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Compile-time assertion that FileStore implements domain.SecretStore.
var _ domain.SecretStore = (*FileStore)(nil)
