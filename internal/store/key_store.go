package store

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"stellarsplit/internal/crypto"
	"stellarsplit/internal/domain"
)

const keyFilename = "signer_seed.json.enc"

// KeyFileStore persists the signing agent's seed encrypted on disk.
type KeyFileStore struct {
	dir string
	kdf kdfParams
	mu  sync.Mutex
}

// NewKeyFileStore returns a KeyFileStore rooted at dir.
func NewKeyFileStore(dir string) *KeyFileStore {
	return &KeyFileStore{dir: dir, kdf: defaultKDF}
}

func (s *KeyFileStore) path() string { return filepath.Join(s.dir, keyFilename) }

// Exists reports whether a keystore file is present.
func (s *KeyFileStore) Exists() bool {
	_, err := os.Stat(s.path())
	return err == nil
}

// SaveSeed encrypts seed under passphrase and replaces any existing keystore.
func (s *KeyFileStore) SaveSeed(passphrase string, seed []byte) error {
	if passphrase == "" {
		return errors.New("keystore passphrase must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ct, err := seal(passphrase, seed, s.kdf)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	return writeFile(s.path(), ct, 0o600)
}

// LoadSeed reads and decrypts the seed.
func (s *KeyFileStore) LoadSeed(passphrase string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path())
	if err != nil {
		return nil, err
	}
	return open(passphrase, b)
}

// LoadKeyPair decrypts the seed and returns the key pair it encodes. The
// decrypted seed is wiped before returning.
func (s *KeyFileStore) LoadKeyPair(passphrase string) (*crypto.KeyPair, error) {
	seed, err := s.LoadSeed(passphrase)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(seed)
	return crypto.KeyPairFromSeed(seed)
}

var _ domain.KeyStore = (*KeyFileStore)(nil)
