package credentials

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

var (
	ErrWrongPassphrase = errors.New("credentials file cannot be opened with this passphrase")
	ErrSealedFile      = errors.New("credentials file is sealed, a passphrase is required")
)

const (
	saltLength  = 16
	nonceLength = 24
	keyLength   = 32
)

var _ Store = (*FileStore)(nil)

// FileStore is a Store persisted to a single JSON file.
// Every Set and Delete rewrites the file atomically.
type FileStore struct {
	mu         sync.RWMutex
	path       string
	passphrase []byte
	values     map[string]string
}

type FileStoreOption func(*FileStore)

// WithPassphrase seals the file contents with a key derived from passphrase.
func WithPassphrase(passphrase string) FileStoreOption {
	return func(s *FileStore) {
		if passphrase != "" {
			s.passphrase = []byte(passphrase)
		}
	}
}

// sealedFile is the on-disk layout when a passphrase is set.
type sealedFile struct {
	Salt   []byte `json:"salt"`
	Sealed []byte `json:"sealed"`
}

// NewFileStore opens path, creating it on first write if it does not exist.
func NewFileStore(path string, opts ...FileStoreOption) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		values: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("[credentials NewFileStore] %s: %w", path, err)
	}
	return s, nil
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok
}

func (s *FileStore) Set(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.values[key]
	s.values[key] = value
	if err := s.persist(); err != nil {
		if existed {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

func (s *FileStore) Delete(key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.values[key]
	if !existed {
		return nil
	}
	delete(s.values, key)
	if err := s.persist(); err != nil {
		s.values[key] = prev
		return err
	}
	return nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	var sealed sealedFile
	if err := json.Unmarshal(data, &sealed); err == nil && len(sealed.Sealed) > 0 {
		if s.passphrase == nil {
			return ErrSealedFile
		}
		data, err = s.open(sealed)
		if err != nil {
			return err
		}
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("decode credentials: %w", err)
	}
	s.values = values
	return nil
}

func (s *FileStore) persist() error {
	data, err := json.Marshal(s.values)
	if err != nil {
		return err
	}
	if s.passphrase != nil {
		sealed, err := s.seal(data)
		if err != nil {
			return err
		}
		if data, err = json.Marshal(sealed); err != nil {
			return err
		}
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) seal(plaintext []byte) (sealedFile, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return sealedFile{}, err
	}
	key, err := deriveKey(s.passphrase, salt)
	if err != nil {
		return sealedFile{}, err
	}

	var nonce [nonceLength]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return sealedFile{}, err
	}
	return sealedFile{
		Salt:   salt,
		Sealed: secretbox.Seal(nonce[:], plaintext, &nonce, key),
	}, nil
}

func (s *FileStore) open(f sealedFile) ([]byte, error) {
	if len(f.Sealed) < nonceLength {
		return nil, ErrWrongPassphrase
	}
	key, err := deriveKey(s.passphrase, f.Salt)
	if err != nil {
		return nil, err
	}

	var nonce [nonceLength]byte
	copy(nonce[:], f.Sealed[:nonceLength])
	plaintext, ok := secretbox.Open(nil, f.Sealed[nonceLength:], &nonce, key)
	if !ok {
		return nil, ErrWrongPassphrase
	}
	return plaintext, nil
}

func deriveKey(passphrase, salt []byte) (*[keyLength]byte, error) {
	k, err := scrypt.Key(passphrase, salt, 1<<15, 8, 1, keyLength)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	var key [keyLength]byte
	copy(key[:], k)
	return &key, nil
}
