package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// lightweight per-user secret store (file, 0600) with AES-GCM obfuscation.
// Not a replacement for OS keychains but avoids plain-text config.

const fileName = "keys.json"

// ErrNotFound is returned by FetchKey for names never stored.
var ErrNotFound = errors.New("secrets: key not found")

type secretFile struct {
	Keys map[string]string `json:"keys"` // name -> base64(ciphertext)
}

// Store is a keys.json file in a single directory.
type Store struct {
	mu   sync.Mutex
	path string
}

// New returns a store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{path: filepath.Join(dir, fileName)}
}

// Default returns the store under the user's config directory.
func Default() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return New(filepath.Join(dir, "smmdbtui")), nil
}

func (s *Store) StoreKey(name, key string) error {
	if name = norm(name); name == "" {
		return fmt.Errorf("name required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sf, err := load(s.path)
	if err != nil {
		return err
	}
	ct, err := encrypt([]byte(key))
	if err != nil {
		return err
	}
	sf.Keys[name] = base64.StdEncoding.EncodeToString(ct)
	return save(s.path, sf)
}

func (s *Store) FetchKey(name string) (string, error) {
	if name = norm(name); name == "" {
		return "", fmt.Errorf("name required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sf, err := load(s.path)
	if err != nil {
		return "", err
	}
	enc, ok := sf.Keys[name]
	if !ok {
		return "", ErrNotFound
	}
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", err
	}
	pt, err := decrypt(raw)
	if err != nil {
		return "", fmt.Errorf("decrypt %s: %w", name, err)
	}
	return string(pt), nil
}

// DeleteKey removes name. Deleting a missing key succeeds.
func (s *Store) DeleteKey(name string) error {
	if name = norm(name); name == "" {
		return fmt.Errorf("name required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sf, err := load(s.path)
	if err != nil {
		return err
	}
	if _, ok := sf.Keys[name]; !ok {
		return nil
	}
	delete(sf.Keys, name)
	return save(s.path, sf)
}

func load(path string) (secretFile, error) {
	sf := secretFile{Keys: map[string]string{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sf, nil
		}
		return sf, err
	}
	if err := json.Unmarshal(data, &sf); err != nil {
		return sf, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if sf.Keys == nil {
		sf.Keys = map[string]string{}
	}
	return sf, nil
}

func save(path string, sf secretFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil { // restrict directory
		return err
	}
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func norm(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}

func masterKey() []byte {
	base := fmt.Sprintf("smmdbtui-%s-%s", runtime.GOOS, os.Getenv("USER"))
	hash := sha256.Sum256([]byte(base))
	return hash[:]
}

func newGCM() (cipher.AEAD, error) {
	block, err := aes.NewCipher(masterKey())
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func encrypt(plain []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plain, nil), nil
}

func decrypt(ciphertext []byte) ([]byte, error) {
	gcm, err := newGCM()
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce := ciphertext[:gcm.NonceSize()]
	body := ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}
