// Package settings holds the user-editable preferences: the SMMDB API key and
// the catalog page size.
package settings

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jask/smmdbtui/internal/config"
	"github.com/jask/smmdbtui/internal/secrets"
)

const apiKeyName = "smmdb"

// Settings is the editable preference set.
type Settings struct {
	APIKey   string
	PageSize int
}

// Credential returns the trimmed API key and whether one is configured.
func (s Settings) Credential() (string, bool) {
	k := strings.TrimSpace(s.APIKey)
	return k, k != ""
}

// Store persists Settings: the page size goes to the config file and the key
// to the encrypted secrets file.
type Store struct {
	mu      sync.Mutex
	path    string
	cfg     config.Config
	secrets *secrets.Store
}

// NewStore writes cfg back to path on Save with the page size replaced.
func NewStore(path string, cfg config.Config, sec *secrets.Store) *Store {
	return &Store{path: path, cfg: cfg, secrets: sec}
}

// Load reads the current settings. A missing key is not an error.
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Settings{PageSize: s.cfg.Catalog.PageSize}
	key, err := s.secrets.FetchKey(apiKeyName)
	switch {
	case errors.Is(err, secrets.ErrNotFound):
	case err != nil:
		return out, fmt.Errorf("load api key: %w", err)
	default:
		out.APIKey = key
	}
	return out, nil
}

// Save persists st. An empty API key removes the stored one.
func (s *Store) Save(st Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key, ok := st.Credential(); ok {
		if err := s.secrets.StoreKey(apiKeyName, key); err != nil {
			return fmt.Errorf("store api key: %w", err)
		}
	} else if err := s.secrets.DeleteKey(apiKeyName); err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}

	if st.PageSize > 0 && st.PageSize != s.cfg.Catalog.PageSize {
		next := s.cfg
		next.Catalog.PageSize = st.PageSize
		if err := config.Save(s.path, next); err != nil {
			return err
		}
		s.cfg = next
	}
	return nil
}
