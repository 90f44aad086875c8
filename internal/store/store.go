// Package store is a durable string-keyed store shared by every console
// process of the same profile, the moral equivalent of origin-scoped browser
// storage. Values live one-per-file under a root directory; Watch surfaces
// mutations made by any process sharing the directory.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Well-known keys. Removing the session keys is equivalent to logout from the
// session manager's perspective.
const (
	KeyAuthToken     = "auth_token"
	KeyUserData      = "user_data"
	KeyUserID        = "user_id"
	KeySettings      = "user_settings"
	KeyCustomization = "user_customization"
)

// SessionKeys are the keys cleared by a logout. Preference keys survive.
var SessionKeys = []string{KeyAuthToken, KeyUserData, KeyUserID}

var ErrInvalidKey = errors.New("store: invalid key")

// Store persists key/value pairs under a directory with atomic writes.
// Any process may write at any time; consumers must treat their in-memory
// snapshots as soft caches and re-read after a change signal.
type Store struct {
	mu  sync.Mutex
	dir string
}

// Open creates the backing directory if needed and returns a ready store.
func Open(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("store: directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *Store) Dir() string { return s.dir }

// Get returns the value for key. A missing or unreadable value reports ok=false.
func (s *Store) Get(key string) (string, bool) {
	if !validKey(key) {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(filepath.Join(s.dir, key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Set writes the value for key atomically.
func (s *Store) Set(key, value string) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeFile(key, []byte(value))
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: delete %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys currently present.
func (s *Store) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("store: list keys: %w", err)
	}
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !validKey(name) {
			continue
		}
		keys = append(keys, name)
	}
	return keys, nil
}

// ClearSession removes only the session keys, leaving preferences intact.
func (s *Store) ClearSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range SessionKeys {
		if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("store: clear session: %w", err)
		}
	}
	return nil
}

// Clear removes every key, session and preferences alike. Callers should treat
// this as a full local reset, not a logout.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("store: clear: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !validKey(name) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("store: clear: %w", err)
		}
	}
	return nil
}

func (s *Store) writeFile(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, name+".tmp*")
	if err != nil {
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	return nil
}

func validKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}
