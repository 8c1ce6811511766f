package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Key names shared by the client
const (
	KeyToken   = "token"
	KeyUserKey = "user_key"
	KeyTheme   = "theme"
	keySalt    = "_salt"
)

// ErrLocked is returned when a sealed value is read without a passphrase
var ErrLocked = errors.New("value is sealed and no storage key is configured")

// Store is a persistent key-value store backed by SQLite
type Store struct {
	db *sql.DB

	mu     sync.RWMutex
	crypto *Crypto
}

// DefaultPath returns the default state path (~/.irontodo/state.db)
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".irontodo", "state.db"), nil
}

// Open opens or creates the state database at path
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	// A single connection serializes writers on the file
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to storage: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// OpenDefault opens the store at the default path
func OpenDefault() (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Unlock enables sealing of secret values with a key derived from passphrase.
// The salt is generated on first use and kept in the store.
func (s *Store) Unlock(passphrase string) error {
	saltB64, ok, err := s.Get(keySalt)
	if err != nil {
		return err
	}

	var salt []byte
	if ok {
		salt, err = decodeSalt(saltB64)
		if err != nil {
			return fmt.Errorf("failed to read salt: %w", err)
		}
	} else {
		salt, err = GenerateSalt()
		if err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}
		if err := s.Set(keySalt, encodeSalt(salt)); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.crypto = NewCrypto(passphrase, salt)
	s.mu.Unlock()
	return nil
}

// Sealing reports whether secret values are encrypted at rest
func (s *Store) Sealing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.crypto != nil
}

// Get returns the value stored under key
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	var sealed bool
	err := s.db.QueryRow(`SELECT value, sealed FROM kv WHERE key = ?`, key).Scan(&value, &sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !sealed {
		return value, true, nil
	}

	s.mu.RLock()
	c := s.crypto
	s.mu.RUnlock()
	if c == nil {
		return "", false, ErrLocked
	}
	plain, err := c.Decrypt(value)
	if err != nil {
		return "", false, fmt.Errorf("failed to unseal %s: %w", key, err)
	}
	return string(plain), true, nil
}

// Set stores value under key in plain text
func (s *Store) Set(key, value string) error {
	return s.put(key, value, false)
}

// SetSecret stores value under key, sealed when a passphrase is configured
func (s *Store) SetSecret(key, value string) error {
	s.mu.RLock()
	c := s.crypto
	s.mu.RUnlock()
	if c == nil {
		return s.put(key, value, false)
	}

	sealed, err := c.Encrypt([]byte(value))
	if err != nil {
		return fmt.Errorf("failed to seal %s: %w", key, err)
	}
	return s.put(key, sealed, true)
}

func (s *Store) put(key, value string, sealed bool) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, sealed, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, sealed = excluded.sealed, updated_at = excluded.updated_at`,
		key, value, sealed, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Clear removes every key except the sealing salt
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key <> ?`, keySalt); err != nil {
		return fmt.Errorf("failed to clear storage: %w", err)
	}
	return nil
}

// Keys lists stored keys, used by the config command
func (s *Store) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM kv WHERE key <> ? ORDER BY key`, keySalt)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// GetJSON decodes the value under key into out
func (s *Store) GetJSON(key string, out interface{}) (bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return ok, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key
func (s *Store) SetJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(key, string(data))
}

// SetSecretJSON encodes v and stores it sealed under key
func (s *Store) SetSecretJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.SetSecret(key, string(data))
}
