package session

import (
	"strings"
	"sync"
	"time"

	"github.com/existflow/irontodo/internal/logger"
	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/storage"
)

// TokenTTL bounds a token stored without a server expiry
const TokenTTL = 30 * 24 * time.Hour

// expiryLayouts are the datetime shapes the API uses for expires_at
var expiryLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// TokenRecord is the persisted credential
type TokenRecord struct {
	Token     string     `json:"token"`
	TokenType string     `json:"token_type"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Expired reports whether the record is unusable at now
func (r TokenRecord) Expired(now time.Time) bool {
	if r.Token == "" {
		return true
	}
	if r.ExpiresAt != nil {
		return !now.Before(*r.ExpiresAt)
	}
	return now.Sub(r.Timestamp) > TokenTTL
}

// Header returns the Authorization header value
func (r TokenRecord) Header() string {
	tokenType := r.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return tokenType + " " + r.Token
}

// ParseExpiry parses an expires_at value; the second result is false when
// the value is empty or not a known datetime shape
func ParseExpiry(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// KV is the subset of local storage the session needs
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	GetJSON(key string, out interface{}) (bool, error)
	SetSecretJSON(key string, v interface{}) error
}

var _ KV = (*storage.Store)(nil)

// Manager owns the persisted credential and the unauthorized teardown
type Manager struct {
	kv  KV
	now func() time.Time
	log *logger.Logger

	mu             sync.Mutex
	onUnauthorized func()
}

// New creates a session manager over kv
func New(kv KV) *Manager {
	return &Manager{
		kv:  kv,
		now: time.Now,
		log: logger.WithFields(logger.F("component", "session")),
	}
}

// SetClock replaces the time source, used by tests
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Record returns the stored record whether or not it is expired
func (m *Manager) Record() (TokenRecord, bool) {
	var rec TokenRecord
	ok, err := m.kv.GetJSON(storage.KeyToken, &rec)
	if err != nil {
		m.log.Warn("Failed to read token record", logger.F("error", err))
		return TokenRecord{}, false
	}
	return rec, ok
}

// Token returns the stored token if it is still valid. An expired record is
// removed.
func (m *Manager) Token() (TokenRecord, bool) {
	rec, ok := m.Record()
	if !ok {
		return TokenRecord{}, false
	}
	if rec.Expired(m.now()) {
		m.log.Info("Stored token expired")
		m.Clear()
		return TokenRecord{}, false
	}
	return rec, true
}

// Authorization returns the Authorization header for the valid token
func (m *Manager) Authorization() (string, bool) {
	rec, ok := m.Token()
	if !ok {
		return "", false
	}
	return rec.Header(), true
}

// Authenticated reports whether a valid token is stored
func (m *Manager) Authenticated() bool {
	_, ok := m.Token()
	return ok
}

// Store persists the token from a login response along with the user key
func (m *Manager) Store(resp model.TokenResponse) (TokenRecord, error) {
	now := m.now()
	rec := TokenRecord{
		Token:     resp.AccessToken,
		TokenType: resp.TokenType,
		Timestamp: now,
	}
	if rec.TokenType == "" {
		rec.TokenType = "Bearer"
	}
	if t, ok := ParseExpiry(resp.ExpiresAt); ok {
		rec.ExpiresAt = &t
	}

	if err := m.kv.SetSecretJSON(storage.KeyToken, rec); err != nil {
		return TokenRecord{}, err
	}
	if resp.UserKey != "" {
		if err := m.kv.Set(storage.KeyUserKey, resp.UserKey); err != nil {
			return TokenRecord{}, err
		}
	}
	return rec, nil
}

// Clear removes the stored token
func (m *Manager) Clear() error {
	return m.kv.Delete(storage.KeyToken)
}

// Logout removes the token and the user key
func (m *Manager) Logout() error {
	if err := m.Clear(); err != nil {
		return err
	}
	return m.kv.Delete(storage.KeyUserKey)
}

// UserKey returns the key of the signed-in user
func (m *Manager) UserKey() string {
	key, _, err := m.kv.Get(storage.KeyUserKey)
	if err != nil {
		m.log.Warn("Failed to read user key", logger.F("error", err))
	}
	return key
}

// Theme returns the stored theme preference, or fallback
func (m *Manager) Theme(fallback string) string {
	theme, ok, err := m.kv.Get(storage.KeyTheme)
	if err != nil || !ok || theme == "" {
		return fallback
	}
	return theme
}

// SetTheme persists the theme preference
func (m *Manager) SetTheme(theme string) error {
	return m.kv.Set(storage.KeyTheme, theme)
}

// OnUnauthorized registers the teardown run after a 401
func (m *Manager) OnUnauthorized(fn func()) {
	m.mu.Lock()
	m.onUnauthorized = fn
	m.mu.Unlock()
}

// HandleUnauthorized clears the token and runs the registered teardown
func (m *Manager) HandleUnauthorized() {
	if err := m.Clear(); err != nil {
		m.log.Error("Failed to clear token", logger.F("error", err))
	}

	m.mu.Lock()
	fn := m.onUnauthorized
	m.mu.Unlock()

	if fn != nil {
		fn()
	}
}
