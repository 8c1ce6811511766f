package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/existflow/irontodo/internal/model"
	"github.com/existflow/irontodo/internal/storage"
)

func newManager(t *testing.T) (*Manager, *storage.Store) {
	t.Helper()
	kv, err := storage.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { kv.Close() })
	return New(kv), kv
}

func TestTokenRecordExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		rec  TokenRecord
		want bool
	}{
		{"empty token", TokenRecord{Timestamp: now}, true},
		{"expires in future", TokenRecord{Token: "t", ExpiresAt: &future, Timestamp: now}, false},
		{"expires in past", TokenRecord{Token: "t", ExpiresAt: &past, Timestamp: now}, true},
		{"expires exactly now", TokenRecord{Token: "t", ExpiresAt: &now, Timestamp: now}, true},
		{"no expiry, fresh", TokenRecord{Token: "t", Timestamp: now.Add(-29 * 24 * time.Hour)}, false},
		{"no expiry, older than ttl", TokenRecord{Token: "t", Timestamp: now.Add(-31 * 24 * time.Hour)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseExpiry(t *testing.T) {
	for _, s := range []string{"2025-06-01T12:00:00Z", "2025-06-01T12:00:00.123456", "2025-06-01 12:00:00"} {
		if _, ok := ParseExpiry(s); !ok {
			t.Errorf("ParseExpiry(%q) failed", s)
		}
	}
	if _, ok := ParseExpiry("soon"); ok {
		t.Error("ParseExpiry accepted garbage")
	}
}

func TestStoreAndToken(t *testing.T) {
	m, _ := newManager(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return now })

	_, err := m.Store(model.TokenResponse{
		AccessToken: "abc",
		ExpiresAt:   "2025-06-01T13:00:00Z",
		UserKey:     "u1",
	})
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	rec, ok := m.Token()
	if !ok {
		t.Fatal("Token() not found")
	}
	if got := rec.Header(); got != "Bearer abc" {
		t.Errorf("Header() = %q", got)
	}
	if got := m.UserKey(); got != "u1" {
		t.Errorf("UserKey() = %q", got)
	}

	// Past the server expiry the record is dropped
	now = now.Add(2 * time.Hour)
	if _, ok := m.Token(); ok {
		t.Fatal("expired token returned")
	}
	if _, ok := m.Record(); ok {
		t.Error("expired record not removed")
	}
}

func TestStoreWithoutExpiryUsesTTL(t *testing.T) {
	m, _ := newManager(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return now })

	if _, err := m.Store(model.TokenResponse{AccessToken: "abc", TokenType: "bearer"}); err != nil {
		t.Fatal(err)
	}
	now = now.Add(29 * 24 * time.Hour)
	if !m.Authenticated() {
		t.Fatal("token expired before the ttl")
	}
	now = now.Add(2 * 24 * time.Hour)
	if m.Authenticated() {
		t.Fatal("token outlived the ttl")
	}
}

func TestHandleUnauthorized(t *testing.T) {
	m, _ := newManager(t)
	if _, err := m.Store(model.TokenResponse{AccessToken: "abc", UserKey: "u1"}); err != nil {
		t.Fatal(err)
	}

	called := 0
	m.OnUnauthorized(func() { called++ })
	m.HandleUnauthorized()

	if called != 1 {
		t.Errorf("teardown called %d times", called)
	}
	if m.Authenticated() {
		t.Error("token survived HandleUnauthorized")
	}
	if m.UserKey() != "u1" {
		t.Error("user key should survive a 401")
	}
}

func TestLogoutAndTheme(t *testing.T) {
	m, _ := newManager(t)
	m.Store(model.TokenResponse{AccessToken: "abc", UserKey: "u1"})

	if err := m.Logout(); err != nil {
		t.Fatal(err)
	}
	if m.UserKey() != "" || m.Authenticated() {
		t.Error("logout left credentials behind")
	}

	if got := m.Theme("dark"); got != "dark" {
		t.Errorf("Theme fallback = %q", got)
	}
	m.SetTheme("light")
	if got := m.Theme("dark"); got != "light" {
		t.Errorf("Theme = %q", got)
	}
}
