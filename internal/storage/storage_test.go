package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestSetGetDelete(t *testing.T) {
	s, _ := openTemp(t)

	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}

	if err := s.Set(KeyTheme, "dark"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(KeyTheme, "light"); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Get(KeyTheme)
	if err != nil || !ok || got != "light" {
		t.Fatalf("Get(theme) = %q, %v, %v", got, ok, err)
	}

	if err := s.Delete(KeyTheme); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(KeyTheme); ok {
		t.Error("key still present after Delete")
	}
}

func TestJSONHelpers(t *testing.T) {
	s, _ := openTemp(t)

	type record struct {
		Token string `json:"token"`
		N     int    `json:"n"`
	}
	want := record{Token: "abc", N: 3}
	if err := s.SetJSON("rec", want); err != nil {
		t.Fatal(err)
	}

	var got record
	ok, err := s.GetJSON("rec", &got)
	if err != nil || !ok {
		t.Fatalf("GetJSON = %v, %v", ok, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestClearKeepsSalt(t *testing.T) {
	s, _ := openTemp(t)
	if err := s.Unlock("secret"); err != nil {
		t.Fatal(err)
	}
	s.Set("a", "1")
	s.Set("b", "2")

	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	keys, err := s.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Errorf("keys after Clear = %v", keys)
	}
	if _, ok, _ := s.Get(keySalt); !ok {
		t.Error("salt removed by Clear")
	}
}

func TestSealedValues(t *testing.T) {
	s, path := openTemp(t)
	if err := s.Unlock("correct horse"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSecret(KeyToken, "jwt-value"); err != nil {
		t.Fatal(err)
	}

	var raw string
	if err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, KeyToken).Scan(&raw); err != nil {
		t.Fatal(err)
	}
	if raw == "jwt-value" {
		t.Fatal("secret stored in plain text")
	}

	got, ok, err := s.Get(KeyToken)
	if err != nil || !ok || got != "jwt-value" {
		t.Fatalf("Get(token) = %q, %v, %v", got, ok, err)
	}
	s.Close()

	// Reopen without a passphrase
	locked, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer locked.Close()
	if _, _, err := locked.Get(KeyToken); !errors.Is(err, ErrLocked) {
		t.Errorf("Get without passphrase = %v, want ErrLocked", err)
	}

	// Wrong passphrase fails to unseal
	if err := locked.Unlock("wrong"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := locked.Get(KeyToken); err == nil {
		t.Error("expected unseal failure with the wrong passphrase")
	}
}

func TestSetSecretWithoutPassphraseIsPlain(t *testing.T) {
	s, _ := openTemp(t)
	if s.Sealing() {
		t.Fatal("sealing enabled without Unlock")
	}
	if err := s.SetSecret(KeyToken, "plain"); err != nil {
		t.Fatal(err)
	}
	got, _, err := s.Get(KeyToken)
	if err != nil || got != "plain" {
		t.Errorf("Get = %q, %v", got, err)
	}
}

func TestCryptoRoundTrip(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatal(err)
	}
	c := NewCrypto("pw", salt)
	sealed, err := c.Encrypt([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	plain, err := c.Decrypt(sealed)
	if err != nil || string(plain) != "hello" {
		t.Fatalf("Decrypt = %q, %v", plain, err)
	}
	if _, err := c.Decrypt("AAAA"); err == nil {
		t.Error("expected error for short ciphertext")
	}
}
