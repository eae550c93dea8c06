package client

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sakif/slay-vote/internal/model"
)

func TestFileSessionStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.cbor")
	store := NewFileSessionStore(path)

	want := Session{
		User:      model.User{Email: "ann@example.com", LoggedIn: true},
		Token:     "tok",
		ExpiresAt: time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := store.Set(want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("session file mode = %o, want 600", perm)
	}

	got, ok, err := store.Get()
	if err != nil || !ok {
		t.Fatalf("Get() = _, %v, %v", ok, err)
	}
	if got.User != want.User || got.Token != want.Token || !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestFileSessionStore_Missing(t *testing.T) {
	store := NewFileSessionStore(filepath.Join(t.TempDir(), "none.cbor"))

	_, ok, err := store.Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() should report nothing stored")
	}
	if err := store.Clear(); err != nil {
		t.Errorf("Clear() on a missing file error = %v", err)
	}
}

func TestFileSessionStore_Clear(t *testing.T) {
	store := NewFileSessionStore(filepath.Join(t.TempDir(), "session.cbor"))
	if err := store.Set(Session{Token: "tok"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, ok, _ := store.Get(); ok {
		t.Error("Get() after Clear() should report nothing stored")
	}
}

func TestFileSessionStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.cbor")
	if err := os.WriteFile(path, []byte{0xff, 0x00}, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := NewFileSessionStore(path).Get(); err == nil {
		t.Error("Get() on a corrupt file should fail")
	}
}

func TestSession_Valid(t *testing.T) {
	now := time.Now()
	user := model.User{Email: "a@b.c", LoggedIn: true}

	tests := []struct {
		name string
		sess Session
		want bool
	}{
		{"live", Session{User: user, Token: "t", ExpiresAt: now.Add(time.Hour)}, true},
		{"no expiry", Session{User: user, Token: "t"}, true},
		{"expired", Session{User: user, Token: "t", ExpiresAt: now.Add(-time.Second)}, false},
		{"no token", Session{User: user}, false},
		{"logged out", Session{Token: "t"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sess.Valid(now); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
