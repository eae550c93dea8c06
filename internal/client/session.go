package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/sakif/slay-vote/internal/model"
)

// Session is the persisted login: the user plus the token that proves it.
type Session struct {
	User      model.User `cbor:"user"`
	Token     string     `cbor:"token"`
	ExpiresAt time.Time  `cbor:"expires_at"`
}

// Valid reports whether the session is logged in and not expired.
func (s Session) Valid(now time.Time) bool {
	if !s.User.LoggedIn || s.Token == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// SessionStore keeps one Session between runs. Get reports false when
// nothing is stored.
type SessionStore interface {
	Get() (Session, bool, error)
	Set(Session) error
	Clear() error
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("client: CBOR encoder initialization failed: " + err.Error())
	}
}

// FileSessionStore stores the session as CBOR in a single file, readable
// only by the owner.
type FileSessionStore struct {
	path string
}

var _ SessionStore = (*FileSessionStore)(nil)

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

// DefaultSessionPath returns the per-user session file location,
// e.g. ~/.config/slay-vote/session.cbor on Linux.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("client: locating config dir: %w", err)
	}
	return filepath.Join(dir, "slay-vote", "session.cbor"), nil
}

func (s *FileSessionStore) Get() (Session, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("client: reading session: %w", err)
	}

	var sess Session
	if err := cbor.Unmarshal(data, &sess); err != nil {
		return Session{}, false, fmt.Errorf("client: decoding session: %w", err)
	}
	return sess, true, nil
}

// Set writes the session atomically: a temp file renamed over the old one.
func (s *FileSessionStore) Set(sess Session) error {
	data, err := encMode.Marshal(sess)
	if err != nil {
		return fmt.Errorf("client: encoding session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("client: creating session dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("client: writing session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("client: saving session: %w", err)
	}
	return nil
}

func (s *FileSessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("client: clearing session: %w", err)
	}
	return nil
}
