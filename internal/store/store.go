// Package store persists the viewer session between runs: the last scene
// and the runtime settings changed from the keyboard.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"sdfbox/internal/scene"
)

// Current schema version - increment when Session changes incompatibly
const sessionSchemaVersion uint16 = 1

const sessionFile = "session.mp"

// Session is the persisted viewer state.
type Session struct {
	Schema        uint16
	Scene         scene.Document
	ScenePath     string
	ViewportScale float64
	FPSLimit      int
	ShowErrors    bool
}

// Store reads and writes the session file in one directory. Safe for
// concurrent use.
type Store struct {
	mu  sync.RWMutex
	dir string
}

// Open returns a store rooted at dir, creating it if needed. An empty dir
// selects sdfbox under the user config directory.
func Open(dir string) (*Store, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		dir = filepath.Join(base, "sdfbox")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path() string { return filepath.Join(s.dir, sessionFile) }

// Save writes the session, replacing the previous one atomically.
func (s *Store) Save(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.Schema = sessionSchemaVersion
	f, err := os.CreateTemp(s.dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("store: save: %w", err)
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(&sess); err != nil {
		f.Close()
		return fmt.Errorf("store: encode session: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("store: save: %w", err)
	}
	if err := os.Rename(f.Name(), s.path()); err != nil {
		return fmt.Errorf("store: save: %w", err)
	}
	return nil
}

// Load returns the saved session. ok is false when there is none or it was
// written by an incompatible version.
func (s *Store) Load() (sess Session, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, false, nil
		}
		return Session{}, false, fmt.Errorf("store: load: %w", err)
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(&sess); err != nil {
		return Session{}, false, fmt.Errorf("store: decode session: %w", err)
	}
	if sess.Schema != sessionSchemaVersion {
		return Session{}, false, nil
	}
	if err := sess.Scene.Validate(); err != nil {
		return Session{}, false, fmt.Errorf("store: saved scene: %w", err)
	}
	return sess, true, nil
}

// Clear removes the saved session.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store: clear: %w", err)
	}
	return nil
}
