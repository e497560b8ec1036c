package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/naveenspark/careerbox/pkg/domain"
)

// persisted wraps the session under the storage key so files and Redis
// values share one shape.
type persisted struct {
	Key     string         `json:"key"`
	Session domain.Session `json:"auth"`
}

func encode(s domain.Session) ([]byte, error) {
	return json.Marshal(persisted{Key: StorageKey, Session: s})
}

func decode(data []byte) (domain.Session, error) {
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}
	if p.Key != StorageKey {
		return domain.Session{}, fmt.Errorf("decode session: unexpected key %q", p.Key)
	}
	return p.Session, nil
}

// FilePersister stores the session as JSON in a single file.
type FilePersister struct {
	path string
}

// NewFilePersister persists to path (e.g. ~/.careerbox/session.json).
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Path returns the file the session is stored in.
func (f *FilePersister) Path() string { return f.path }

// Load reads the session file. A missing file is the signed-out session.
func (f *FilePersister) Load(_ context.Context) (domain.Session, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.Session{}, nil
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("read %s: %w", f.path, err)
	}
	return decode(data)
}

// Save writes the session to a temp file and renames it over the old one.
func (f *FilePersister) Save(_ context.Context, s domain.Session) error {
	data, err := encode(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	// Each save gets its own temp file so a second careerbox process
	// (e.g. `careerbox logout` beside the TUI) never writes into ours.
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename
	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

func (f *FilePersister) Close() error { return nil }

// MemoryPersister keeps the session for the life of the process only.
type MemoryPersister struct {
	mu sync.Mutex
	s  domain.Session
	// saves counts successful saves.
	saves int
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (m *MemoryPersister) Load(_ context.Context) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.Clone(), nil
}

func (m *MemoryPersister) Save(_ context.Context, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s.Clone()
	m.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (m *MemoryPersister) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MemoryPersister) Close() error { return nil }
