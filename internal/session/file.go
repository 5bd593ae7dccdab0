package session

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ErrNoSession is returned by FileStore.Load when nothing has been saved.
var ErrNoSession = errors.New("no saved session")

// FileStore persists a Session as a TOML file readable only by its owner.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (fs *FileStore) Path() string {
	return fs.path
}

// Load reads the saved session. It returns ErrNoSession when the file does
// not exist.
func (fs *FileStore) Load() (Session, error) {
	var s Session
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, ErrNoSession
		}
		return s, fmt.Errorf("failed to read session file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return s, ErrNoSession
	}
	if _, err := toml.Decode(string(data), &s); err != nil {
		return s, fmt.Errorf("failed to decode session file %s: %w", fs.path, err)
	}
	return s, nil
}

// Save writes s atomically with mode 0600.
func (fs *FileStore) Save(s Session) error {
	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set session file mode: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close session file: %w", err)
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// Remove deletes the saved session. Removing a missing file is not an error.
func (fs *FileStore) Remove() error {
	if err := os.Remove(fs.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// Restore loads the saved session into m. A missing file leaves m cleared.
func (fs *FileStore) Restore(m *Manager) error {
	s, err := fs.Load()
	if errors.Is(err, ErrNoSession) {
		m.Clear()
		return nil
	}
	if err != nil {
		return err
	}
	m.Set(s)
	return nil
}

// Persist subscribes to m and mirrors every change to the file: a valid
// session is saved, a cleared one removes the file. Errors go to onErr.
func (fs *FileStore) Persist(m *Manager, onErr func(error)) (stop func()) {
	return m.Subscribe(func(s Session) {
		var err error
		if s.UserID == "" {
			err = fs.Remove()
		} else {
			err = fs.Save(s)
		}
		if err != nil && onErr != nil {
			onErr(err)
		}
	})
}
