package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/adminctl/internal/errors"
)

const (
	// DefaultDir is the per-user state directory under the home directory.
	DefaultDir = ".adminctl"
	// DefaultFile is the session file name inside DefaultDir.
	DefaultFile = "session.json"
)

// DefaultPath returns ~/.adminctl/session.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, DefaultDir, DefaultFile), nil
}

// FileStore persists the session as JSON readable only by the owner. The
// file is read on every Load so concurrent processes see each other's logins.
type FileStore struct {
	path string
	now  func() time.Time
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path returns the session file location.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the session file.
func (f *FileStore) Load(ctx context.Context) (*Session, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewSessionNotFoundError(f.path)
		}
		return nil, errors.Wrap(errors.ErrCodeSessionCorrupt, "failed to read session file", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSessionCorrupt, "session file is not valid JSON", err).
			WithSuggestion(fmt.Sprintf("Remove %s and log in again", f.path))
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes the session atomically with mode 0600.
func (f *FileStore) Save(ctx context.Context, s *Session) error {
	if err := s.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeSessionWrite, "failed to create session directory", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeSessionWrite, "failed to encode session", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*.json")
	if err != nil {
		return errors.Wrap(errors.ErrCodeSessionWrite, "failed to create session file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeSessionWrite, "failed to set session file mode", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeSessionWrite, "failed to write session file", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeSessionWrite, "failed to write session file", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return errors.Wrap(errors.ErrCodeSessionWrite, "failed to replace session file", err)
	}
	return nil
}

// Clear deletes the session file.
func (f *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeSessionWrite, "failed to remove session file", err)
	}
	return nil
}

// Token implements api.TokenSource.
func (f *FileStore) Token(ctx context.Context) (string, error) {
	return tokenOf(ctx, f, f.now)
}
