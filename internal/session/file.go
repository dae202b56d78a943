package session

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/and161185/newsboard/internal/errs"
	"github.com/and161185/newsboard/internal/model"
)

// FileStore keeps the session as session.json inside a private directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir (created on first Save).
func NewFileStore(dir string) *FileStore { return &FileStore{dir: dir} }

// Path returns the session file location.
func (f *FileStore) Path() string { return filepath.Join(f.dir, "session.json") }

// Load reads the session file.
func (f *FileStore) Load(_ context.Context) (model.Session, error) {
	b, err := os.ReadFile(f.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return model.Session{}, errs.ErrNoSession
	}
	if err != nil {
		return model.Session{}, err
	}
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return model.Session{}, errs.ErrCorruptSession
	}
	return Decode(r)
}

// Save writes the session file atomically.
func (f *FileStore) Save(_ context.Context, s model.Session) error {
	r, err := Encode(s)
	if err != nil {
		return err
	}
	return f.write(r)
}

// Clear deletes the session file.
func (f *FileStore) Clear(_ context.Context) error {
	err := os.Remove(f.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (f *FileStore) write(r Record) error {
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path())
}
