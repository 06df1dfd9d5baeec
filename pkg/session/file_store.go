package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goatkit/otrsclient/internal/constants"
	"github.com/goatkit/otrsclient/pkg/apierrors"
)

// FileStore keeps the session record in a single file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultCachePath returns the cache file used for login when no explicit
// path is configured.
func DefaultCachePath(login string) string {
	return filepath.Join(constants.DefaultSessionCacheDir, login)
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// Load reads the record. A missing file creates the parent directory and
// yields nil; so does an empty file.
func (s *FileStore) Load(ctx context.Context) (*Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.ensureDir(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session cache %s: %w", s.path, err)
	}

	rec, perr := ParseRecord(string(data))
	if perr != nil {
		if err := s.Clear(ctx); err != nil {
			return nil, errors.Join(apierrors.Wrap(apierrors.KindCorruptCache, perr, "session cache %s is corrupt", s.path), err)
		}
		return nil, apierrors.Wrap(apierrors.KindCorruptCache, perr, "session cache %s cleared", s.path)
	}
	return rec, nil
}

// Save writes the record to a temporary file in the same directory and
// renames it over the cache file.
func (s *FileStore) Save(ctx context.Context, rec Record) error {
	if err := s.ensureDir(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create session cache temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(rec.String()); err != nil {
		tmp.Close()
		return fmt.Errorf("write session cache: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session cache: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync session cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session cache: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace session cache %s: %w", s.path, err)
	}
	return nil
}

// Clear truncates the cache file to empty.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	if err := os.WriteFile(s.path, nil, 0o600); err != nil {
		return fmt.Errorf("clear session cache %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session cache dir: %w", err)
	}
	return nil
}
