package clips

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Store lays clips out flat under a single directory: one <id>.mp4 per
// committed clip and <id>.mp4.part while an upload is in flight.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir %q: %w", dir, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage dir: %w", err)
	}
	return &Store{dir: abs}, nil
}

// Dir returns the absolute storage directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the committed location of id.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+clipExt)
}

func (s *Store) stagingPath(id string) string {
	return s.Path(id) + stagingExt
}

// Create opens a fresh staging file for id, truncating any leftover.
func (s *Store) Create(id string) (*os.File, error) {
	return os.OpenFile(s.stagingPath(id), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
}

// Commit moves the staging file of id to its committed location.
func (s *Store) Commit(id string) error {
	return os.Rename(s.stagingPath(id), s.Path(id))
}

// Discard removes the staging file of id. A missing file is not an error.
func (s *Store) Discard(id string) error {
	if err := os.Remove(s.stagingPath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Open opens the committed clip id for reading.
func (s *Store) Open(id string) (*os.File, os.FileInfo, error) {
	f, err := os.Open(s.Path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrClipNotFound
		}
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, ErrClipNotFound
	}
	return f, info, nil
}

// Remove deletes the committed clip id.
func (s *Store) Remove(id string) error {
	if err := os.Remove(s.Path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrClipNotFound
		}
		return err
	}
	return nil
}

// SweepStaging removes staging files left behind by a previous process and
// returns how many were removed.
func (s *Store) SweepStaging() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	var removed int
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), stagingExt) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
