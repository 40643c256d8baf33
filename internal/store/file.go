package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// File keeps one file per id under dir, fanned out by the first two
// characters of the id.
type File struct {
	dir string
}

func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("file store needs a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory %s: %w", dir, err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(id string) string {
	if len(id) < 3 {
		return filepath.Join(f.dir, id)
	}
	return filepath.Join(f.dir, id[:2], id)
}

// Save writes through a temp file and a rename so readers never see a
// partial body.
func (f *File) Save(id string, content []byte) error {
	if err := validID(id); err != nil {
		return err
	}
	target := f.path(id)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-"+id+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", id, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", id, err)
	}
	return nil
}

func (f *File) Load(id string) ([]byte, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(f.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
	return content, nil
}

func (f *File) Close() error { return nil }
