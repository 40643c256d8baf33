package store

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("content not found")

// Store keeps fetched bodies by URL identity.
type Store interface {
	Save(id string, content []byte) error
	Load(id string) ([]byte, error)
	Close() error
}

const (
	KindMemory = "memory"
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Open returns the store of the given kind. path is a directory for the
// file store and a database file for sqlite; memory ignores it.
func Open(kind, path string) (Store, error) {
	switch strings.ToLower(kind) {
	case "", KindMemory:
		return NewMemory(), nil
	case KindFile:
		return NewFile(path)
	case KindSQLite:
		return NewSQLite(path)
	}
	return nil, fmt.Errorf("unknown store kind %q", kind)
}

func validID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\.`) {
		return fmt.Errorf("invalid content id %q", id)
	}
	return nil
}
