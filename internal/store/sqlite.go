package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(dataSourceName string) (*SQLite, error) {
	if dataSourceName == "" {
		return nil, errors.New("sqlite store needs a database path")
	}
	if err := os.MkdirAll(filepath.Dir(dataSourceName), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed for %s: %w", dataSourceName, err)
	}
	// sqlite allows a single writer at a time.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS contents (
		id TEXT PRIMARY KEY,
		body BLOB NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`)
	return err
}

func (s *SQLite) Save(id string, content []byte) error {
	if err := validID(id); err != nil {
		return err
	}
	if content == nil {
		content = []byte{}
	}
	query := `INSERT INTO contents (id, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`
	if _, err := s.db.Exec(query, id, content, time.Now().UTC()); err != nil {
		return fmt.Errorf("save %s: %w", id, err)
	}
	return nil
}

func (s *SQLite) Load(id string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRow(`SELECT body FROM contents WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	return body, nil
}

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
