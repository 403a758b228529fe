package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"crypto-range-alert-bot/internal/store"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLite is a store.KeyValue kept in a single table of a local sqlite file.
type SQLite struct {
	DB *sql.DB
}

func Open(dbPath string) (*SQLite, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// sqlite serializes writers
	db.SetMaxOpenConns(1)

	createTableQuery := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`
	_, err = db.Exec(createTableQuery)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	log.Infof("Database initialized at %s", dbPath)
	return &SQLite{DB: db}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM kv WHERE key = ?;`

	var value []byte
	err := s.DB.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, store.Unavailable("get", key, err)
	}
	return value, nil
}

func (s *SQLite) Put(ctx context.Context, key string, value []byte) error {
	query := `
	INSERT OR REPLACE INTO kv (key, value, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP);`

	if _, err := s.DB.ExecContext(ctx, query, key, value); err != nil {
		return store.Unavailable("put", key, err)
	}
	log.Debugf("Key saved: %s (%d bytes)", key, len(value))
	return nil
}

func (s *SQLite) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}
