package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/sjzar/sentry-slack/internal/errors"
	"github.com/sjzar/sentry-slack/pkg/config"
)

const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS plugin_options (
	project_id INTEGER NOT NULL,
	plugin     TEXT    NOT NULL,
	key        TEXT    NOT NULL,
	value      TEXT    NOT NULL,
	PRIMARY KEY (project_id, plugin, key)
);
CREATE TABLE IF NOT EXISTS tag_keys (
	project_id INTEGER NOT NULL,
	key        TEXT    NOT NULL,
	label      TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (project_id, key)
);
CREATE TABLE IF NOT EXISTS tag_values (
	project_id INTEGER NOT NULL,
	key        TEXT    NOT NULL,
	value      TEXT    NOT NULL,
	label      TEXT    NOT NULL DEFAULT '',
	PRIMARY KEY (project_id, key, value)
);
`

// Store keeps per-project plugin options and tag labels in sqlite.
type Store struct {
	path string
	db   *sql.DB
}

// Open opens (creating if needed) the database at path. Use MemoryPath for
// a throwaway store.
func Open(path string) (*Store, error) {
	if path != MemoryPath {
		if err := config.PrepareDir(filepath.Dir(path)); err != nil {
			return nil, errors.DBOpenFailed(path, err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.DBOpenFailed(path, err)
	}
	if path == MemoryPath {
		// every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.DBInitFailed(err)
	}

	log.Debug().Str("path", path).Msg("store opened")
	return &Store{path: path, db: db}, nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Database("ping failed", err)
	}
	return nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
