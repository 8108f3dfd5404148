package store

import (
	"context"
	"encoding/json"

	"github.com/sjzar/sentry-slack/internal/errors"
)

// GetOptions returns the stored settings of a plugin for a project. A project
// without stored settings yields an empty map.
func (s *Store) GetOptions(ctx context.Context, projectID int64, plugin string) (map[string]any, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM plugin_options WHERE project_id = ? AND plugin = ?`,
		projectID, plugin)
	if err != nil {
		return nil, errors.QueryFailed("get options", err)
	}
	defer rows.Close()

	options := make(map[string]any)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, errors.QueryFailed("scan options", err)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			// values written by hand are kept as plain strings
			value = raw
		}
		options[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, errors.QueryFailed("get options", err)
	}
	return options, nil
}

// SetOptions replaces all stored settings of a plugin for a project.
func (s *Store) SetOptions(ctx context.Context, projectID int64, plugin string, options map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Database("begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM plugin_options WHERE project_id = ? AND plugin = ?`,
		projectID, plugin); err != nil {
		return errors.QueryFailed("clear options", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO plugin_options (project_id, plugin, key, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return errors.QueryFailed("prepare options insert", err)
	}
	defer stmt.Close()

	for key, value := range options {
		b, err := json.Marshal(value)
		if err != nil {
			return errors.Validation("option value is not serializable: "+key, err)
		}
		if _, err := stmt.ExecContext(ctx, projectID, plugin, key, string(b)); err != nil {
			return errors.QueryFailed("insert option", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Database("commit options", err)
	}
	return nil
}

func (s *Store) DeleteOptions(ctx context.Context, projectID int64, plugin string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM plugin_options WHERE project_id = ? AND plugin = ?`,
		projectID, plugin); err != nil {
		return errors.QueryFailed("delete options", err)
	}
	return nil
}
