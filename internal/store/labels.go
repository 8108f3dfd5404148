package store

import (
	"context"
	"strings"

	"github.com/sjzar/sentry-slack/internal/errors"
	"github.com/sjzar/sentry-slack/pkg/model"
)

// KeyLabels fetches labels for all keys in a single query. Unlabeled keys
// are left out of the result.
func (s *Store) KeyLabels(ctx context.Context, projectID int64, keys []string) (map[string]string, error) {
	labels := make(map[string]string)
	if len(keys) == 0 {
		return labels, nil
	}

	args := make([]any, 0, len(keys)+1)
	args = append(args, projectID)
	for _, k := range keys {
		args = append(args, k)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, label FROM tag_keys WHERE project_id = ? AND label != '' AND key IN (`+placeholders(len(keys))+`)`,
		args...)
	if err != nil {
		return nil, errors.QueryFailed("tag key labels", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, label string
		if err := rows.Scan(&key, &label); err != nil {
			return nil, errors.QueryFailed("scan tag key label", err)
		}
		labels[key] = label
	}
	if err := rows.Err(); err != nil {
		return nil, errors.QueryFailed("tag key labels", err)
	}
	return labels, nil
}

// ValueLabels fetches labels for all (key, value) pairs in a single query.
func (s *Store) ValueLabels(ctx context.Context, projectID int64, tags []model.Tag) (map[model.Tag]string, error) {
	labels := make(map[model.Tag]string)
	if len(tags) == 0 {
		return labels, nil
	}

	conds := make([]string, 0, len(tags))
	args := make([]any, 0, 2*len(tags)+1)
	args = append(args, projectID)
	for _, t := range tags {
		conds = append(conds, "(key = ? AND value = ?)")
		args = append(args, t.Key, t.Value)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, label FROM tag_values WHERE project_id = ? AND label != '' AND (`+strings.Join(conds, " OR ")+`)`,
		args...)
	if err != nil {
		return nil, errors.QueryFailed("tag value labels", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t model.Tag
		var label string
		if err := rows.Scan(&t.Key, &t.Value, &label); err != nil {
			return nil, errors.QueryFailed("scan tag value label", err)
		}
		labels[t] = label
	}
	if err := rows.Err(); err != nil {
		return nil, errors.QueryFailed("tag value labels", err)
	}
	return labels, nil
}

// SetKeyLabel stores a label for a tag key. An empty label clears it.
func (s *Store) SetKeyLabel(ctx context.Context, projectID int64, key, label string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO tag_keys (project_id, key, label) VALUES (?, ?, ?)
		 ON CONFLICT (project_id, key) DO UPDATE SET label = excluded.label`,
		projectID, key, label); err != nil {
		return errors.QueryFailed("set tag key label", err)
	}
	return nil
}

// SetValueLabel stores a label for a (key, value) pair. An empty label clears it.
func (s *Store) SetValueLabel(ctx context.Context, projectID int64, tag model.Tag, label string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO tag_values (project_id, key, value, label) VALUES (?, ?, ?, ?)
		 ON CONFLICT (project_id, key, value) DO UPDATE SET label = excluded.label`,
		projectID, tag.Key, tag.Value, label); err != nil {
		return errors.QueryFailed("set tag value label", err)
	}
	return nil
}
