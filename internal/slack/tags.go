package slack

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/sjzar/sentry-slack/pkg/model"
)

// KeyLabelFunc returns human-readable labels for raw tag keys of a project.
// Keys without a label may be absent from the result.
type KeyLabelFunc func(ctx context.Context, projectID int64, keys []string) (map[string]string, error)

// ValueLabelFunc returns human-readable labels for (key, value) pairs.
type ValueLabelFunc func(ctx context.Context, projectID int64, tags []model.Tag) (map[model.Tag]string, error)

// resolveTags labels the event's tags with one key lookup and one value
// lookup for the whole event. Lookup failures fall back to raw strings.
func (p *Plugin) resolveTags(ctx context.Context, event model.Event) []model.Tag {
	if len(event.Tags) == 0 {
		return nil
	}

	projectID := event.Group.Project.ID

	var keyLabels map[string]string
	if p.keyLabels != nil {
		var err error
		keyLabels, err = p.keyLabels(ctx, projectID, event.TagKeys())
		if err != nil {
			log.Warn().Err(err).Int64("project", projectID).Msg("tag key label lookup failed")
		}
	}

	var valueLabels map[model.Tag]string
	if p.valueLabels != nil {
		var err error
		valueLabels, err = p.valueLabels(ctx, projectID, distinctTags(event.Tags))
		if err != nil {
			log.Warn().Err(err).Int64("project", projectID).Msg("tag value label lookup failed")
		}
	}

	resolved := make([]model.Tag, 0, len(event.Tags))
	for _, t := range event.Tags {
		key, value := t.Key, t.Value
		if label := keyLabels[t.Key]; label != "" {
			key = label
		}
		if label := valueLabels[t]; label != "" {
			value = label
		}
		resolved = append(resolved, model.Tag{Key: key, Value: value})
	}
	return resolved
}

func distinctTags(tags []model.Tag) []model.Tag {
	seen := make(map[model.Tag]bool, len(tags))
	out := make([]model.Tag, 0, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
