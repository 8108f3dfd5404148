package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tag is a key/value annotation on an event, e.g. environment=production.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// UnmarshalJSON accepts both {"key":..,"value":..} and the host's
// native ["key","value"] pair form.
func (t *Tag) UnmarshalJSON(b []byte) error {
	var pair []string
	if err := json.Unmarshal(b, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("tag pair must have 2 elements, got %d", len(pair))
		}
		t.Key, t.Value = pair[0], pair[1]
		return nil
	}
	type plain Tag
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*t = Tag(p)
	return nil
}

// Event is one occurrence of an error within a Group.
type Event struct {
	ID    string `json:"id,omitempty"`
	Tags  []Tag  `json:"tags"`
	Group Group  `json:"group"`
}

// TagKeys returns the distinct keys of the event's tags in first-seen order.
func (e Event) TagKeys() []string {
	seen := make(map[string]bool, len(e.Tags))
	keys := make([]string, 0, len(e.Tags))
	for _, t := range e.Tags {
		if seen[t.Key] {
			continue
		}
		seen[t.Key] = true
		keys = append(keys, t.Key)
	}
	return keys
}

// Rule is an alert rule that triggered a notification.
type Rule struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// EditURL links to the rule's edit page on the host.
func (r Rule) EditURL(baseURL string, project Project) string {
	return fmt.Sprintf("%s/%s/%s/settings/alerts/rules/%d/",
		strings.TrimRight(baseURL, "/"), project.Organization.Slug, project.Slug, r.ID)
}

// Notification is what the host hands to a plugin when a group qualifies
// for alerting.
type Notification struct {
	Event Event  `json:"event"`
	Rules []Rule `json:"rules,omitempty"`
}
