package model

import (
	"fmt"
	"strings"
)

// Level is the display name of a group's severity as reported by the host.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

var levels = map[Level]bool{
	LevelDebug:   true,
	LevelInfo:    true,
	LevelWarning: true,
	LevelError:   true,
	LevelFatal:   true,
}

// ParseLevel accepts any casing and surrounding whitespace.
// Unknown names are returned as-is and reported with ok=false.
func ParseLevel(s string) (Level, bool) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	return l, levels[l]
}

func (l Level) Valid() bool {
	return levels[l]
}

func (l Level) String() string {
	return string(l)
}

// Group is a deduplicated bucket of recurring error events.
type Group struct {
	ID        int64   `json:"id"`
	Level     Level   `json:"level"`
	Message   string  `json:"message"`
	Culprit   string  `json:"culprit"`
	Permalink string  `json:"permalink,omitempty"`
	Project   Project `json:"project"`
}

// URL returns the canonical link to the group. The host's permalink wins;
// otherwise it is built from baseURL.
func (g Group) URL(baseURL string) string {
	if g.Permalink != "" {
		return g.Permalink
	}
	return fmt.Sprintf("%s/%s/%s/issues/%d/",
		strings.TrimRight(baseURL, "/"), g.Project.Organization.Slug, g.Project.Slug, g.ID)
}
