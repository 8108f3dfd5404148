package model

import "strings"

type Organization struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type Team struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type Project struct {
	ID           int64        `json:"id"`
	Slug         string       `json:"slug"`
	Name         string       `json:"name"`
	Team         Team         `json:"team"`
	Organization Organization `json:"organization"`
}

// FullName prefixes the project name with its team name unless the project
// name already contains it, so "Sentry" + "Sentry Backend" stays
// "Sentry Backend" while "Sentry" + "Backend" becomes "Sentry Backend".
func (p Project) FullName() string {
	if !strings.Contains(p.Name, p.Team.Name) {
		return p.Team.Name + " " + p.Name
	}
	return p.Name
}
