package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sjzar/sentry-slack/internal/errors"
	"github.com/sjzar/sentry-slack/internal/transport"
	"github.com/sjzar/sentry-slack/pkg/model"
	"github.com/sjzar/sentry-slack/pkg/version"
)

const (
	Title       = "Slack"
	Slug        = "slack"
	ConfKey     = "slack"
	Description = "Post notifications to a Slack channel."
	Author      = "Sentry Team"
	AuthorURL   = "https://github.com/getsentry"
)

// Poster delivers a form-encoded request. *transport.Client implements it.
type Poster interface {
	PostForm(ctx context.Context, rawURL string, form any) (*transport.Result, error)
}

// Plugin turns host notifications into incoming-webhook messages.
// It holds no mutable state and is safe for concurrent use.
type Plugin struct {
	poster      Poster
	baseURL     string
	keyLabels   KeyLabelFunc
	valueLabels ValueLabelFunc
}

type Option func(*Plugin)

// WithBaseURL sets the host URL used for group and rule links.
func WithBaseURL(baseURL string) Option {
	return func(p *Plugin) {
		p.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTagLabels injects the two batched label lookups.
func WithTagLabels(keys KeyLabelFunc, values ValueLabelFunc) Option {
	return func(p *Plugin) {
		p.keyLabels = keys
		p.valueLabels = values
	}
}

func New(poster Poster, opts ...Option) *Plugin {
	p := &Plugin{poster: poster}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Metadata describes the plugin to the host's plugin registry.
type Metadata struct {
	Title         string      `json:"title"`
	Slug          string      `json:"slug"`
	ConfKey       string      `json:"conf_key"`
	Description   string      `json:"description"`
	Version       string      `json:"version"`
	Author        string      `json:"author"`
	AuthorURL     string      `json:"author_url"`
	ResourceLinks [][2]string `json:"resource_links"`
	Fields        []FormField `json:"fields"`
}

func (p *Plugin) Metadata() Metadata {
	return Metadata{
		Title:       Title,
		Slug:        Slug,
		ConfKey:     ConfKey,
		Description: Description,
		Version:     version.Version,
		Author:      Author,
		AuthorURL:   AuthorURL,
		ResourceLinks: [][2]string{
			{"Bug Tracker", "https://github.com/getsentry/sentry-slack/issues"},
			{"Source", "https://github.com/getsentry/sentry-slack"},
		},
		Fields: Fields(),
	}
}

// Notify formats the notification and posts it to the configured webhook.
// A nil Result with a nil error means the project is not configured and
// nothing was sent. Transport errors are returned as-is and not retried.
func (p *Plugin) Notify(ctx context.Context, n model.Notification, opts Options) (*transport.Result, error) {
	project := n.Event.Group.Project
	if !opts.Configured() {
		log.Debug().Str("project", project.Slug).Msg("slack not configured, skipping notification")
		return nil, nil
	}

	payload := p.BuildPayload(ctx, n, opts)
	body, err := encodePayload(payload)
	if err != nil {
		return nil, errors.EncodePayloadFailed(err)
	}

	// older stored values may carry stray spaces
	webhook := strings.Trim(opts.Webhook, " ")

	result, err := p.poster.PostForm(ctx, webhook, form{Payload: body})
	if err != nil {
		log.Error().Err(err).
			Str("project", project.Slug).
			Int64("group", n.Event.Group.ID).
			Str("webhook", transport.RedactURL(webhook)).
			Msg("slack notification failed")
		return result, err
	}

	log.Info().
		Str("project", project.Slug).
		Int64("group", n.Event.Group.ID).
		Str("webhook", transport.RedactURL(webhook)).
		Msg("slack notification sent")
	return result, nil
}

// BuildPayload renders the message without sending it.
func (p *Plugin) BuildPayload(ctx context.Context, n model.Notification, opts Options) Payload {
	group := n.Event.Group
	project := group.Project

	title := group.Message
	culprit := group.Culprit
	projectName := project.FullName()

	fields := make([]Field, 0, 3+len(n.Event.Tags))

	// a culprit that just repeats the title adds nothing
	if culprit != title {
		fields = append(fields, Field{Title: "Culprit", Value: culprit, Short: false})
	}

	fields = append(fields, Field{Title: "Project", Value: projectName, Short: true})

	if opts.IncludeRules && len(n.Rules) > 0 {
		rules := make([]string, 0, len(n.Rules))
		for _, rule := range n.Rules {
			rules = append(rules, fmt.Sprintf("<%s | %s>", rule.EditURL(p.baseURL, project), rule.Label))
		}
		fields = append(fields, Field{Title: "Triggered By", Value: strings.Join(rules, ", "), Short: false})
	}

	if opts.IncludeTags {
		for _, tag := range p.resolveTags(ctx, n.Event) {
			fields = append(fields, Field{Title: tag.Key, Value: tag.Value, Short: true})
		}
	}

	payload := Payload{
		Parse: ParseNone,
		Attachments: []Attachment{{
			Fallback:  fmt.Sprintf("[%s] %s", projectName, title),
			Title:     title,
			TitleLink: group.URL(p.baseURL),
			Color:     ColorForLevel(group.Level),
			Fields:    fields,
		}},
	}

	if username := strings.TrimSpace(opts.Username); username != "" {
		payload.Username = username
	}
	if channel := strings.TrimSpace(opts.Channel); channel != "" {
		payload.Channel = channel
	}
	if opts.IconURL != "" {
		payload.IconURL = opts.IconURL
	}

	return payload
}

// encodePayload keeps <link | label> tokens readable instead of \u003c escapes.
func encodePayload(payload Payload) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
