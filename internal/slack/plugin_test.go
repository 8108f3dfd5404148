package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjzar/sentry-slack/internal/errors"
	"github.com/sjzar/sentry-slack/internal/transport"
	"github.com/sjzar/sentry-slack/pkg/model"
)

type recordingPoster struct {
	calls []postCall
	err   error
}

type postCall struct {
	url  string
	form form
}

func (r *recordingPoster) PostForm(ctx context.Context, rawURL string, f any) (*transport.Result, error) {
	r.calls = append(r.calls, postCall{url: rawURL, form: f.(form)})
	if r.err != nil {
		return nil, r.err
	}
	return &transport.Result{StatusCode: http.StatusOK, Body: "ok"}, nil
}

func (r *recordingPoster) payload(t *testing.T) Payload {
	t.Helper()
	require.Len(t, r.calls, 1)
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(r.calls[0].form.Payload), &p))
	return p
}

func testNotification() model.Notification {
	return model.Notification{
		Event: model.Event{
			ID:   "ev1",
			Tags: []model.Tag{{Key: "env", Value: "prod"}},
			Group: model.Group{
				ID:      123,
				Level:   model.LevelError,
				Message: "NullPointerException",
				Culprit: "com.example.Foo in bar",
				Project: model.Project{
					ID:           1,
					Slug:         "project",
					Name:         "Project",
					Team:         model.Team{Slug: "team", Name: "Team"},
					Organization: model.Organization{Slug: "acme"},
				},
			},
		},
		Rules: []model.Rule{{ID: 7, Label: "A new issue is created"}},
	}
}

func testOptions() Options {
	return Options{Webhook: "https://hooks.slack.com/services/T0/B0/x"}
}

func TestNotify_NotConfiguredSkips(t *testing.T) {
	poster := &recordingPoster{}
	p := New(poster)

	for _, webhook := range []string{"", "   "} {
		res, err := p.Notify(context.Background(), testNotification(), Options{Webhook: webhook, IncludeTags: true})
		require.NoError(t, err)
		assert.Nil(t, res)
	}
	assert.Empty(t, poster.calls)
}

func TestNotify_MinimalPayload(t *testing.T) {
	poster := &recordingPoster{}
	p := New(poster, WithBaseURL("https://sentry.example.com/"))

	n := testNotification()
	n.Event.Group.Culprit = n.Event.Group.Message

	res, err := p.Notify(context.Background(), n, testOptions())
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	assert.Equal(t,
		`{"parse":"none","attachments":[{"fallback":"[Team Project] NullPointerException","title":"NullPointerException","title_link":"https://sentry.example.com/acme/project/issues/123/","color":"#f43f20","fields":[{"title":"Project","value":"Team Project","short":true}]}]}`,
		poster.calls[0].form.Payload)
}

func TestNotify_TrimsWebhook(t *testing.T) {
	poster := &recordingPoster{}
	_, err := New(poster).Notify(context.Background(), testNotification(), Options{Webhook: "  https://hooks.slack.com/x  "})
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.slack.com/x", poster.calls[0].url)
}

func TestNotify_TransportErrorPropagates(t *testing.T) {
	want := errors.WebhookRejected(http.StatusNotFound, "no_service")
	poster := &recordingPoster{err: want}

	res, err := New(poster).Notify(context.Background(), testNotification(), testOptions())
	assert.Nil(t, res)
	assert.Same(t, want, err)
	assert.Len(t, poster.calls, 1)
}

func TestBuildPayload_Culprit(t *testing.T) {
	p := New(nil)
	n := testNotification()

	payload := p.BuildPayload(context.Background(), n, testOptions())
	fields := payload.Attachments[0].Fields
	require.Len(t, fields, 2)
	assert.Equal(t, Field{Title: "Culprit", Value: "com.example.Foo in bar", Short: false}, fields[0])

	n.Event.Group.Culprit = n.Event.Group.Message
	fields = p.BuildPayload(context.Background(), n, testOptions()).Attachments[0].Fields
	require.Len(t, fields, 1)
	assert.Equal(t, "Project", fields[0].Title)

	// an empty culprit still differs from the title
	n.Event.Group.Culprit = ""
	fields = p.BuildPayload(context.Background(), n, testOptions()).Attachments[0].Fields
	require.Len(t, fields, 2)
	assert.Equal(t, Field{Title: "Culprit", Value: "", Short: false}, fields[0])
	assert.Equal(t, "Project", fields[1].Title)

	n.Event.Group.Message = ""
	fields = p.BuildPayload(context.Background(), n, testOptions()).Attachments[0].Fields
	require.Len(t, fields, 1)
}

func TestBuildPayload_Colors(t *testing.T) {
	tests := []struct {
		level model.Level
		want  string
	}{
		{model.LevelDebug, "#cfd3da"},
		{model.LevelInfo, "#2788ce"},
		{model.LevelWarning, "#f18500"},
		{model.LevelError, "#f43f20"},
		{model.LevelFatal, "#d20f2a"},
		{"bogus", "#f43f20"},
		{"", "#f43f20"},
		{"FATAL", "#d20f2a"},
	}
	p := New(nil)
	for _, tt := range tests {
		n := testNotification()
		n.Event.Group.Level = tt.level
		assert.Equal(t, tt.want, p.BuildPayload(context.Background(), n, testOptions()).Attachments[0].Color, tt.level)
	}
}

func TestBuildPayload_Rules(t *testing.T) {
	p := New(nil, WithBaseURL("https://sentry.example.com"))
	n := testNotification()
	n.Rules = append(n.Rules, model.Rule{ID: 9, Label: "Regression"})

	opts := testOptions()
	fields := p.BuildPayload(context.Background(), n, opts).Attachments[0].Fields
	for _, f := range fields {
		assert.NotEqual(t, "Triggered By", f.Title)
	}

	opts.IncludeRules = true
	fields = p.BuildPayload(context.Background(), n, opts).Attachments[0].Fields
	require.Len(t, fields, 3)
	assert.Equal(t, Field{
		Title: "Triggered By",
		Value: "<https://sentry.example.com/acme/project/settings/alerts/rules/7/ | A new issue is created>, " +
			"<https://sentry.example.com/acme/project/settings/alerts/rules/9/ | Regression>",
		Short: false,
	}, fields[2])

	n.Rules = nil
	fields = p.BuildPayload(context.Background(), n, opts).Attachments[0].Fields
	require.Len(t, fields, 2)
}

func TestBuildPayload_TagsWithoutLabels(t *testing.T) {
	p := New(nil)
	opts := testOptions()
	opts.IncludeTags = true

	n := testNotification()
	n.Event.Group.Culprit = n.Event.Group.Message
	fields := p.BuildPayload(context.Background(), n, opts).Attachments[0].Fields
	require.Len(t, fields, 2)
	assert.Equal(t, Field{Title: "env", Value: "prod", Short: true}, fields[1])

	opts.IncludeTags = false
	fields = p.BuildPayload(context.Background(), n, opts).Attachments[0].Fields
	assert.Len(t, fields, 1)
}

func TestBuildPayload_TagLabelsBatched(t *testing.T) {
	var keyCalls, valueCalls int
	var gotKeys []string
	var gotTags []model.Tag

	keys := func(ctx context.Context, projectID int64, k []string) (map[string]string, error) {
		keyCalls++
		gotKeys = k
		assert.Equal(t, int64(1), projectID)
		return map[string]string{"sentry:release": "Release", "browser": ""}, nil
	}
	values := func(ctx context.Context, projectID int64, tags []model.Tag) (map[model.Tag]string, error) {
		valueCalls++
		gotTags = tags
		return map[model.Tag]string{{Key: "env", Value: "prod"}: "Production"}, nil
	}

	p := New(nil, WithTagLabels(keys, values))
	opts := testOptions()
	opts.IncludeTags = true

	n := testNotification()
	n.Event.Tags = []model.Tag{
		{Key: "env", Value: "prod"},
		{Key: "sentry:release", Value: "1.0"},
		{Key: "browser", Value: "Firefox"},
		{Key: "env", Value: "prod"},
	}

	fields := p.BuildPayload(context.Background(), n, opts).Attachments[0].Fields
	assert.Equal(t, 1, keyCalls)
	assert.Equal(t, 1, valueCalls)
	assert.Equal(t, []string{"env", "sentry:release", "browser"}, gotKeys)
	assert.Len(t, gotTags, 3)

	require.Len(t, fields, 6)
	assert.Equal(t, []Field{
		{Title: "env", Value: "Production", Short: true},
		{Title: "Release", Value: "1.0", Short: true},
		{Title: "browser", Value: "Firefox", Short: true},
		{Title: "env", Value: "Production", Short: true},
	}, fields[2:])
}

func TestBuildPayload_TagLookupFailureFallsBack(t *testing.T) {
	fail := func(ctx context.Context, projectID int64, k []string) (map[string]string, error) {
		return nil, fmt.Errorf("db down")
	}
	failValues := func(ctx context.Context, projectID int64, tags []model.Tag) (map[model.Tag]string, error) {
		return nil, fmt.Errorf("db down")
	}
	p := New(nil, WithTagLabels(fail, failValues))
	opts := testOptions()
	opts.IncludeTags = true

	fields := p.BuildPayload(context.Background(), testNotification(), opts).Attachments[0].Fields
	assert.Equal(t, Field{Title: "env", Value: "prod", Short: true}, fields[len(fields)-1])
}

func TestBuildPayload_OptionalTopLevelFields(t *testing.T) {
	p := New(nil)
	opts := Options{
		Webhook:  "https://hooks.slack.com/x",
		Username: "  ",
		Channel:  "  #alerts ",
		IconURL:  "https://example.com/logo32.png",
	}

	payload := p.BuildPayload(context.Background(), testNotification(), opts)
	assert.Empty(t, payload.Username)
	assert.Equal(t, "#alerts", payload.Channel)
	assert.Equal(t, "https://example.com/logo32.png", payload.IconURL)

	b, err := json.Marshal(payload)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.NotContains(t, raw, "username")
	assert.Contains(t, raw, "channel")

	opts.Username = " Sentry Bot "
	opts.Channel = ""
	opts.IconURL = ""
	payload = p.BuildPayload(context.Background(), testNotification(), opts)
	assert.Equal(t, "Sentry Bot", payload.Username)
	assert.Empty(t, payload.Channel)
	assert.Empty(t, payload.IconURL)
}

func TestNotify_FieldOrderOverTheWire(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("payload")), &got))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	p := New(transport.New(0))
	opts := Options{Webhook: srv.URL + "/services/T0/B0/x", IncludeRules: true, IncludeTags: true, Username: "Sentry"}

	_, err := p.Notify(context.Background(), testNotification(), opts)
	require.NoError(t, err)

	require.Len(t, got.Attachments, 1)
	titles := make([]string, 0)
	for _, f := range got.Attachments[0].Fields {
		titles = append(titles, f.Title)
	}
	assert.Equal(t, []string{"Culprit", "Project", "Triggered By", "env"}, titles)
	assert.Equal(t, ParseNone, got.Parse)
	assert.Equal(t, "Sentry", got.Username)
}

func TestMetadata(t *testing.T) {
	m := New(nil).Metadata()
	assert.Equal(t, "slack", m.Slug)
	assert.Equal(t, "Post notifications to a Slack channel.", m.Description)
	assert.Len(t, m.Fields, 6)
}
