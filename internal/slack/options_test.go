package slack

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjzar/sentry-slack/internal/errors"
)

func TestDecodeOptions_Defaults(t *testing.T) {
	opts, err := DecodeOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultUsername, opts.Username)
	assert.False(t, opts.Configured())
	assert.False(t, opts.IncludeTags)
	assert.False(t, opts.IncludeRules)

	opts, err = DecodeOptions(map[string]any{"webhook": "https://hooks.slack.com/x", "username": nil})
	require.NoError(t, err)
	assert.Equal(t, DefaultUsername, opts.Username)
	assert.True(t, opts.Configured())
}

func TestDecodeOptions_WeakTypes(t *testing.T) {
	opts, err := DecodeOptions(map[string]any{
		"webhook":       "https://hooks.slack.com/x",
		"username":      "",
		"channel":       "#ops",
		"include_tags":  "true",
		"include_rules": 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "", opts.Username)
	assert.Equal(t, "#ops", opts.Channel)
	assert.True(t, opts.IncludeTags)
	assert.True(t, opts.IncludeRules)

	_, err = DecodeOptions(map[string]any{"include_tags": "maybe"})
	assert.True(t, errors.Is(err, errors.ErrTypeValidation))
}

func TestOptionsMapRoundTrip(t *testing.T) {
	in := Options{
		Webhook:      "https://hooks.slack.com/x",
		Username:     "bot",
		IconURL:      "https://example.com/i.png",
		Channel:      "@me",
		IncludeTags:  true,
		IncludeRules: false,
	}
	m := in.Map()
	assert.Equal(t, "https://hooks.slack.com/x", m[OptionWebhook])
	assert.Equal(t, true, m[OptionIncludeTags])

	out, err := DecodeOptions(m)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestOptionsNormalize(t *testing.T) {
	opts := Options{
		Webhook:  " https://hooks.slack.com/x \n",
		Username: "  Sentry ",
		IconURL:  " https://example.com/i.png",
		Channel:  " #general ",
	}.Normalize()
	assert.Equal(t, "https://hooks.slack.com/x", opts.Webhook)
	assert.Equal(t, "Sentry", opts.Username)
	assert.Equal(t, "https://example.com/i.png", opts.IconURL)
	assert.Equal(t, "#general", opts.Channel)
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantField string
	}{
		{name: "valid minimal", opts: Options{Webhook: "https://hooks.slack.com/services/T/B/x"}},
		{name: "valid full", opts: Options{Webhook: "http://chat.local/hook", IconURL: "https://example.com/logo32.png", Channel: "#x"}},
		{name: "missing webhook", opts: Options{}, wantField: OptionWebhook},
		{name: "malformed webhook", opts: Options{Webhook: "not a url"}, wantField: OptionWebhook},
		{name: "non http webhook", opts: Options{Webhook: "ftp://example.com/hook"}, wantField: OptionWebhook},
		{name: "malformed icon", opts: Options{Webhook: "https://hooks.slack.com/x", IconURL: "logo.png"}, wantField: OptionIconURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			appErr, ok := errors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantField, appErr.Field)
			assert.Equal(t, errors.ErrTypeValidation, appErr.Type)
		})
	}
}

func TestFields(t *testing.T) {
	fields := Fields()
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"webhook", "username", "icon_url", "channel", "include_tags", "include_rules"}, names)
	assert.True(t, fields[0].Required)
	assert.Equal(t, "Bot Name", fields[1].Label)
	assert.Equal(t, DefaultUsername, fields[1].Default)
}

func TestDecodeForm(t *testing.T) {
	opts, err := DecodeForm(url.Values{
		"webhook":      {" https://hooks.slack.com/x "},
		"channel":      {"#ops"},
		"include_tags": {"on"},
		"csrf_token":   {"ignored"},
	})
	require.NoError(t, err)
	assert.Equal(t, " https://hooks.slack.com/x ", opts.Webhook)
	assert.Equal(t, DefaultUsername, opts.Username)
	assert.Equal(t, "#ops", opts.Channel)
	assert.True(t, opts.IncludeTags)
	assert.False(t, opts.IncludeRules)

	_, err = DecodeForm(url.Values{"include_rules": {"perhaps"}})
	assert.True(t, errors.Is(err, errors.ErrTypeValidation))
}
