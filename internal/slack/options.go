package slack

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/sjzar/sentry-slack/internal/errors"
	"github.com/sjzar/sentry-slack/internal/transport"
)

// Option keys as stored in the host's per-project settings.
const (
	OptionWebhook      = "webhook"
	OptionUsername     = "username"
	OptionIconURL      = "icon_url"
	OptionChannel      = "channel"
	OptionIncludeTags  = "include_tags"
	OptionIncludeRules = "include_rules"

	DefaultUsername = "Sentry"
)

// Options are the resolved per-project settings of the plugin.
type Options struct {
	Webhook      string `mapstructure:"webhook" json:"webhook" schema:"webhook" validate:"required,url"`
	Username     string `mapstructure:"username" json:"username" schema:"username"`
	IconURL      string `mapstructure:"icon_url" json:"icon_url" schema:"icon_url" validate:"omitempty,url"`
	Channel      string `mapstructure:"channel" json:"channel" schema:"channel"`
	IncludeTags  bool   `mapstructure:"include_tags" json:"include_tags" schema:"include_tags"`
	IncludeRules bool   `mapstructure:"include_rules" json:"include_rules" schema:"include_rules"`
}

// DefaultOptions holds the initial values of the settings form.
func DefaultOptions() Options {
	return Options{Username: DefaultUsername}
}

// DecodeOptions resolves stored settings. Keys that were never stored keep
// their defaults; stored values are weakly typed so "true" or "1" enable
// the boolean toggles.
func DecodeOptions(raw map[string]any) (Options, error) {
	opts := DefaultOptions()
	if len(raw) == 0 {
		return opts, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &opts,
	})
	if err != nil {
		return opts, errors.DecodeOptionsFailed(err)
	}

	// nil values mean "unset" and would otherwise zero the defaults
	clean := make(map[string]any, len(raw))
	for k, v := range raw {
		if v != nil {
			clean[k] = v
		}
	}
	if err := decoder.Decode(clean); err != nil {
		return opts, errors.DecodeOptionsFailed(err)
	}
	return opts, nil
}

// Map converts options back to the stored key/value form.
func (o Options) Map() map[string]any {
	m := make(map[string]any, 6)
	// struct -> map never fails for flat primitive fields
	_ = mapstructure.Decode(o, &m)
	return m
}

// Configured reports whether a notification can be delivered at all.
func (o Options) Configured() bool {
	return strings.TrimSpace(o.Webhook) != ""
}

// Normalize trims surrounding whitespace from every text setting.
func (o Options) Normalize() Options {
	o.Webhook = strings.TrimSpace(o.Webhook)
	o.Username = strings.TrimSpace(o.Username)
	o.IconURL = strings.TrimSpace(o.IconURL)
	o.Channel = strings.TrimSpace(o.Channel)
	return o
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate applies the settings form rules. It expects normalized options.
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			field := optionName(fe.StructField())
			if fe.Tag() == "required" {
				return errors.RequiredOption(field)
			}
			return errors.InvalidOption(field, fmt.Sprintf("must be a valid %s", fe.Tag()))
		}
		return errors.Validation("invalid options", err)
	}

	// validator accepts any scheme; webhooks and icons must be http(s)
	if err := transport.ValidateURL(o.Webhook); err != nil {
		return errors.InvalidOption(OptionWebhook, "must be an http or https url")
	}
	if o.IconURL != "" {
		if err := transport.ValidateURL(o.IconURL); err != nil {
			return errors.InvalidOption(OptionIconURL, "must be an http or https url")
		}
	}
	return nil
}

func optionName(structField string) string {
	switch structField {
	case "Webhook":
		return OptionWebhook
	case "Username":
		return OptionUsername
	case "IconURL":
		return OptionIconURL
	case "Channel":
		return OptionChannel
	case "IncludeTags":
		return OptionIncludeTags
	case "IncludeRules":
		return OptionIncludeRules
	}
	return strings.ToLower(structField)
}

// FormField describes one input of the settings form rendered by the host.
type FormField struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Help        string `json:"help,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Default     any    `json:"default,omitempty"`
	Required    bool   `json:"required"`
}

// Fields returns the settings form schema in display order.
func Fields() []FormField {
	return []FormField{
		{
			Name:     OptionWebhook,
			Label:    "Webhook",
			Type:     "url",
			Help:     "Your custom Slack webhook URL",
			Required: true,
		},
		{
			Name:    OptionUsername,
			Label:   "Bot Name",
			Type:    "text",
			Help:    "The name that will be displayed by your bot messages.",
			Default: DefaultUsername,
		},
		{
			Name:  OptionIconURL,
			Label: "Icon URL",
			Type:  "url",
			Help:  "The url of the icon to appear beside your bot (32px png), leave empty for none.",
		},
		{
			Name:        OptionChannel,
			Label:       "Channel",
			Type:        "text",
			Help:        "Optional #channel name or @user",
			Placeholder: "e.g. #general or @user",
		},
		{
			Name:  OptionIncludeTags,
			Label: "Include Tags",
			Type:  "bool",
			Help:  "Include tags with notifications",
		},
		{
			Name:  OptionIncludeRules,
			Label: "Include Rules",
			Type:  "bool",
			Help:  "Include triggering rules with notifications",
		},
	}
}
