package slack

import (
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/gorilla/schema"

	"github.com/sjzar/sentry-slack/internal/errors"
)

var formDecoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	// html checkboxes post "on"
	d.RegisterConverter(false, func(s string) reflect.Value {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "on", "yes":
			return reflect.ValueOf(true)
		case "", "off", "no":
			return reflect.ValueOf(false)
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return reflect.Value{}
		}
		return reflect.ValueOf(b)
	})
	return d
}

// DecodeForm reads options posted by the settings form. Fields missing from
// the form keep their defaults.
func DecodeForm(values url.Values) (Options, error) {
	opts := DefaultOptions()
	if err := formDecoder.Decode(&opts, values); err != nil {
		return opts, errors.DecodeOptionsFailed(err)
	}
	return opts, nil
}
