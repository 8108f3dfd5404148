package transport

import (
	"net/url"
	"strings"
)

const redacted = "REDACTED"

// RedactURL masks credentials in a webhook URL for safe logging: the userinfo
// password, every query value and the last path segment, which is where
// incoming-webhook services keep their token.
func RedactURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return "<invalid-url>"
	}

	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), redacted)
	}

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			q.Set(key, redacted)
		}
		u.RawQuery = q.Encode()
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) > 1 {
		segments[len(segments)-1] = redacted
		u.Path = "/" + strings.Join(segments, "/")
		u.RawPath = ""
	}

	return u.String()
}
