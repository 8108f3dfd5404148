package transport

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/schema"
	"github.com/rs/zerolog/log"

	"github.com/sjzar/sentry-slack/internal/errors"
	"github.com/sjzar/sentry-slack/pkg/version"
)

const (
	DefaultTimeout = 10 * time.Second

	// maxBodySize caps how much of the response is kept for error reporting.
	maxBodySize = 4 << 10
)

// Result is the outcome of one delivered request.
type Result struct {
	StatusCode int           `json:"code"`
	Body       string        `json:"body,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Client posts form-encoded requests to webhook endpoints. It performs a
// single attempt per call; callers decide whether to try again.
type Client struct {
	httpClient *http.Client
	encoder    *schema.Encoder
	userAgent  string
}

func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewWithHTTPClient(&http.Client{Timeout: timeout})
}

func NewWithHTTPClient(hc *http.Client) *Client {
	return &Client{
		httpClient: hc,
		encoder:    schema.NewEncoder(),
		userAgent:  version.UserAgent(),
	}
}

// PostForm encodes form (a struct with `schema` tags) as
// application/x-www-form-urlencoded and POSTs it to rawURL.
// Non-2xx responses are returned as errors alongside the Result.
func (c *Client) PostForm(ctx context.Context, rawURL string, form any) (*Result, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	values := url.Values{}
	if err := c.encoder.Encode(form, values); err != nil {
		return nil, errors.EncodePayloadFailed(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, errors.InvalidWebhookURL(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		observe("error", duration)
		log.Debug().Err(err).Str("url", RedactURL(rawURL)).Msg("webhook request failed")
		return nil, errors.WebhookUnreachable(err)
	}
	defer func() {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	result := &Result{
		StatusCode: resp.StatusCode,
		Body:       string(body),
		Duration:   duration,
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observe("rejected", duration)
		return result, errors.WebhookRejected(resp.StatusCode, strings.TrimSpace(result.Body))
	}

	observe("success", duration)
	log.Debug().
		Str("url", RedactURL(rawURL)).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("webhook delivered")
	return result, nil
}

// ValidateURL requires an absolute http(s) URL with a host.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return errors.InvalidWebhookURL(err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.InvalidWebhookURL(errors.InvalidArg("scheme " + u.Scheme))
	}
	if u.Host == "" {
		return errors.InvalidWebhookURL(errors.InvalidArg("host"))
	}
	return nil
}
