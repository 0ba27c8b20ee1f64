package httpclient

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultUserAgent identifies the service to upstream APIs.
const DefaultUserAgent = "pure-publications/1.0"

// Option tunes a RestyClient.
type Option func(*resty.Client)

// WithUserAgent replaces DefaultUserAgent. Blank values are ignored.
func WithUserAgent(agent string) Option {
	return func(c *resty.Client) {
		if agent = strings.TrimSpace(agent); agent != "" {
			c.SetHeader("User-Agent", agent)
		}
	}
}

// RestyClient is the resty-backed Client used for provider calls and webhooks.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient returns a client whose requests time out after timeout; zero leaves the
// deadline to the request context. Upstream errors are reported through the status code,
// never retried.
func NewRestyClient(timeout time.Duration, opts ...Option) *RestyClient {
	c := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", DefaultUserAgent)
	for _, opt := range opts {
		opt(c)
	}
	return &RestyClient{client: c}
}

// Resty exposes the underlying client for callers that need other verbs or bodies.
func (r *RestyClient) Resty() *resty.Client { return r.client }

// Get issues a GET bound to ctx with per-request headers layered over the defaults.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		return nil, err
	}
	return restyResponse{resp: resp}, nil
}

type restyResponse struct {
	resp *resty.Response
}

func (r restyResponse) Body() []byte    { return r.resp.Body() }
func (r restyResponse) StatusCode() int { return r.resp.StatusCode() }
