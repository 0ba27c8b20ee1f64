package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/purelit/pure-publications/internal/logger"
	"github.com/purelit/pure-publications/pkg/httpclient"
)

// maxErrorBody bounds how much of a rejected webhook reply ends up in errors.
const maxErrorBody = 512

// webhookPublisher delivers refresh events to an HTTP endpoint as JSON. Event attributes
// travel as X-Event-* headers so receivers can route without decoding the body.
type webhookPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  *resty.Client
	log     logger.Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second

	return &webhookPublisher{
		id:      cfg.ID,
		method:  cfg.HTTP.Method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  httpclient.NewRestyClient(timeout).Resty(),
		log:     logger.Ensure(log),
	}, nil
}

func (w *webhookPublisher) ID() string   { return w.id }
func (w *webhookPublisher) Type() string { return TypeHTTP }

func (w *webhookPublisher) Publish(ctx context.Context, evt Event) error {
	req := w.client.R().
		SetContext(ctx).
		SetHeaders(w.headers).
		SetHeader("Content-Type", "application/json").
		SetBody(evt)
	for name, value := range evt.attributes() {
		req.SetHeader("X-Event-"+headerCase(name), value)
	}

	resp, err := req.Execute(w.method, w.url)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", w.id, err)
	}
	if resp.IsError() {
		w.log.WarnObj("webhook rejected refresh event", "publisher_http_error", map[string]any{
			"publisher_id": w.id,
			"doi":          evt.DOI,
			"status":       resp.StatusCode(),
		})
		return fmt.Errorf("webhook %s: status %d: %s", w.id, resp.StatusCode(), errorBody(resp.Body()))
	}
	return nil
}

func headerCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func errorBody(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return strings.TrimSpace(string(body))
}
