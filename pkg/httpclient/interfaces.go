package httpclient

import "context"

// Response exposes what provider adapters read from an upstream reply.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client performs GET requests against upstream metadata services.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// ClientFunc adapts a plain function to Client.
type ClientFunc func(ctx context.Context, url string, headers map[string]string) (Response, error)

// Get calls f.
func (f ClientFunc) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	return f(ctx, url, headers)
}
