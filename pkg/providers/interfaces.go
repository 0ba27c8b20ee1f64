package providers

import (
	"context"

	"github.com/purelit/pure-publications/internal/domain"
	"github.com/purelit/pure-publications/pkg/httpclient"
)

// Fetcher looks up one DOI at a provider and extracts the fields it knows about.
// Failures come back as errors; StatusOf recovers the HTTP status for reporting.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider, doi string) (domain.Fields, error)
}

// Factory binds an adapter to the client it will call through.
type Factory func(client HTTPClient) Fetcher

// HTTPClient is the outbound client adapters are built on.
type HTTPClient = httpclient.Client
