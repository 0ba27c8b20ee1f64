package providers

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/purelit/pure-publications/pkg/httpclient"
)

// Adapters resolves the fetcher for a provider entry: an id-specific factory wins over
// the factory registered for the provider's type.
type Adapters struct {
	byID   map[string]Factory
	byType map[string]Factory
}

// NewAdapters builds a resolver over type factories.
func NewAdapters(byType map[string]Factory) *Adapters {
	a := &Adapters{
		byID:   make(map[string]Factory),
		byType: make(map[string]Factory, len(byType)),
	}
	for typ, f := range byType {
		if key := normalizeKey(typ); key != "" && f != nil {
			a.byType[key] = f
		}
	}
	return a
}

// WithProvider registers a factory for a single provider id.
func (a *Adapters) WithProvider(id string, f Factory) *Adapters {
	if key := normalizeKey(id); key != "" && f != nil {
		a.byID[key] = f
	}
	return a
}

// Types lists the registered adapter types, sorted.
func (a *Adapters) Types() []string {
	out := make([]string, 0, len(a.byType))
	for typ := range a.byType {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// FetcherFor binds the adapter for cfg to client. A nil client falls back to DefaultHTTPClient.
func (a *Adapters) FetcherFor(cfg Provider, client HTTPClient) (Fetcher, error) {
	if a == nil {
		return nil, fmt.Errorf("adapter registry is nil")
	}
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, fmt.Errorf("provider id is empty")
	}
	if client == nil {
		client = DefaultHTTPClient()
	}

	if f, ok := a.byID[normalizeKey(cfg.ID)]; ok {
		return f(client), nil
	}
	if f, ok := a.byType[normalizeKey(cfg.Type)]; ok {
		return f(client), nil
	}
	return nil, fmt.Errorf("no adapter for provider %q of type %q (known types: %s)",
		cfg.ID, cfg.Type, strings.Join(a.Types(), ", "))
}

func normalizeKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// DefaultHTTPClient returns a resty-backed client with the default provider timeout.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(15 * time.Second) }

// DefaultAdapters knows every built-in adapter type.
func DefaultAdapters() *Adapters {
	return NewAdapters(map[string]Factory{
		TypeCrossref:      func(c HTTPClient) Fetcher { return NewCrossrefFetcher(c) },
		TypeDataCite:      func(c HTTPClient) Fetcher { return NewDataCiteFetcher(c) },
		TypeOpenCitations: func(c HTTPClient) Fetcher { return NewOpenCitationsFetcher(c) },
		TypeUnpaywall:     func(c HTTPClient) Fetcher { return NewUnpaywallFetcher(c) },
	})
}
