// Package aggregator queries the configured providers for a DOI: the metadata chain in
// order until one yields a title, the supplements alongside it.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/purelit/pure-publications/internal/domain"
	"github.com/purelit/pure-publications/internal/logger"
	"github.com/purelit/pure-publications/pkg/httpclient"
	"github.com/purelit/pure-publications/pkg/providers"
)

// DefaultTimeout bounds a provider call whose config sets no timeout_ms.
const DefaultTimeout = 10 * time.Second

// Source binds a provider config to the adapter that serves it.
type Source struct {
	Provider providers.Provider
	Fetcher  providers.Fetcher
}

// Call reports one provider request. Status is 0 when no response was received.
type Call struct {
	Provider string
	Role     string
	Status   int
	Duration time.Duration
	Err      error
}

// OK reports whether the call returned a usable response.
func (c Call) OK() bool { return c.Err == nil }

// Result holds what a single aggregation produced. Contributions are ordered metadata chain
// first, then supplements in registry order.
type Result struct {
	Contributions []domain.Contribution
	Calls         []Call
}

// Aggregator queries the metadata chain in order and the supplements concurrently.
type Aggregator struct {
	chain       []Source
	supplements []Source
	timeout     time.Duration
	log         logger.Logger
}

// Option customises an Aggregator.
type Option func(*Aggregator)

// WithTimeout sets the fallback per-provider timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets the logger used for provider failures.
func WithLogger(log logger.Logger) Option {
	return func(a *Aggregator) { a.log = logger.Ensure(log) }
}

// New builds an aggregator over the given metadata chain and supplements.
func New(chain, supplements []Source, opts ...Option) *Aggregator {
	a := &Aggregator{
		chain:       chain,
		supplements: supplements,
		timeout:     DefaultTimeout,
		log:         logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Sources resolves adapters for the enabled providers of a registry. Each provider gets its
// own throttled view of client when requests_per_second is set.
func Sources(reg *providers.Registry, role string, client httpclient.Client) ([]Source, error) {
	adapters := providers.DefaultAdapters()
	var out []Source
	for _, p := range reg.Enabled(role) {
		f, err := adapters.FetcherFor(p, httpclient.NewThrottledClient(client, p.RequestsPerSecond))
		if err != nil {
			return nil, fmt.Errorf("resolve fetcher for provider %s: %w", p.ID, err)
		}
		out = append(out, Source{Provider: p, Fetcher: f})
	}
	return out, nil
}

// Aggregate collects contributions for doi. Provider failures are recorded in Calls and
// never returned; the supplements are always awaited before returning.
func (a *Aggregator) Aggregate(ctx context.Context, doi string) Result {
	suppFields := make([]*domain.Fields, len(a.supplements))
	suppCalls := make([]Call, len(a.supplements))

	// Supplement goroutines absorb their errors so Wait only acts as a barrier.
	var g errgroup.Group
	for i, src := range a.supplements {
		g.Go(func() error {
			fields, call := a.call(ctx, src, doi)
			suppCalls[i] = call
			if call.OK() {
				suppFields[i] = &fields
			}
			return nil
		})
	}

	var res Result
	for _, src := range a.chain {
		fields, call := a.call(ctx, src, doi)
		res.Calls = append(res.Calls, call)
		if !call.OK() {
			continue
		}
		res.Contributions = append(res.Contributions, domain.Contribution{Provider: src.Provider.ID, Fields: fields})
		if fields.HasTitle() {
			break
		}
	}

	_ = g.Wait()

	for i, src := range a.supplements {
		res.Calls = append(res.Calls, suppCalls[i])
		if suppFields[i] != nil {
			res.Contributions = append(res.Contributions, domain.Contribution{Provider: src.Provider.ID, Fields: *suppFields[i]})
		}
	}
	return res
}

func (a *Aggregator) call(ctx context.Context, src Source, doi string) (domain.Fields, Call) {
	cfg := src.Provider
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout(a.timeout))
	defer cancel()

	start := time.Now()
	fields, err := src.Fetcher.Fetch(ctx, cfg, doi)
	call := Call{
		Provider: cfg.ID,
		Role:     cfg.Role,
		Status:   providers.StatusOf(err),
		Duration: time.Since(start),
		Err:      err,
	}
	if err != nil {
		a.log.WarnObj("provider request failed", "provider_error", map[string]any{
			"provider_id": cfg.ID,
			"doi":         doi,
			"status":      call.Status,
			"error":       err.Error(),
		})
		return domain.Fields{}, call
	}
	return fields, call
}
