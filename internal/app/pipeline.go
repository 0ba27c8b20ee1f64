package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/purelit/pure-publications/internal/aggregator"
	"github.com/purelit/pure-publications/internal/cache"
	"github.com/purelit/pure-publications/internal/config"
	"github.com/purelit/pure-publications/internal/logger"
	"github.com/purelit/pure-publications/internal/metrics"
	"github.com/purelit/pure-publications/internal/service"
	"github.com/purelit/pure-publications/internal/storage"
	"github.com/purelit/pure-publications/pkg/httpclient"
	"github.com/purelit/pure-publications/pkg/providers"
	"github.com/purelit/pure-publications/pkg/publishers"
)

// Pipeline holds the components shared by the server and the CLI: the cache, the
// providers, the publishers and the service on top of them.
type Pipeline struct {
	Service *service.Service
	Gateway *cache.Gateway
	Metrics *metrics.Metrics

	store  storage.Store
	fanout *publishers.Fanout
	log    logger.Logger
}

// NewPipeline wires the lookup pipeline from config. The caller must Close it.
func NewPipeline(ctx context.Context, cfg *config.Config, log logger.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	providerReg, err := providers.LoadRegistry(cfg.ProvidersFile)
	if err != nil {
		return nil, fmt.Errorf("load providers registry: %w", err)
	}
	// No client-level timeout: the aggregator bounds each call with the provider's timeout_ms.
	client := httpclient.NewRestyClient(0, httpclient.WithUserAgent(userAgent(cfg)))
	chain, err := aggregator.Sources(providerReg, providers.RoleMetadata, client)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("no enabled %s providers configured", providers.RoleMetadata)
	}
	supplements, err := aggregator.Sources(providerReg, providers.RoleSupplement, client)
	if err != nil {
		return nil, err
	}
	log.InfoObj("providers registry loaded", "providers_meta", map[string]any{
		"metadata":    sourceIDs(chain),
		"supplements": sourceIDs(supplements),
	})

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.CacheType, storePath(cfg))
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":     cfg.CacheType,
		"path":     storePath(cfg),
		"ttl_days": cfg.CacheTTLDays,
	})

	m := metrics.New()
	gw := cache.NewGateway(store, cfg.CacheTTL)
	agg := aggregator.New(chain, supplements,
		aggregator.WithTimeout(cfg.ProviderTimeout),
		aggregator.WithLogger(log),
	)
	svc := service.New(gw, agg,
		service.WithPublisher(fanout),
		service.WithMetrics(m),
		service.WithLogger(log),
	)

	return &Pipeline{
		Service: svc,
		Gateway: gw,
		Metrics: m,
		store:   store,
		fanout:  fanout,
		log:     log,
	}, nil
}

// Close releases the store and publisher clients.
func (p *Pipeline) Close() error {
	if p == nil {
		return nil
	}
	var errs []error
	if err := p.fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}

func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if cfg.PublishersFile == "" {
		log.InfoObj("no publishers file configured; refresh events disabled", "publishers_meta", map[string]any{"count": 0})
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultBuilders(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{"id": pubCfg.ID, "type": pubCfg.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

func storePath(cfg *config.Config) string {
	switch cfg.CacheType {
	case "bbolt":
		return cfg.BBoltPath
	case "sqlite":
		return cfg.SQLitePath
	default:
		return ""
	}
}

func sourceIDs(srcs []aggregator.Source) []string {
	ids := make([]string, 0, len(srcs))
	for _, s := range srcs {
		ids = append(ids, s.Provider.ID)
	}
	return ids
}

func userAgent(cfg *config.Config) string {
	if cfg.AppName == "" {
		return ""
	}
	return cfg.AppName + "/1.0"
}
