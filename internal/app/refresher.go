package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/purelit/pure-publications/internal/domain"
	"github.com/purelit/pure-publications/internal/logger"
	"github.com/purelit/pure-publications/internal/service"
	"github.com/purelit/pure-publications/pkg/publishers"
)

type expiringLister interface {
	Expiring(ctx context.Context, window time.Duration, limit int) ([]domain.CachedRecord, error)
}

type refresher interface {
	Refresh(ctx context.Context, doi, trigger string) (service.Result, error)
}

// Refresher re-fetches cache entries that are about to expire, on a cron schedule.
type Refresher struct {
	entries expiringLister
	svc     refresher
	window  time.Duration
	batch   int
	log     logger.Logger
	cron    *cron.Cron
}

// NewRefresher builds a refresher for entries expiring within window, batch at a time.
func NewRefresher(entries expiringLister, svc refresher, window time.Duration, batch int, log logger.Logger) *Refresher {
	return &Refresher{
		entries: entries,
		svc:     svc,
		window:  window,
		batch:   batch,
		log:     logger.Ensure(log),
	}
}

// Start schedules RunOnce with a standard 5-field cron spec (descriptors such as "@hourly"
// are accepted). Runs never overlap.
func (r *Refresher) Start(ctx context.Context, schedule string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() {
		if _, err := r.RunOnce(ctx); err != nil {
			r.log.ErrorObj("scheduled refresh failed", "error", err.Error())
		}
	}); err != nil {
		return fmt.Errorf("parse refresh_schedule %q: %w", schedule, err)
	}
	r.cron = c
	c.Start()
	r.log.InfoObj("refresh scheduler started", "refresh_meta", map[string]any{
		"schedule":   schedule,
		"window":     r.window.String(),
		"batch_size": r.batch,
	})
	return nil
}

// Stop halts scheduling and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	if r == nil || r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
}

// RunOnce refreshes one batch of expiring entries and returns how many were refreshed.
func (r *Refresher) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	recs, err := r.entries.Expiring(ctx, r.window, r.batch)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, rec := range recs {
		if ctx.Err() != nil {
			break
		}
		doi := rec.Data.DOI
		if doi == "" {
			doi = domain.DOIFromKey(rec.Key)
		}
		if _, err := r.svc.Refresh(ctx, doi, publishers.TriggerScheduled); err != nil {
			r.log.WarnObj("entry refresh failed", "refresh_error", map[string]any{
				"key":   rec.Key,
				"error": err.Error(),
			})
			continue
		}
		refreshed++
	}

	r.log.InfoObj("refresh pass completed", "refresh_meta", map[string]any{
		"candidates": len(recs),
		"refreshed":  refreshed,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return refreshed, ctx.Err()
}
