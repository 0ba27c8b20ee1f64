package publishers

import (
	"time"

	"github.com/purelit/pure-publications/internal/domain"
)

// Trigger values describe why a record was (re)fetched.
const (
	TriggerMiss      = "cache-miss"
	TriggerNoCache   = "cache-disabled"
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// Event is the payload published downstream after a cache entry is written.
type Event struct {
	DOI         string        `json:"doi"`
	Source      string        `json:"source,omitempty"`
	Trigger     string        `json:"trigger"`
	Record      domain.Record `json:"record"`
	ExpireAt    time.Time     `json:"expire_at"`
	RefreshedAt time.Time     `json:"refreshed_at"`
}

// NewEvent constructs an Event for a freshly stored cache entry.
func NewEvent(rec domain.CachedRecord, trigger string, refreshedAt time.Time) Event {
	return Event{
		DOI:         rec.Data.DOI,
		Source:      rec.Source,
		Trigger:     trigger,
		Record:      rec.Data,
		ExpireAt:    rec.ExpireAt.UTC(),
		RefreshedAt: refreshedAt.UTC(),
	}
}

// attributes are attached to queue and topic messages for subscriber-side filtering.
func (e Event) attributes() map[string]string {
	attrs := map[string]string{
		"doi":     e.DOI,
		"trigger": e.Trigger,
	}
	if e.Source != "" {
		attrs["source"] = e.Source
	}
	return attrs
}
