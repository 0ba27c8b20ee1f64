package domain

// Domain contains the publication record shapes shared by the aggregator, merger and cache.

import (
	"strings"
	"time"
)

// Record is the canonical merged publication record returned to callers and cached.
// Unavailable fields are absent from the JSON output, never null or "".
type Record struct {
	DOI       string `json:"doi"`
	Title     string `json:"title,omitempty"`
	Subtitle  string `json:"subtitle,omitempty"`
	Year      string `json:"year,omitempty"`
	Author    string `json:"author,omitempty"`
	Container string `json:"container,omitempty"`
	Volume    string `json:"volume,omitempty"`
	Issue     string `json:"issue,omitempty"`
	Page      string `json:"page,omitempty"`
	Abstract  string `json:"abstract,omitempty"`
	Reference string `json:"reference,omitempty"`
	Citation  string `json:"citation,omitempty"`
	OALink    string `json:"oaLink,omitempty"`
}

// RecordField names one output field and points at its storage.
type RecordField struct {
	Name  string
	Value *string
}

// FieldList returns the known output fields in serialization order.
func (r *Record) FieldList() []RecordField {
	return []RecordField{
		{Name: "doi", Value: &r.DOI},
		{Name: "title", Value: &r.Title},
		{Name: "subtitle", Value: &r.Subtitle},
		{Name: "year", Value: &r.Year},
		{Name: "author", Value: &r.Author},
		{Name: "container", Value: &r.Container},
		{Name: "volume", Value: &r.Volume},
		{Name: "issue", Value: &r.Issue},
		{Name: "page", Value: &r.Page},
		{Name: "abstract", Value: &r.Abstract},
		{Name: "reference", Value: &r.Reference},
		{Name: "citation", Value: &r.Citation},
		{Name: "oaLink", Value: &r.OALink},
	}
}

// Normalize trims every known field; a field left empty is treated as absent.
func (r *Record) Normalize() {
	for _, f := range r.FieldList() {
		*f.Value = strings.TrimSpace(*f.Value)
	}
}

// Present returns the names of the fields that carry a value.
func (r Record) Present() []string {
	var out []string
	for _, f := range r.FieldList() {
		if *f.Value != "" {
			out = append(out, f.Name)
		}
	}
	return out
}

// CachedRecord is a merged record persisted with its logical expiration.
type CachedRecord struct {
	Key      string    `json:"key"`
	ExpireAt time.Time `json:"expireAt"`
	Data     Record    `json:"data"`
	Source   string    `json:"source,omitempty"`
}

// IsFresh reports whether rec exists and has not yet expired at now.
func IsFresh(rec *CachedRecord, now time.Time) bool {
	return rec != nil && rec.ExpireAt.After(now)
}
