package providers

import (
	"context"
	"fmt"

	"github.com/purelit/pure-publications/internal/domain"
)

// UnpaywallFetcher resolves the best open-access location for a DOI. Unpaywall requires a
// contact email on every request (config.email).
type UnpaywallFetcher struct {
	client HTTPClient
}

// NewUnpaywallFetcher looks up open-access locations; it needs config.email.
func NewUnpaywallFetcher(client HTTPClient) *UnpaywallFetcher {
	return &UnpaywallFetcher{client: client}
}

func (f *UnpaywallFetcher) ID() string { return TypeUnpaywall }

type unpaywallResponse struct {
	IsOA           bool `json:"is_oa"`
	BestOALocation *struct {
		URL       string `json:"url"`
		URLForPDF string `json:"url_for_pdf"`
	} `json:"best_oa_location"`
}

func (f *UnpaywallFetcher) Fetch(ctx context.Context, cfg Provider, doi string) (domain.Fields, error) {
	if f.client == nil {
		return domain.Fields{}, fmt.Errorf("%s: http client is nil", cfg.ID)
	}
	email := ConfigString(cfg, ConfigEmailKey, "")
	if email == "" {
		return domain.Fields{}, fmt.Errorf("%s: config.email is required: %w", cfg.ID, ErrNotConfigured)
	}

	var resp unpaywallResponse
	if err := fetchJSON(ctx, f.client, doiURL(cfg.SourceURL, doi, map[string]string{"email": email}), cfg.ID, Headers(cfg), &resp); err != nil {
		return domain.Fields{}, err
	}

	var fields domain.Fields
	if resp.IsOA && resp.BestOALocation != nil {
		fields.OALink = resp.BestOALocation.URLForPDF
		if fields.OALink == "" {
			fields.OALink = resp.BestOALocation.URL
		}
	}
	return fields, nil
}
