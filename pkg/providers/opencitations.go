package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/purelit/pure-publications/internal/domain"
)

// OpenCitationsFetcher lists the DOIs citing a work via the OpenCitations COCI index.
type OpenCitationsFetcher struct {
	client HTTPClient
}

// NewOpenCitationsFetcher lists citing works from the OpenCitations index.
func NewOpenCitationsFetcher(client HTTPClient) *OpenCitationsFetcher {
	return &OpenCitationsFetcher{client: client}
}

func (f *OpenCitationsFetcher) ID() string { return TypeOpenCitations }

type openCitation struct {
	Citing string `json:"citing"`
}

func (f *OpenCitationsFetcher) Fetch(ctx context.Context, cfg Provider, doi string) (domain.Fields, error) {
	if f.client == nil {
		return domain.Fields{}, fmt.Errorf("%s: http client is nil", cfg.ID)
	}

	var rows []openCitation
	if err := fetchJSON(ctx, f.client, doiURL(cfg.SourceURL, doi, nil), cfg.ID, Headers(cfg), &rows); err != nil {
		return domain.Fields{}, err
	}

	var fields domain.Fields
	for _, row := range rows {
		if id := citingDOI(row.Citing); id != "" {
			fields.Citations = append(fields.Citations, id)
		}
	}
	return fields, nil
}

// citingDOI extracts the DOI from a citing value. Newer index versions return a
// space-separated identifier list such as "omid:br/06 doi:10.1/x"; older ones a bare DOI,
// which may itself contain colons.
func citingDOI(v string) string {
	for _, tok := range strings.Fields(v) {
		switch {
		case strings.HasPrefix(tok, "doi:"):
			return strings.TrimPrefix(tok, "doi:")
		case strings.HasPrefix(tok, "10."):
			return tok
		}
	}
	return ""
}
