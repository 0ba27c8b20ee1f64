package providers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/purelit/pure-publications/internal/domain"
)

// CrossrefFetcher reads works from the Crossref REST API (/v1/works/{doi}).
type CrossrefFetcher struct {
	client HTTPClient
}

// NewCrossrefFetcher reads works from the Crossref REST API.
func NewCrossrefFetcher(client HTTPClient) *CrossrefFetcher {
	return &CrossrefFetcher{client: client}
}

func (f *CrossrefFetcher) ID() string { return TypeCrossref }

type crossrefEnvelope struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	Title          []string         `json:"title"`
	Subtitle       []string         `json:"subtitle"`
	Published      crossrefDate     `json:"published"`
	Author         []crossrefAuthor `json:"author"`
	ContainerTitle []string         `json:"container-title"`
	Volume         jsonScalar       `json:"volume"`
	Issue          jsonScalar       `json:"issue"`
	Page           jsonScalar       `json:"page"`
	Abstract       string           `json:"abstract"`
	Reference      []struct {
		DOI string `json:"DOI"`
	} `json:"reference"`
}

type crossrefDate struct {
	DateParts [][]*int `json:"date-parts"`
}

type crossrefAuthor struct {
	Family string `json:"family"`
	Given  string `json:"given"`
	ORCID  string `json:"ORCID"`
	Name   string `json:"name"`
}

func (d crossrefDate) year() string {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 || d.DateParts[0][0] == nil {
		return ""
	}
	return strconv.Itoa(*d.DateParts[0][0])
}

func (f *CrossrefFetcher) Fetch(ctx context.Context, cfg Provider, doi string) (domain.Fields, error) {
	if f.client == nil {
		return domain.Fields{}, fmt.Errorf("%s: http client is nil", cfg.ID)
	}

	u := doiURL(cfg.SourceURL, doi, map[string]string{"mailto": ConfigString(cfg, ConfigMailtoKey, "")})

	var env crossrefEnvelope
	if err := fetchJSON(ctx, f.client, u, cfg.ID, Headers(cfg), &env); err != nil {
		return domain.Fields{}, err
	}
	work := env.Message

	fields := domain.Fields{
		Title:     first(work.Title),
		Subtitle:  first(work.Subtitle),
		Year:      work.Published.year(),
		Container: first(work.ContainerTitle),
		Volume:    string(work.Volume),
		Issue:     string(work.Issue),
		Page:      string(work.Page),
		Abstract:  work.Abstract,
	}
	if ConfigBool(cfg, ConfigStripMarkupKey, true) {
		fields.Abstract = PlainText(fields.Abstract)
	}

	for _, a := range work.Author {
		fields.Authors = append(fields.Authors, domain.Author{
			Family: a.Family,
			Given:  a.Given,
			ORCID:  a.ORCID,
			Name:   a.Name,
		})
	}
	for _, ref := range work.Reference {
		if ref.DOI != "" {
			fields.References = append(fields.References, ref.DOI)
		}
	}

	return fields, nil
}
