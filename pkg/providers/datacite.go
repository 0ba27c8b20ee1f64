package providers

import (
	"context"
	"fmt"

	"github.com/purelit/pure-publications/internal/domain"
)

// DataCiteFetcher reads DOI metadata from the DataCite REST API (/dois/{doi}).
type DataCiteFetcher struct {
	client HTTPClient
}

// NewDataCiteFetcher reads DOI metadata from the DataCite REST API.
func NewDataCiteFetcher(client HTTPClient) *DataCiteFetcher {
	return &DataCiteFetcher{client: client}
}

func (f *DataCiteFetcher) ID() string { return TypeDataCite }

type dataciteEnvelope struct {
	Data struct {
		Attributes dataciteAttributes `json:"attributes"`
	} `json:"data"`
}

type dataciteTitle struct {
	Title     string `json:"title"`
	TitleType string `json:"titleType"`
}

type dataciteAttributes struct {
	Titles          []dataciteTitle `json:"titles"`
	PublicationYear jsonScalar      `json:"publicationYear"`
	Creators        []struct {
		Name string `json:"name"`
	} `json:"creators"`
	RelatedItems []struct {
		Titles []dataciteTitle `json:"titles"`
	} `json:"relatedItems"`
	Container struct {
		Title string `json:"title"`
	} `json:"container"`
	Descriptions []struct {
		Description jsonScalar `json:"description"`
	} `json:"descriptions"`
}

// typedTitle returns the first non-empty title with the given titleType ("" for the main title).
func typedTitle(titles []dataciteTitle, typ string) string {
	for _, t := range titles {
		if t.Title != "" && t.TitleType == typ {
			return t.Title
		}
	}
	return ""
}

func (f *DataCiteFetcher) Fetch(ctx context.Context, cfg Provider, doi string) (domain.Fields, error) {
	if f.client == nil {
		return domain.Fields{}, fmt.Errorf("%s: http client is nil", cfg.ID)
	}

	var env dataciteEnvelope
	if err := fetchJSON(ctx, f.client, doiURL(cfg.SourceURL, doi, nil), cfg.ID, Headers(cfg), &env); err != nil {
		return domain.Fields{}, err
	}
	attrs := env.Data.Attributes

	fields := domain.Fields{
		Title:     typedTitle(attrs.Titles, ""),
		Subtitle:  typedTitle(attrs.Titles, "Subtitle"),
		Year:      string(attrs.PublicationYear),
		Container: attrs.Container.Title,
	}
	for _, c := range attrs.Creators {
		fields.Authors = append(fields.Authors, domain.Author{Name: c.Name})
	}
	if len(attrs.RelatedItems) > 0 && len(attrs.RelatedItems[0].Titles) > 0 && attrs.RelatedItems[0].Titles[0].Title != "" {
		fields.Container = attrs.RelatedItems[0].Titles[0].Title
	}
	if len(attrs.Descriptions) > 0 {
		fields.Abstract = string(attrs.Descriptions[0].Description)
		if ConfigBool(cfg, ConfigStripMarkupKey, true) {
			fields.Abstract = PlainText(fields.Abstract)
		}
	}

	return fields, nil
}
