package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/purelit/pure-publications/pkg/httpclient"
)

// Provider type identifiers understood by DefaultAdapters.
const (
	TypeCrossref      = "crossref"
	TypeDataCite      = "datacite"
	TypeOpenCitations = "opencitations"
	TypeUnpaywall     = "unpaywall"
)

// ErrNotFound reports that the provider has no record for the DOI.
var ErrNotFound = errors.New("doi not found")

// ErrNotConfigured reports a provider entry missing a required setting.
var ErrNotConfigured = errors.New("provider not configured")

// StatusError is returned when a provider answers with a non-200 status.
type StatusError struct {
	Provider   string
	StatusCode int
	Snippet    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d body: %s", e.Provider, e.StatusCode, e.Snippet)
}

// Is makes 404 responses match ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// StatusOf extracts the upstream HTTP status from err, or 0 when no response was received.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// escapeDOI path-escapes each segment of doi, keeping the slashes that separate them.
func escapeDOI(doi string) string {
	parts := strings.Split(doi, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// doiURL joins base and the escaped doi and appends non-empty query values.
func doiURL(base, doi string, query map[string]string) string {
	u := strings.TrimRight(base, "/") + "/" + escapeDOI(doi)
	vals := url.Values{}
	for k, v := range query {
		if v != "" {
			vals.Set(k, v)
		}
	}
	if enc := vals.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

func fetchJSON(ctx context.Context, client httpclient.Client, u, providerID string, headers map[string]string, out any) error {
	resp, err := client.Get(ctx, u, headers)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", providerID, err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return &StatusError{Provider: providerID, StatusCode: resp.StatusCode(), Snippet: responseSnippet(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", providerID, err)
	}
	return nil
}

// jsonScalar accepts a JSON string or number and keeps its textual form.
type jsonScalar string

func (s *jsonScalar) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" || raw == "" {
		*s = ""
		return nil
	}
	if raw[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = jsonScalar(v)
		return nil
	}
	*s = jsonScalar(raw)
	return nil
}

func first(values []string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
