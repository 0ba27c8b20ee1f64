package domain

import (
	"regexp"
	"strings"
)

// Author is one contributor as reported by a provider.
type Author struct {
	Family string
	Given  string
	ORCID  string
	// Name is the display name used when the provider has no structured family name.
	Name string
}

var orcidPrefix = regexp.MustCompile(`^https?://orcid\.org/`)

// String renders the author as "Family, Given, ORCID", omitting missing parts.
func (a Author) String() string {
	family := strings.TrimSpace(a.Family)
	if family == "" {
		return strings.TrimSpace(a.Name)
	}
	parts := []string{family}
	if given := strings.TrimSpace(a.Given); given != "" {
		parts = append(parts, given)
	}
	if orcid := orcidPrefix.ReplaceAllString(strings.TrimSpace(a.ORCID), ""); orcid != "" {
		parts = append(parts, orcid)
	}
	return strings.Join(parts, ", ")
}

// Fields is the partial record a single provider contributes. List-valued fields stay typed
// until the merger serializes them.
type Fields struct {
	Title      string
	Subtitle   string
	Year       string
	Authors    []Author
	Container  string
	Volume     string
	Issue      string
	Page       string
	Abstract   string
	References []string
	Citations  []string
	OALink     string
}

// HasTitle reports whether the provider supplied a usable title.
func (f Fields) HasTitle() bool {
	return strings.TrimSpace(f.Title) != ""
}

// Contribution pairs a provider id with the fields it returned.
type Contribution struct {
	Provider string
	Fields   Fields
}

// ListSeparator joins serialized author and identifier lists.
const ListSeparator = "; "

// JoinAuthors serializes authors, skipping entries that render empty.
func JoinAuthors(authors []Author) string {
	out := make([]string, 0, len(authors))
	for _, a := range authors {
		if s := a.String(); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, ListSeparator)
}

// JoinIDs serializes an identifier list, skipping blanks.
func JoinIDs(ids []string) string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return strings.Join(out, ListSeparator)
}
