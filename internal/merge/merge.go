// Package merge folds provider contributions into one normalized publication record.
package merge

import (
	"regexp"
	"strings"

	"github.com/purelit/pure-publications/internal/domain"
)

// yearInDOI matches a 19xx/20xx year embedded between dots, e.g. "10.1000.1999.1234".
var yearInDOI = regexp.MustCompile(`\.((19|20)\d\d)\.`)

// Merge builds the record for doi from contributions ordered by provider priority. Every
// field takes the first non-empty value; the year falls back to a year embedded in the DOI.
// It also returns the id of the provider that supplied the title, or "" if none did.
func Merge(doi string, contributions []domain.Contribution) (domain.Record, string) {
	rec := domain.Record{DOI: doi}
	source := ""

	for _, c := range contributions {
		f := c.Fields
		if isEmpty(rec.Title) && f.HasTitle() {
			source = c.Provider
		}
		fill(&rec.Title, f.Title)
		fill(&rec.Subtitle, f.Subtitle)
		fill(&rec.Year, f.Year)
		fill(&rec.Author, domain.JoinAuthors(f.Authors))
		fill(&rec.Container, f.Container)
		fill(&rec.Volume, f.Volume)
		fill(&rec.Issue, f.Issue)
		fill(&rec.Page, f.Page)
		fill(&rec.Abstract, f.Abstract)
		fill(&rec.Reference, domain.JoinIDs(f.References))
		fill(&rec.Citation, domain.JoinIDs(f.Citations))
		fill(&rec.OALink, f.OALink)
	}
	fill(&rec.Year, YearFromDOI(doi))

	rec.Normalize()
	rec.DOI = doi
	return rec, source
}

// YearFromDOI extracts a year embedded in the identifier, or "".
func YearFromDOI(doi string) string {
	m := yearInDOI.FindStringSubmatch(doi)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func fill(dst *string, candidate string) {
	if isEmpty(*dst) && !isEmpty(candidate) {
		*dst = candidate
	}
}

func isEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}
