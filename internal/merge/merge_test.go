package merge

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/purelit/pure-publications/internal/domain"
)

func TestMergePrefersEarlierProvider(t *testing.T) {
	contribs := []domain.Contribution{
		{Provider: "primary", Fields: domain.Fields{Title: "A"}},
		{Provider: "secondary", Fields: domain.Fields{Title: "B", Container: "Journal"}},
	}

	rec, source := Merge("10.1/x", contribs)
	if rec.Title != "A" || source != "primary" {
		t.Fatalf("expected primary title A, got %q from %q", rec.Title, source)
	}
	if rec.Container != "Journal" {
		t.Fatalf("secondary should fill fields the primary left empty, got %q", rec.Container)
	}
}

func TestMergeFallsBackWhenPrimaryTitleMissing(t *testing.T) {
	contribs := []domain.Contribution{
		{Provider: "primary", Fields: domain.Fields{Title: "  "}},
		{Provider: "secondary", Fields: domain.Fields{Title: "B"}},
	}

	rec, source := Merge("10.1/x", contribs)
	if rec.Title != "B" || source != "secondary" {
		t.Fatalf("expected secondary title B, got %q from %q", rec.Title, source)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	contribs := []domain.Contribution{
		{Provider: "crossref", Fields: domain.Fields{
			Title:      "T",
			Authors:    []domain.Author{{Family: "Smith", Given: "J"}},
			References: []string{"10.1/a", "10.1/b"},
		}},
		{Provider: "opencitations", Fields: domain.Fields{Citations: []string{"10.2/c"}}},
	}

	first, src1 := Merge("10.1/x", contribs)
	second, src2 := Merge("10.1/x", contribs)
	if !reflect.DeepEqual(first, second) || src1 != src2 {
		t.Fatalf("merge not idempotent: %+v vs %+v", first, second)
	}
}

func TestMergeYearFallbackChain(t *testing.T) {
	rec, _ := Merge("10.1000.1999.1234", nil)
	if rec.Year != "1999" {
		t.Fatalf("expected year from identifier, got %q", rec.Year)
	}

	rec, _ = Merge("10.1000.1999.1234", []domain.Contribution{
		{Provider: "secondary", Fields: domain.Fields{Year: "2001"}},
	})
	if rec.Year != "2001" {
		t.Fatalf("provider year should win over heuristic, got %q", rec.Year)
	}

	rec, _ = Merge("10.1000/abc2019", nil)
	if rec.Year != "" {
		t.Fatalf("year without surrounding dots must not match, got %q", rec.Year)
	}
}

func TestMergePrunesEmptyFields(t *testing.T) {
	rec, source := Merge("10.1/example", []domain.Contribution{
		{Provider: "primary", Fields: domain.Fields{Subtitle: "", Authors: []domain.Author{{}}}},
	})
	if source != "" {
		t.Fatalf("no title means no source, got %q", source)
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 1 || out["doi"] != "10.1/example" {
		t.Fatalf("expected only doi, got %v", out)
	}
}

func TestMergeEndToEndScenario(t *testing.T) {
	rec, source := Merge("10.1/example", []domain.Contribution{
		{Provider: "primary", Fields: domain.Fields{
			Title:   "T",
			Authors: []domain.Author{{Family: "Smith", Given: "J"}},
		}},
	})

	want := domain.Record{DOI: "10.1/example", Title: "T", Author: "Smith, J"}
	if rec != want {
		t.Fatalf("Merge = %+v, want %+v", rec, want)
	}
	if source != "primary" {
		t.Fatalf("source = %q", source)
	}
}

func TestMergeSerializesLists(t *testing.T) {
	rec, _ := Merge("10.1/x", []domain.Contribution{
		{Provider: "crossref", Fields: domain.Fields{
			Authors: []domain.Author{
				{Family: "Doe", Given: "Jane", ORCID: "https://orcid.org/0000-0002"},
				{Family: "Roe"},
			},
			References: []string{"10.1/a", "", "10.1/b"},
		}},
		{Provider: "opencitations", Fields: domain.Fields{Citations: []string{"10.9/z"}}},
	})
	if rec.Author != "Doe, Jane, 0000-0002; Roe" {
		t.Fatalf("Author = %q", rec.Author)
	}
	if rec.Reference != "10.1/a; 10.1/b" {
		t.Fatalf("Reference = %q", rec.Reference)
	}
	if rec.Citation != "10.9/z" {
		t.Fatalf("Citation = %q", rec.Citation)
	}
}
