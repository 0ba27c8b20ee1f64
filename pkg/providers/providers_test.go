package providers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeProvidersFile(t *testing.T, name, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write providers file: %v", err)
	}
	return file
}

func TestLoadRegistryYAML(t *testing.T) {
	t.Setenv("OC_TOKEN", "secret-token")
	file := writeProvidersFile(t, "providers.yaml", `
providers:
  - id: crossref
    type: crossref
    source_url: https://api.crossref.org/v1/works/
    timeout_ms: 750
    requests_per_second: 5
  - id: opencitations
    type: opencitations
    source_url: https://opencitations.net/index/coci/api/v1/citations
    headers:
      authorization: ${OC_TOKEN}
      x-empty: ${OC_UNSET_VALUE}
`)

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}
	if got := len(reg.All()); got != 2 {
		t.Fatalf("expected 2 providers, got %d", got)
	}

	p, ok := reg.ByID("crossref")
	if !ok {
		t.Fatalf("expected provider id crossref to be loaded")
	}
	if p.SourceURL != "https://api.crossref.org/v1/works" {
		t.Fatalf("trailing slash should be trimmed: %s", p.SourceURL)
	}
	if p.Role != RoleMetadata {
		t.Fatalf("crossref should default to metadata role, got %q", p.Role)
	}
	if p.Timeout(10*time.Second) != 750*time.Millisecond {
		t.Fatalf("unexpected timeout: %v", p.Timeout(10*time.Second))
	}
	if p.RequestsPerSecond != 5 {
		t.Fatalf("unexpected rate: %v", p.RequestsPerSecond)
	}

	oc, _ := reg.ByID("opencitations")
	if oc.Role != RoleSupplement {
		t.Fatalf("opencitations should default to supplement role, got %q", oc.Role)
	}
	if oc.Headers["authorization"] != "secret-token" {
		t.Fatalf("authorization header not expanded: %#v", oc.Headers)
	}
	if _, ok := oc.Headers["x-empty"]; ok {
		t.Fatalf("empty header should be dropped: %#v", oc.Headers)
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	file := writeProvidersFile(t, "providers.json", `{"providers":[{"id":"dc","type":"datacite","source_url":"https://api.datacite.org/dois","enabled":false}]}`)

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}
	if got := reg.Enabled(RoleMetadata); len(got) != 0 {
		t.Fatalf("disabled provider should not be listed: %#v", got)
	}
}

func TestLoadRegistryDefaults(t *testing.T) {
	t.Setenv("OPENCITATIONS_TOKEN", "")

	reg, err := LoadRegistry("")
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}

	chain := reg.Enabled(RoleMetadata)
	if len(chain) != 2 || chain[0].ID != "crossref" || chain[1].ID != "datacite" {
		t.Fatalf("unexpected metadata chain: %#v", chain)
	}
	supp := reg.Enabled(RoleSupplement)
	if len(supp) != 1 || supp[0].ID != "opencitations" {
		t.Fatalf("unexpected supplements: %#v", supp)
	}
	if len(supp[0].Headers) != 0 {
		t.Fatalf("unset token should not produce a header: %#v", supp[0].Headers)
	}
}

func TestLoadRegistryRejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"duplicate": `
providers:
  - id: dup
    type: crossref
    source_url: https://p1.example
  - id: dup
    type: crossref
    source_url: https://p2.example
`,
		"missing url": `
providers:
  - id: crossref
    type: crossref
`,
		"unknown role": `
providers:
  - id: custom
    type: custom
    source_url: https://p.example
`,
		"empty": `providers: []`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			file := writeProvidersFile(t, "providers.yaml", content)
			if _, err := LoadRegistry(file); err == nil {
				t.Fatalf("expected error, got nil")
			}
		})
	}
}

func TestAdaptersResolveByIDThenType(t *testing.T) {
	client := &mockHTTPClient{}
	adapters := DefaultAdapters().WithProvider("crossref-mirror", func(c HTTPClient) Fetcher {
		return NewDataCiteFetcher(c)
	})

	f, err := adapters.FetcherFor(Provider{ID: "crossref-mirror", Type: TypeCrossref}, client)
	if err != nil {
		t.Fatalf("FetcherFor: %v", err)
	}
	if f.ID() != TypeDataCite {
		t.Fatalf("expected id override to win, got %s", f.ID())
	}
	if f, err := adapters.FetcherFor(Provider{ID: "primary", Type: TypeCrossref}, client); err != nil || f.ID() != TypeCrossref {
		t.Fatalf("expected type fallback, got %v %v", f, err)
	}
	if _, err := adapters.FetcherFor(Provider{ID: "x", Type: "unknown"}, client); err == nil {
		t.Fatalf("expected error for unknown type")
	}
	if _, err := adapters.FetcherFor(Provider{Type: TypeCrossref}, client); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestAdaptersTypes(t *testing.T) {
	got := strings.Join(DefaultAdapters().Types(), ",")
	if got != "crossref,datacite,opencitations,unpaywall" {
		t.Fatalf("types = %s", got)
	}
}

func TestShippedProvidersFileLoads(t *testing.T) {
	t.Setenv("UNPAYWALL_EMAIL", "ops@example.org")
	reg, err := LoadRegistry(filepath.Join("..", "..", "configs", "providers.yaml"))
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	up, ok := reg.ByID("unpaywall")
	if !ok || up.EnabledValue() {
		t.Fatalf("unpaywall should ship disabled: %#v", up)
	}
	if ConfigString(up, ConfigEmailKey, "") != "ops@example.org" {
		t.Fatalf("email not expanded: %#v", up.Config)
	}
}
